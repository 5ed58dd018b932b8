package repository

import (
	"context"

	"github.com/keycasey/Spirit-Beads-Service/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WebhookEventRepository records processed provider events
type WebhookEventRepository struct {
	db *gorm.DB
}

// NewWebhookEventRepository creates a webhook event repository
func NewWebhookEventRepository(db *gorm.DB) *WebhookEventRepository {
	return &WebhookEventRepository{db: db}
}

// InsertOnce records an event id, returning false when the id was already
// present. The insert races safely: ON CONFLICT DO NOTHING means exactly one
// delivery of a given event id observes true.
func (r *WebhookEventRepository) InsertOnce(ctx context.Context, event *model.WebhookEvent) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(event)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

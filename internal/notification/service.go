package notification

import (
	"context"
	"fmt"
	"strings"

	"github.com/keycasey/Spirit-Beads-Service/internal/model"
	"github.com/keycasey/Spirit-Beads-Service/pkg/config"
	"github.com/keycasey/Spirit-Beads-Service/prometheus"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Service composes and delivers the transactional emails for orders and
// custom requests. Sending failures never abort the state change that
// triggered them; callers log and continue.
type Service struct {
	mailer     Mailer
	adminEmail string
	storeName  string
	log        *zap.Logger
}

func NewService(mailer Mailer, cfg *config.Config, log *zap.Logger) *Service {
	return &Service{
		mailer:     mailer,
		adminEmail: cfg.Mail.AdminEmail,
		storeName:  cfg.Store.Name,
		log:        log,
	}
}

// SendOrderConfirmation emails the customer an itemized receipt after a
// checkout session is paid. The admin address is copied on every receipt.
func (s *Service) SendOrderConfirmation(ctx context.Context, order *model.Order) error {
	if order.CustomerEmail == "" {
		return fmt.Errorf("order %s has no customer email", order.ID)
	}

	data := confirmationData{
		StoreName:    s.storeName,
		CustomerName: customerName(order.ShippingAddress),
		OrderID:      order.ID.String(),
		AddressLines: addressLines(order.ShippingAddress),
		TotalAmount:  formatCents(order.AmountTotal),
	}
	for _, item := range order.Items {
		data.Items = append(data.Items, confirmationItem{
			Name:       item.ProductName,
			Quantity:   item.Quantity,
			UnitPrice:  formatCents(item.UnitPrice),
			TotalPrice: formatCents(item.UnitPrice * int64(item.Quantity)),
		})
	}

	body, err := render(orderConfirmationTmpl, data)
	if err != nil {
		return fmt.Errorf("render order confirmation: %w", err)
	}

	return s.deliver(ctx, "order_confirmation", &Message{
		To:      []string{order.CustomerEmail},
		CC:      []string{s.adminEmail},
		Subject: "Order Confirmation - " + s.storeName,
		Body:    body,
		HTML:    true,
	})
}

// SendOrderShipped emails the customer once an order leaves the studio.
// For custom orders the request supplies the description and colors shown
// in place of the item list; pass nil for regular orders.
func (s *Service) SendOrderShipped(ctx context.Context, order *model.Order, request *model.CustomOrderRequest) error {
	if order.CustomerEmail == "" {
		return fmt.Errorf("order %s has no customer email", order.ID)
	}

	data := shippedData{
		StoreName:       s.storeName,
		CustomerName:    customerName(order.ShippingAddress),
		OrderID:         order.ID.String(),
		TrackingNumber:  order.TrackingNumber,
		Carrier:         order.ShippingCarrier,
		IsCustom:        order.IsCustomOrder,
		ProductImageURL: order.ProductImageURL,
	}
	if order.ShippedAt != nil {
		data.ShippedDate = order.ShippedAt.Format("January 02, 2006")
	}
	if order.IsCustomOrder && request != nil {
		data.Description = request.Description
		data.Colors = request.Colors
		if data.CustomerName == "" {
			data.CustomerName = request.Name
		}
	} else {
		for _, item := range order.Items {
			data.Items = append(data.Items, shippedItem{Name: item.ProductName, Quantity: item.Quantity})
		}
	}

	body, err := render(orderShippedTmpl, data)
	if err != nil {
		return fmt.Errorf("render shipped notice: %w", err)
	}

	return s.deliver(ctx, "order_shipped", &Message{
		To:      []string{order.CustomerEmail},
		Subject: "Your Order Has Shipped! - " + s.storeName,
		Body:    body,
		HTML:    true,
	})
}

// SendApproval emails the requester their quote and payment link.
func (s *Service) SendApproval(ctx context.Context, request *model.CustomOrderRequest) error {
	body, err := render(approvalTmpl, approvalData{
		StoreName:   s.storeName,
		Name:        request.Name,
		Description: request.Description,
		Colors:      request.Colors,
		QuotedPrice: quotedPrice(request),
		PaymentLink: request.StripePaymentLink,
	})
	if err != nil {
		return fmt.Errorf("render approval notice: %w", err)
	}

	return s.deliver(ctx, "custom_approved", &Message{
		To:      []string{request.Email},
		Subject: "Your Custom Order Request Has Been Approved!",
		Body:    body,
	})
}

// SendRejection emails the requester that their request was declined,
// including the admin notes as the stated reason.
func (s *Service) SendRejection(ctx context.Context, request *model.CustomOrderRequest) error {
	body, err := render(rejectionTmpl, rejectionData{
		StoreName:   s.storeName,
		Name:        request.Name,
		Description: request.Description,
		Colors:      request.Colors,
		Reason:      request.AdminNotes,
	})
	if err != nil {
		return fmt.Errorf("render rejection notice: %w", err)
	}

	return s.deliver(ctx, "custom_rejected", &Message{
		To:      []string{request.Email},
		Subject: "Update on Your Custom Order Request",
		Body:    body,
	})
}

// SendPaymentReceived emails the requester that their payment cleared and
// production has started.
func (s *Service) SendPaymentReceived(ctx context.Context, request *model.CustomOrderRequest, order *model.Order) error {
	body, err := render(paymentReceivedTmpl, paymentReceivedData{
		StoreName:   s.storeName,
		Name:        request.Name,
		OrderID:     order.ID.String(),
		AmountTotal: formatCents(order.AmountTotal),
		QuotedPrice: quotedPrice(request),
		Description: request.Description,
		Colors:      request.Colors,
	})
	if err != nil {
		return fmt.Errorf("render payment notice: %w", err)
	}

	return s.deliver(ctx, "payment_received", &Message{
		To:      []string{request.Email},
		Subject: "Payment Received - Your Custom Order is in Production!",
		Body:    body,
	})
}

// SendNewRequestAlert emails the admin inbox about a freshly submitted
// custom order request.
func (s *Service) SendNewRequestAlert(ctx context.Context, request *model.CustomOrderRequest) error {
	body, err := render(newRequestTmpl, newRequestData{
		Name:        request.Name,
		Email:       request.Email,
		Description: request.Description,
		Colors:      request.Colors,
		Images:      request.Images,
	})
	if err != nil {
		return fmt.Errorf("render request alert: %w", err)
	}

	return s.deliver(ctx, "new_request_alert", &Message{
		To:      []string{s.adminEmail},
		Subject: fmt.Sprintf("New Custom Order Request from %s", request.Name),
		Body:    body,
	})
}

func (s *Service) deliver(ctx context.Context, template string, msg *Message) error {
	if err := s.mailer.Send(ctx, msg); err != nil {
		prometheus.RecordEmail(template, "failed")
		return fmt.Errorf("send %s email: %w", template, err)
	}
	prometheus.RecordEmail(template, "sent")
	s.log.Info("Email sent",
		zap.String("template", template),
		zap.String("subject", msg.Subject))
	return nil
}

func formatCents(cents int64) string {
	return decimal.NewFromInt(cents).Div(decimal.NewFromInt(100)).StringFixed(2)
}

func quotedPrice(request *model.CustomOrderRequest) string {
	if !request.QuotedPrice.Valid {
		return ""
	}
	return request.QuotedPrice.Decimal.StringFixed(2)
}

func customerName(a *model.ShippingAddress) string {
	if a == nil {
		return ""
	}
	return a.Name
}

// addressLines formats the stored address the way it prints on a label:
// street lines, then city, state and postal code on one line, then country.
func addressLines(a *model.ShippingAddress) []string {
	if a == nil {
		return nil
	}
	var lines []string
	if a.Line1 != "" {
		lines = append(lines, a.Line1)
	}
	if a.Line2 != "" {
		lines = append(lines, a.Line2)
	}
	var cityStateZip []string
	for _, part := range []string{a.City, a.State, a.PostalCode} {
		if part != "" {
			cityStateZip = append(cityStateZip, part)
		}
	}
	if len(cityStateZip) > 0 {
		lines = append(lines, strings.Join(cityStateZip, ", "))
	}
	if a.Country != "" {
		lines = append(lines, a.Country)
	}
	return lines
}

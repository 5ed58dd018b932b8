package model

// BatchError reports a failure for a single record in a batch operation
type BatchError struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// BatchResult summarizes a batch operation that continues past failures
type BatchResult struct {
	Succeeded []string     `json:"succeeded"`
	Errors    []BatchError `json:"errors"`
}

// Succeed records a successful record id
func (r *BatchResult) Succeed(id string) {
	r.Succeeded = append(r.Succeeded, id)
}

// Fail records a per-record failure
func (r *BatchResult) Fail(id string, msg string) {
	r.Errors = append(r.Errors, BatchError{ID: id, Error: msg})
}

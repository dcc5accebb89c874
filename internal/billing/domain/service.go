package domain

import "context"

// PreviewRequest selects one client month. The company comes from the
// request context.
type PreviewRequest struct {
	ClientID string
	Year     int
	Month    int
}

type Service interface {
	Preview(ctx context.Context, req PreviewRequest) (*Preview, error)
}

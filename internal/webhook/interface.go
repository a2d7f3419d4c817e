package webhook

import (
	"context"

	"github.com/dotflow/refill-backend/internal/model"
)

type IDispatcher interface {
	// Dispatch posts the payloads to the notification queue in fixed-size
	// batches and returns the ids that were accepted. Delivery is
	// at-least-once; the caller stamps accepted rows so they are never
	// offered again.
	Dispatch(ctx context.Context, payloads []model.WebhookPayload) ([]uint, error)
}

package storage

import (
	"context"

	"flexPool/internal/model"
)

// Storage defines a sink for pool events.
type Storage interface {
	PutEvents(ctx context.Context, events []model.EventRecord) error
}

package gateway

import (
	"context"

	"github.com/idilsaglam/tada-remote/internal/model"
)

// Remote is the contract the views and the proxy consume.
type Remote interface {
	List(ctx context.Context) ([]model.Todo, error)
	Get(ctx context.Context, id int) (model.Todo, error)
	Create(ctx context.Context, draft model.Draft) (model.Todo, int, error)
	Update(ctx context.Context, id int, patch model.Patch) (model.Revision, error)
	Delete(ctx context.Context, id int) (bool, error)
}

var _ Remote = (*Client)(nil)

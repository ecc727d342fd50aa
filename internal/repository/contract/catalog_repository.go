package contract

import (
	"context"

	"github.com/segovia241/ia-erp-universal/internal/entity"
	"github.com/segovia241/ia-erp-universal/pkg/nlu"
)

// ICatalogRepository exposes the read-only endpoint catalog. Lookup returning
// an empty slice is a normal, non-fatal outcome.
type ICatalogRepository interface {
	Lookup(ctx context.Context, module string, action nlu.Action) ([]entity.Endpoint, error)
	Modules(ctx context.Context) ([]string, error)
}

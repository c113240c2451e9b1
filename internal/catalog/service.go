// internal/catalog/service.go
package catalog

import (
	"context"
	"errors"
)

var (
	ErrTitleNotFound = errors.New("title not found")
	ErrCopyNotFound  = errors.New("copy not found")
	ErrNoCopyOnShelf = errors.New("no copy on shelf for title")
)

// Service defines the interface for the catalog store. All mutations are
// immediately visible to subsequent reads.
type Service interface {
	AddTitle(ctx context.Context, title Title) (int, error)
	RemoveTitle(ctx context.Context, id int) error
	GetTitle(ctx context.Context, id int) (Title, error)
	SetTitleCategory(ctx context.Context, id int, category Category) error
	FindTitle(ctx context.Context, name string, year int) ([]Title, error)
	AllTitles(ctx context.Context) ([]Title, error)
	TitlesOnShelf(ctx context.Context) ([]Title, error)

	AddCopy(ctx context.Context, titleID int) (int, error)
	RemoveCopy(ctx context.Context, id int) error
	GetCopy(ctx context.Context, id int) (Copy, error)
	CopyOnShelf(ctx context.Context, titleID int) (Copy, error)
	CopiesByTitle(ctx context.Context, titleID int) ([]Copy, error)
	SetCopyShelfStatus(ctx context.Context, id int, onShelf bool) error
}

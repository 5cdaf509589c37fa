package article

import "context"

type Repository interface {
	// Create stores a new article and sets its ID.
	Create(ctx context.Context, a *Article) error
	Get(ctx context.Context, id int32) (*Article, error)
	// List returns articles ordered by id.
	List(ctx context.Context, page Page) ([]Article, error)
	// Update replaces all fields of the article with a.ID.
	Update(ctx context.Context, a *Article) error
	Delete(ctx context.Context, id int32) error

	Ping(ctx context.Context) error
}

// Page selects a window of the article list. Limit 0 means no limit.
type Page struct {
	Limit  int
	Offset int
}

package restapi

import (
	"context"

	"github.com/montekkundan/newsapi/internal/article"
)

type ArticleRepository interface {
	Create(ctx context.Context, a *article.Article) error
	Get(ctx context.Context, id int32) (*article.Article, error)
	List(ctx context.Context, page article.Page) ([]article.Article, error)
	Update(ctx context.Context, a *article.Article) error
	Delete(ctx context.Context, id int32) error
}

type HealthChecker interface {
	Ping(ctx context.Context) error
}

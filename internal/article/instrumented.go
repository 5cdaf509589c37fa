package article

import (
	"context"
	"time"

	"github.com/montekkundan/newsapi/internal/metrics"

	"github.com/pkg/errors"
)

// Instrumented reports the duration and the outcome of every repository call.
type Instrumented struct {
	underlying Repository
	metr       *metrics.RepositoryExporter
}

func NewInstrumented(underlying Repository, metr *metrics.RepositoryExporter) *Instrumented {
	return &Instrumented{
		underlying: underlying,
		metr:       metr,
	}
}

func status(err error) metrics.Status {
	switch {
	case err == nil:
		return metrics.StatusSuccess
	case errors.Is(err, ErrNotFound):
		return metrics.StatusNotFound
	default:
		return metrics.StatusFailure
	}
}

func (i *Instrumented) Create(ctx context.Context, a *Article) (err error) {
	startedAt := time.Now()
	defer func() {
		i.metr.Create(status(err), startedAt)
	}()

	return i.underlying.Create(ctx, a)
}

func (i *Instrumented) Get(ctx context.Context, id int32) (a *Article, err error) {
	startedAt := time.Now()
	defer func() {
		i.metr.Get(status(err), startedAt)
	}()

	return i.underlying.Get(ctx, id)
}

func (i *Instrumented) List(ctx context.Context, page Page) (articles []Article, err error) {
	startedAt := time.Now()
	defer func() {
		i.metr.List(status(err), startedAt)
	}()

	return i.underlying.List(ctx, page)
}

func (i *Instrumented) Update(ctx context.Context, a *Article) (err error) {
	startedAt := time.Now()
	defer func() {
		i.metr.Update(status(err), startedAt)
	}()

	return i.underlying.Update(ctx, a)
}

func (i *Instrumented) Delete(ctx context.Context, id int32) (err error) {
	startedAt := time.Now()
	defer func() {
		i.metr.Delete(status(err), startedAt)
	}()

	return i.underlying.Delete(ctx, id)
}

func (i *Instrumented) Ping(ctx context.Context) error {
	return i.underlying.Ping(ctx)
}

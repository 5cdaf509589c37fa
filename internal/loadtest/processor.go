package loadtest

import (
	"context"
	"time"

	"github.com/montekkundan/newsapi/internal/article"
	"github.com/montekkundan/newsapi/pkg/newsclient"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

var ErrUnknownMode = errors.New("unknown mode")

type Mode string

const (
	// SerialMode keeps the delays between request timestamps.
	SerialMode              Mode = "serial"
	SerialWithoutDelaysMode Mode = "serial-without-delays"
	ParallelMode            Mode = "parallel"
)

const DefaultConcurrency = 8

type Client interface {
	List(ctx context.Context, page article.Page) ([]article.Article, error)
	Get(ctx context.Context, id int32) (*article.Article, error)
	Create(ctx context.Context, in newsclient.ArticleInput) (*article.Article, error)
}

type Config struct {
	Mode        Mode
	Concurrency int
}

type Processor struct {
	cfg    Config
	client Client
	logger zerolog.Logger

	// sleep is replaced in tests.
	sleep func(ctx context.Context, d time.Duration)
}

func New(cfg Config, client Client, logger zerolog.Logger) *Processor {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}

	return &Processor{
		cfg:    cfg,
		client: client,
		logger: logger.With().Str("component", "loadtest").Logger(),
		sleep:  sleepContext,
	}
}

// Process replays the plan and records latency and error of every request.
func (p *Processor) Process(ctx context.Context, plan *Plan) error {
	switch p.cfg.Mode {
	case SerialMode:
		p.processSerial(ctx, plan.Requests, true)

	case SerialWithoutDelaysMode:
		p.processSerial(ctx, plan.Requests, false)

	case ParallelMode:
		p.processParallel(ctx, plan.Requests)

	default:
		return errors.Wrap(ErrUnknownMode, string(p.cfg.Mode))
	}

	return ctx.Err()
}

func (p *Processor) processSerial(ctx context.Context, requests []*Request, withDelays bool) {
	for i, r := range requests {
		if ctx.Err() != nil {
			return
		}

		p.send(ctx, r)

		if withDelays && i != len(requests)-1 {
			next := requests[i+1].Timestamp
			if !next.IsZero() && !r.Timestamp.IsZero() && next.After(r.Timestamp) {
				p.sleep(ctx, next.Sub(r.Timestamp))
			}
		}
	}
}

func (p *Processor) processParallel(ctx context.Context, requests []*Request) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Concurrency)

	for _, r := range requests {
		g.Go(func() error {
			p.send(gctx, r)
			return nil
		})
	}

	_ = g.Wait()
}

func (p *Processor) send(ctx context.Context, r *Request) {
	startedAt := time.Now()

	var err error
	switch r.Kind {
	case KindGet:
		_, err = p.client.Get(ctx, r.ID)

	case KindCreate:
		_, err = p.client.Create(ctx, newsclient.ArticleInput{
			Title:   r.Article.Title,
			Content: r.Article.Content,
			Source:  r.Article.Source,
		})

	default:
		_, err = p.client.List(ctx, r.page())
	}

	elapsed := time.Since(startedAt)
	r.Elapsed = &elapsed

	if err != nil {
		r.Error = err.Error()
		p.logger.Warn().Err(err).Str("kind", string(r.Kind)).Msg("request failed")

		return
	}

	p.logger.Debug().Str("kind", string(r.Kind)).Dur("elapsed_ms", elapsed).Msg("request processed")
}

func sleepContext(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

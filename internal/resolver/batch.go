package resolver

import (
	"context"
	"errors"

	"mercadinho-be/internal/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ResolveMany fans a list-style request out to Resolve concurrently. Each
// item runs its own resolve+quote pipeline with its own deadline; one item's
// NotFound, timeout, or quote failure never blocks the others. Output order
// matches input order.
func (s *service) ResolveMany(ctx context.Context, queries []string) ([]BatchResult, error) {
	results := make([]BatchResult, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)

	for i, q := range queries {
		i, q := i, q
		g.Go(func() error {
			results[i] = s.resolveOne(gctx, q)
			return nil
		})
	}

	// Workers never return errors; per-item failures live in the results.
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *service) resolveOne(ctx context.Context, query string) BatchResult {
	itemCtx, cancel := context.WithTimeout(ctx, s.opts.ItemTimeout)
	defer cancel()

	res := BatchResult{Query: query}

	done := make(chan struct{})
	go func() {
		defer close(done)
		resolution, err := s.Resolve(itemCtx, query)
		if err != nil {
			resolution = Resolution{Kind: ResolutionNotFound}
		}
		res.Resolution = resolution

		if resolution.Kind == ResolutionUnique && s.quotes != nil {
			quote, qErr := s.quotes.Quote(itemCtx, resolution.Product.EAN)
			res.Quote = quote
			res.QuoteErr = qErr
		}
	}()

	select {
	case <-done:
		if errors.Is(res.QuoteErr, context.DeadlineExceeded) {
			res.Resolution = Resolution{Kind: ResolutionNotFound, TimedOut: true}
			res.Quote = nil
		}
		return res
	case <-itemCtx.Done():
		logger.FromCtx(ctx).Warn("batch item timed out", zap.String("query", query))
		return BatchResult{
			Query:      query,
			Resolution: Resolution{Kind: ResolutionNotFound, TimedOut: true},
		}
	}
}

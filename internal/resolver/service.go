package resolver

import (
	"context"
	"strings"
	"time"

	"mercadinho-be/internal/catalog"
	"mercadinho-be/internal/logger"
	"mercadinho-be/internal/oracle"

	"go.uber.org/zap"
)

// Searcher is the read-only catalog lookup the resolver runs on.
type Searcher interface {
	Search(query string) []catalog.Product
}

// Service turns free-text customer queries into catalog products.
type Service interface {
	Resolve(ctx context.Context, rawQuery string) (Resolution, error)
	ResolveMany(ctx context.Context, queries []string) ([]BatchResult, error)
}

type Options struct {
	MaxCandidates int           // cap on Ambiguous candidates surfaced to the customer
	ItemTimeout   time.Duration // per-item deadline in batch resolution
	Concurrency   int           // parallel workers for batch resolution
}

func (o *Options) fill() {
	if o.MaxCandidates <= 0 {
		o.MaxCandidates = 3
	}
	if o.ItemTimeout <= 0 {
		o.ItemTimeout = 8 * time.Second
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 8
	}
}

type service struct {
	index  Searcher
	quotes oracle.Client
	prefs  *Preferences
	opts   Options
}

func NewService(index Searcher, quotes oracle.Client, prefs *Preferences, opts Options) Service {
	opts.fill()
	if prefs == nil {
		prefs = DefaultPreferences()
	}
	return &service{index: index, quotes: quotes, prefs: prefs, opts: opts}
}

// Resolve maps one free-text query to zero, one, or several candidate SKUs.
// Read-only; never fabricates a product.
func (s *service) Resolve(ctx context.Context, rawQuery string) (Resolution, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "resolver"),
		zap.String("query", rawQuery),
	)

	q := catalog.Normalize(rawQuery)
	if q == "" {
		return Resolution{Kind: ResolutionNotFound}, nil
	}

	candidates := s.index.Search(q)

	// One reformulation pass: catalogs abbreviate ("refrigerante" is stored
	// as "REFRIG"), and a unit hint narrows bare produce names.
	if len(candidates) == 0 {
		if q2, changed := s.prefs.Reformulate(q); changed {
			log.Debug("reformulating empty search", zap.String("retry_query", q2))
			candidates = s.index.Search(q2)
		}
	}
	if len(candidates) == 0 {
		log.Info("no catalog match")
		return Resolution{Kind: ResolutionNotFound}, nil
	}

	candidates = s.filter(q, candidates)
	if len(candidates) == 0 {
		return Resolution{Kind: ResolutionNotFound}, nil
	}

	if preferred, ok := s.prefs.PreferredFor(q); ok {
		if p, found := pickPreferred(candidates, preferred); found {
			log.Debug("preference table hit", zap.String("product", p.Name))
			return Resolution{Kind: ResolutionUnique, Product: &p}, nil
		}
	}

	if len(candidates) == 1 {
		return Resolution{Kind: ResolutionUnique, Product: &candidates[0]}, nil
	}

	if len(candidates) > s.opts.MaxCandidates {
		candidates = candidates[:s.opts.MaxCandidates]
	}
	log.Info("ambiguous resolution", zap.Int("candidates", len(candidates)))
	return Resolution{Kind: ResolutionAmbiguous, Candidates: candidates}, nil
}

// filter drops candidates the query cannot mean: store-pickup-only SKUs on
// the delivery channel, and processed variants ("extrato de tomate") when the
// customer asked for the bare fresh item.
func (s *service) filter(normQuery string, candidates []catalog.Product) []catalog.Product {
	out := make([]catalog.Product, 0, len(candidates))
	promo := s.prefs.MentionsPromo(normQuery)
	for _, c := range candidates {
		if !c.DeliveryEligible && !promo {
			continue
		}
		out = append(out, c)
	}

	if s.prefs.IsProcessedQuery(normQuery) {
		return out
	}

	fresh := make([]catalog.Product, 0, len(out))
	for _, c := range out {
		if !s.prefs.HasProcessedTerm(catalog.Normalize(c.Name)) {
			fresh = append(fresh, c)
		}
	}
	// If every hit is a processed product the customer may still mean one of
	// them; let disambiguation sort it out.
	if len(fresh) == 0 {
		return out
	}
	return fresh
}

func pickPreferred(candidates []catalog.Product, preferredName string) (catalog.Product, bool) {
	for _, c := range candidates {
		norm := catalog.Normalize(c.Name)
		if norm == preferredName || strings.HasPrefix(norm, preferredName+" ") {
			return c, true
		}
	}
	return catalog.Product{}, false
}

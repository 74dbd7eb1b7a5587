package resolver

import (
	"fmt"
	"os"
	"strings"

	"mercadinho-be/internal/catalog"

	"gopkg.in/yaml.v3"
)

// Preferences is the data-driven side of resolution: which product a generic
// query defaults to, how queries get reformulated when the first search comes
// up empty, and which terms mark a query as being about processed goods or
// promotions. New rules are YAML edits, not code changes.
type Preferences struct {
	preferred      map[string]string // normalized pattern -> normalized preferred product name
	translations   map[string]string // normalized term -> catalog abbreviation
	processedTerms []string
	promoTerms     []string
	fallbackHint   string
}

type preferencesFile struct {
	Preferred []struct {
		Pattern string `yaml:"pattern"`
		Product string `yaml:"product"`
	} `yaml:"preferred"`
	Translations   map[string]string `yaml:"translations"`
	ProcessedTerms []string          `yaml:"processed_terms"`
	PromoTerms     []string          `yaml:"promo_terms"`
	FallbackHint   string            `yaml:"fallback_hint"`
}

func LoadPreferences(path string) (*Preferences, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading preferences: %w", err)
	}

	var file preferencesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing preferences: %w", err)
	}

	p := &Preferences{
		preferred:    make(map[string]string, len(file.Preferred)),
		translations: make(map[string]string, len(file.Translations)),
		fallbackHint: catalog.Normalize(file.FallbackHint),
	}
	for _, entry := range file.Preferred {
		p.preferred[catalog.Normalize(entry.Pattern)] = catalog.Normalize(entry.Product)
	}
	for term, abbr := range file.Translations {
		p.translations[catalog.Normalize(term)] = catalog.Normalize(abbr)
	}
	for _, term := range file.ProcessedTerms {
		p.processedTerms = append(p.processedTerms, catalog.Normalize(term))
	}
	for _, term := range file.PromoTerms {
		p.promoTerms = append(p.promoTerms, catalog.Normalize(term))
	}
	return p, nil
}

// DefaultPreferences carries the rules that existed before the table was
// externalized; the YAML file extends or overrides them.
func DefaultPreferences() *Preferences {
	return &Preferences{
		preferred: map[string]string{
			"arroz":  "arroz tipo 1",
			"frango": "frango abatido",
		},
		translations: map[string]string{
			"refrigerante": "refrig",
			"achocolatado": "achoc",
			"amaciante":    "amac",
			"mucarela":     "queijo mussarela",
			"mussarela":    "queijo mussarela",
		},
		processedTerms: []string{"doce", "suco", "molho", "extrato", "polpa", "geleia", "compota"},
		promoTerms:     []string{"promocao", "oferta", "promo"},
		fallbackHint:   "kg",
	}
}

// PreferredFor returns the configured default product for a generic query
// ("arroz" -> "arroz tipo 1").
func (p *Preferences) PreferredFor(normQuery string) (string, bool) {
	name, ok := p.preferred[normQuery]
	return name, ok
}

// Reformulate produces the one retry query used when the first search is
// empty: known terms are swapped for the abbreviations the catalog actually
// uses, and failing that a unit-of-sale hint is appended. The second return
// is false when nothing changed, meaning a re-search would be pointless.
func (p *Preferences) Reformulate(normQuery string) (string, bool) {
	tokens := strings.Fields(normQuery)
	changed := false
	for i, tok := range tokens {
		if abbr, ok := p.translations[tok]; ok {
			tokens[i] = abbr
			changed = true
		}
	}
	if changed {
		return strings.Join(tokens, " "), true
	}

	if p.fallbackHint != "" && !strings.Contains(normQuery, p.fallbackHint) {
		return normQuery + " " + p.fallbackHint, true
	}
	return normQuery, false
}

// IsProcessedQuery reports whether the customer explicitly asked for a
// processed product ("extrato de tomate"), which disables the fresh-item
// filter.
func (p *Preferences) IsProcessedQuery(normQuery string) bool {
	return containsAnyTerm(normQuery, p.processedTerms)
}

// MentionsPromo reports whether the query is about promotions, the only case
// where store-pickup-only SKUs may surface.
func (p *Preferences) MentionsPromo(normQuery string) bool {
	return containsAnyTerm(normQuery, p.promoTerms)
}

// HasProcessedTerm checks a candidate's normalized name for processed-product
// markers, used to drop "extrato de tomate" from a bare "tomate" query.
func (p *Preferences) HasProcessedTerm(normName string) bool {
	return containsAnyTerm(normName, p.processedTerms)
}

func containsAnyTerm(s string, terms []string) bool {
	tokens := strings.Fields(s)
	for _, term := range terms {
		for _, tok := range tokens {
			if tok == term {
				return true
			}
		}
	}
	return false
}

package catalog

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Match ranks, best first. Exact beats prefix beats substring beats
// token/fuzzy hits; sector boosts only break ties inside a rank.
const (
	rankExact = iota
	rankPrefix
	rankSubstring
	rankTokens
	rankFuzzy
)

const (
	// searchLimit caps how many candidates a single search returns; the
	// resolver trims further before surfacing choices to the customer.
	searchLimit = 20

	// maxEditDistance is the levenshtein allowance for fuzzy hits, so typos
	// like "tomat" still land on TOMATE without dragging in noise.
	maxEditDistance = 2
)

// Index is an in-memory search structure over the product catalog. It is
// immutable after construction; rebuild it to pick up a catalog refresh.
type Index struct {
	products     []Product
	byEAN        map[string]int
	sectorBoosts map[string]int
}

// DefaultSectorBoosts prefers fresh sectors on ties, mirroring how customers
// asking for a bare produce name almost always mean the fresh item.
func DefaultSectorBoosts() map[string]int {
	return map[string]int{
		"HORTI-FRUTI": 2,
		"FRIGORIFICO": 2,
		"ACOUGUE":     2,
		"PADARIA":     1,
	}
}

// NewIndex normalizes every entry once and keeps the normalized form next to
// the product, the same transform Search applies to queries.
func NewIndex(products []Product, sectorBoosts map[string]int) *Index {
	if sectorBoosts == nil {
		sectorBoosts = DefaultSectorBoosts()
	}

	indexed := make([]Product, len(products))
	copy(indexed, products)
	byEAN := make(map[string]int, len(indexed))
	for i := range indexed {
		indexed[i].normName = Normalize(indexed[i].Name)
		byEAN[indexed[i].EAN] = i
	}

	return &Index{products: indexed, byEAN: byEAN, sectorBoosts: sectorBoosts}
}

func (ix *Index) Len() int {
	return len(ix.products)
}

// ByEAN looks a product up by its exact identifier.
func (ix *Index) ByEAN(ean string) (Product, bool) {
	i, ok := ix.byEAN[ean]
	if !ok {
		return Product{}, false
	}
	return ix.products[i], true
}

type scored struct {
	product  Product
	rank     int
	distance int
}

// Search returns candidates ordered best-first. An empty result is a normal
// outcome, never an error: "not found" is something the caller must handle.
func (ix *Index) Search(query string) []Product {
	q := Normalize(query)
	if q == "" {
		return nil
	}

	qTokens := strings.Fields(q)
	var hits []scored

	for _, p := range ix.products {
		s, ok := ix.score(p, q, qTokens)
		if !ok {
			continue
		}
		hits = append(hits, s)
	}

	sort.SliceStable(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		if a.rank != b.rank {
			return a.rank < b.rank
		}
		ba, bb := ix.sectorBoosts[a.product.Sector], ix.sectorBoosts[b.product.Sector]
		if ba != bb {
			return ba > bb
		}
		if a.distance != b.distance {
			return a.distance < b.distance
		}
		// Shorter names first: "TOMATE kg" before "TOMATE SECO 200G".
		return len(a.product.normName) < len(b.product.normName)
	})

	if len(hits) > searchLimit {
		hits = hits[:searchLimit]
	}

	out := make([]Product, len(hits))
	for i, h := range hits {
		out[i] = h.product
	}
	return out
}

func (ix *Index) score(p Product, q string, qTokens []string) (scored, bool) {
	name := p.normName

	if name == q {
		return scored{product: p, rank: rankExact}, true
	}
	if strings.HasPrefix(name, q) {
		return scored{product: p, rank: rankPrefix, distance: len(name) - len(q)}, true
	}
	if strings.Contains(name, q) {
		return scored{product: p, rank: rankSubstring, distance: len(name) - len(q)}, true
	}

	if containsAllTokens(name, qTokens) {
		return scored{product: p, rank: rankTokens, distance: len(name) - len(q)}, true
	}

	// Fuzzy match token-by-token so "tomat" finds TOMATE but "tomate" does
	// not drift to TORRADA.
	if d, ok := fuzzyTokenMatch(name, qTokens); ok {
		return scored{product: p, rank: rankFuzzy, distance: d}, true
	}

	return scored{}, false
}

func containsAllTokens(name string, qTokens []string) bool {
	if len(qTokens) < 2 {
		return false
	}
	for _, tok := range qTokens {
		if !strings.Contains(name, tok) {
			return false
		}
	}
	return true
}

func fuzzyTokenMatch(name string, qTokens []string) (int, bool) {
	nameTokens := strings.Fields(name)
	total := 0
	for _, qt := range qTokens {
		if len(qt) < 4 {
			// Too short to fuzz without matching half the catalog.
			return 0, false
		}
		best := -1
		for _, nt := range nameTokens {
			d := levenshtein.ComputeDistance(qt, nt)
			if best == -1 || d < best {
				best = d
			}
		}
		if best == -1 || best > maxEditDistance {
			return 0, false
		}
		total += best
	}
	return total, true
}

package weight

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"mercadinho-be/internal/catalog"

	"gopkg.in/yaml.v3"
)

// ErrNoWeightData means neither the product nor its category has an average
// unit mass on file. Recoverable: the caller asks the customer for an exact
// mass or skips the estimate.
var ErrNoWeightData = errors.New("no average weight data for product")

// Estimate is a mass-equivalent for N units of a weighed product. Approximate
// is a first-class attribute: the final value comes from the scale, and every
// consumer of the estimate must carry that caveat forward.
type Estimate struct {
	MassKg      float64
	Approximate bool
}

// Table maps unit-sold weighed products to an average mass per unit. Static
// reference data, edited in the YAML file rather than in code.
type Table struct {
	products   map[string]float64 // normalized product name -> kg per unit
	categories map[string]float64 // category -> fallback kg per unit
}

type tableFile struct {
	Products []struct {
		Name   string  `yaml:"name"`
		UnitKg float64 `yaml:"unit_kg"`
	} `yaml:"products"`
	CategoryDefaults map[string]float64 `yaml:"category_defaults"`
}

func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading weight table: %w", err)
	}

	var file tableFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing weight table: %w", err)
	}

	products := make(map[string]float64, len(file.Products))
	for _, p := range file.Products {
		products[catalog.Normalize(p.Name)] = p.UnitKg
	}

	categories := make(map[string]float64, len(file.CategoryDefaults))
	for cat, kg := range file.CategoryDefaults {
		categories[catalog.Normalize(cat)] = kg
	}

	return &Table{products: products, categories: categories}, nil
}

// NewTable builds a table from already-normalized data; used by tests and by
// callers that assemble the table programmatically.
func NewTable(products, categories map[string]float64) *Table {
	if products == nil {
		products = map[string]float64{}
	}
	if categories == nil {
		categories = map[string]float64{}
	}
	return &Table{products: products, categories: categories}
}

// Estimate returns the mass-equivalent for unitCount units of p. Lookup is
// per-product first, then the category default. Not meant for products the
// customer already ordered by mass.
func (t *Table) Estimate(p catalog.Product, unitCount int) (Estimate, error) {
	if unitCount <= 0 {
		return Estimate{}, fmt.Errorf("unit count must be positive, got %d", unitCount)
	}

	unitKg, ok := t.lookupProduct(catalog.Normalize(p.Name))
	if !ok {
		unitKg, ok = t.categories[catalog.Normalize(p.Category)]
	}
	if !ok {
		return Estimate{}, fmt.Errorf("%w: %s", ErrNoWeightData, p.Name)
	}

	return Estimate{
		MassKg:      unitKg * float64(unitCount),
		Approximate: true,
	}, nil
}

func (t *Table) lookupProduct(normName string) (float64, bool) {
	if kg, ok := t.products[normName]; ok {
		return kg, true
	}
	// Catalog names carry packaging noise ("tomate kg"); a table entry that
	// is a whole-word prefix of the catalog name still applies.
	for entry, kg := range t.products {
		if normName == entry || strings.HasPrefix(normName, entry+" ") {
			return kg, true
		}
	}
	return 0, false
}

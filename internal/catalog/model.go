package catalog

// SaleUnit tells how a product is priced at the register.
type SaleUnit string

const (
	SaleByKilo SaleUnit = "KG"
	SaleByUnit SaleUnit = "UN"
)

// Sectors whose items are weighed at the scale, so any quoted value is an
// estimate until the order is packed.
var looseWeightSectors = map[string]bool{
	"HORTI-FRUTI": true,
	"FRIGORIFICO": true,
	"ACOUGUE":     true,
	"PADARIA":     true,
}

type Product struct {
	EAN         string   `json:"ean"`
	Name        string   `json:"name"`
	Sector      string   `json:"sector"`
	Category    string   `json:"category"`
	Subcategory string   `json:"subcategory"`
	SaleUnit    SaleUnit `json:"sale_unit"`

	// DeliveryEligible is false for store-pickup-only SKUs (promo items);
	// those never resolve for the delivery channel.
	DeliveryEligible bool `json:"delivery_eligible"`

	// normName is the diacritic-stripped lowercase name, filled at index build.
	normName string
}

// LooseWeight reports whether the product's final price depends on weighing
// (produce, butchered meat, bakery by weight).
func (p Product) LooseWeight() bool {
	return looseWeightSectors[p.Sector]
}

type ListOptions struct {
	OnlyDeliverable bool
}

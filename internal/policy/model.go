package policy

import "mercadinho-be/internal/catalog"

// CartClass drives payment gating. VariableWeight carts cannot be prepaid:
// the total is only known after the scale.
type CartClass string

const (
	CartVariableWeight  CartClass = "VARIABLE_WEIGHT"
	CartFixedWeightOnly CartClass = "FIXED_WEIGHT_ONLY"
)

// Method values match what the conversational collaborator collects from the
// customer.
type Method string

const (
	MethodPix  Method = "PIX"
	MethodCash Method = "DINHEIRO"
	MethodCard Method = "CARTAO"
)

type Timing string

const (
	PayPrepaid    Timing = "PREPAID"
	PayOnDelivery Timing = "ON_DELIVERY"
)

// Decision is the outcome of evaluating a payment method against the cart.
type Decision struct {
	Method Method `json:"method"`
	Timing Timing `json:"timing"`
}

// Classify derives the cart class from the products in it. Called on every
// evaluation, never cached: any cart mutation can flip the class.
func Classify(products []catalog.Product) CartClass {
	for _, p := range products {
		if p.LooseWeight() {
			return CartVariableWeight
		}
	}
	return CartFixedWeightOnly
}

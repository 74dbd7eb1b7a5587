package order

import (
	"time"

	"github.com/google/uuid"
)

// Item is one finalized order line. Weighed goods carry the estimated mass
// and the weighing caveat in Note, since the packer confirms the value at the
// scale.
type Item struct {
	ProductName string  `json:"nome_produto"`
	Quantity    int     `json:"quantidade"`
	UnitPrice   float64 `json:"preco_unitario"`
	Note        string  `json:"observacao"`
}

// Order is the immutable snapshot produced at successful finalization and
// submitted to the order-intake collaborator exactly once.
type Order struct {
	ID            uuid.UUID `json:"id"`
	CustomerID    string    `json:"telefone"`
	Recipient     string    `json:"nome_cliente"`
	Address       string    `json:"endereco"`
	Neighborhood  string    `json:"bairro"`
	PaymentMethod string    `json:"forma"`
	PaymentTiming string    `json:"momento_pagamento"`
	ProofRef      string    `json:"comprovante,omitempty"`
	Note          string    `json:"observacao"`
	Items         []Item    `json:"itens"`
	Subtotal      float64   `json:"subtotal"`
	DeliveryFee   float64   `json:"taxa_entrega"`
	Total         float64   `json:"total"`
	CreatedAt     time.Time `json:"created_at"`
}

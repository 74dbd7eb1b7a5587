package catalog

import (
	"context"
	"database/sql"
	"fmt"
)

// Repository loads the product reference data. The engine never mutates it;
// the table is owned by the store's back office and refreshed out of band.
type Repository interface {
	ListProducts(ctx context.Context, opts ListOptions) ([]Product, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ListProducts(ctx context.Context, opts ListOptions) ([]Product, error) {
	query := `
		SELECT ean, nome, setor, categoria, subcategoria, unidade_venda, entrega_disponivel
		FROM produtos`
	if opts.OnlyDeliverable {
		query += `
		WHERE entrega_disponivel = true`
	}

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedListProducts, err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var (
			p        Product
			saleUnit string
		)
		if err := rows.Scan(
			&p.EAN,
			&p.Name,
			&p.Sector,
			&p.Category,
			&p.Subcategory,
			&saleUnit,
			&p.DeliveryEligible,
		); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFailedListProducts, err)
		}
		p.SaleUnit = parseSaleUnit(saleUnit)
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedListProducts, err)
	}

	if len(products) == 0 {
		return nil, ErrEmptyCatalog
	}
	return products, nil
}

func parseSaleUnit(s string) SaleUnit {
	switch Normalize(s) {
	case "kg", "kilo", "quilo":
		return SaleByKilo
	default:
		return SaleByUnit
	}
}

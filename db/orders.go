package db

import (
	"context"

	"licitaciones/internal/rules"
	"licitaciones/models"

	"github.com/jmoiron/sqlx"
)

// Order (Позиция тендера)

// fillSnapshot подставляет цену и себестоимость продукта, если они не заданы.
// Заодно проверяет, что продукт существует.
func fillSnapshot(ctx context.Context, q sqlx.QueryerContext, o *models.Order) error {
	p, err := getProduct(ctx, q, `SELECT `+productColumns+` FROM product WHERE id=$1`, o.ProductID)
	if err != nil {
		return err
	}
	if o.UnitPrice.IsZero() {
		o.UnitPrice = p.Price
	}
	if o.UnitCost.IsZero() {
		o.UnitCost = p.Cost
	}
	return nil
}

func insertOrder(ctx context.Context, q sqlx.QueryerContext, o *models.Order) error {
	query := `
        INSERT INTO tender_order
            (tender_id, product_id, quantity, unit_price, unit_cost)
        VALUES
            ($1, $2, $3, $4, $5)
        RETURNING id, created_at`
	err := q.QueryRowxContext(ctx, query,
		o.TenderID, o.ProductID, o.Quantity, o.UnitPrice, o.UnitCost).
		Scan(&o.ID, &o.CreatedAt)
	return MapPgError(err)
}

// CreateOrder добавляет позицию к существующему тендеру.
// Позиция с unit_price <= unit_cost отклоняется до записи.
func (s *Storage) CreateOrder(ctx context.Context, o *models.Order) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := lockTender(ctx, tx, o.TenderID); err != nil {
			return err
		}
		if err := fillSnapshot(ctx, tx, o); err != nil {
			return err
		}
		if err := rules.ValidateOrder(*o); err != nil {
			return err
		}
		return insertOrder(ctx, tx, o)
	})
}

// ListOrders позиции тендера вместе с sku и названием продукта
func (s *Storage) ListOrders(ctx context.Context, tenderID int64) ([]models.OrderLine, error) {
	query := `
        SELECT o.id, o.tender_id, o.product_id, o.quantity, o.unit_price, o.unit_cost, o.created_at,
               p.sku AS product_sku, p.name AS product_name
        FROM tender_order o
        JOIN product p ON p.id = o.product_id
        WHERE o.tender_id = $1
        ORDER BY o.id ASC`
	lines := []models.OrderLine{}
	err := s.db.SelectContext(ctx, &lines, query, tenderID)
	return lines, err
}

// DeleteOrder удаляет позицию. Последнюю позицию тендера удалить нельзя.
func (s *Storage) DeleteOrder(ctx context.Context, tenderID, orderID int64) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := lockTender(ctx, tx, tenderID); err != nil {
			return err
		}
		var exists bool
		err := tx.GetContext(ctx, &exists,
			`SELECT EXISTS (SELECT 1 FROM tender_order WHERE id=$1 AND tender_id=$2)`, orderID, tenderID)
		if err != nil {
			return err
		}
		if !exists {
			return notFound("order", orderID)
		}
		count, err := countOrders(ctx, tx, tenderID)
		if err != nil {
			return err
		}
		if err := rules.ValidateOrderDelete(count); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM tender_order WHERE id=$1`, orderID)
		return err
	})
}

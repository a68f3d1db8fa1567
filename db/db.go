package db

import (
	"context"
	"database/sql"
	"fmt"

	"licitaciones/internal/rules"
	"licitaciones/models"

	"github.com/jmoiron/sqlx"
)

type Storage struct {
	db *sqlx.DB
}

func NewStorage(db *sqlx.DB) *Storage {
	return &Storage{db: db}
}

// Ping проверяет соединение с БД
func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// withTx выполняет fn в транзакции: откат при ошибке, коммит иначе
func (s *Storage) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()
	return fn(tx)
}

func rowsAffected(res sql.Result) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// Client (Клиент)

func (s *Storage) CreateClient(ctx context.Context, c *models.Client) error {
	if err := rules.ValidateClient(*c); err != nil {
		return err
	}
	query := `
        INSERT INTO client (name)
        VALUES ($1)
        RETURNING id, created_at`
	err := s.db.QueryRowContext(ctx, query, c.Name).Scan(&c.ID, &c.CreatedAt)
	return MapPgError(err)
}

func (s *Storage) GetClient(ctx context.Context, id int64) (*models.Client, error) {
	c := &models.Client{}
	query := `SELECT id, name, created_at FROM client WHERE id=$1`
	if err := s.db.GetContext(ctx, c, query, id); err != nil {
		return nil, mapLookupError(err, "client", id)
	}
	return c, nil
}

// getOrCreateClient возвращает клиента по имени, создавая его при отсутствии
func getOrCreateClient(ctx context.Context, q sqlx.ExtContext, name string) (*models.Client, error) {
	c := &models.Client{Name: name}
	if err := rules.ValidateClient(*c); err != nil {
		return nil, err
	}
	insert := `INSERT INTO client (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`
	if _, err := q.ExecContext(ctx, insert, name); err != nil {
		return nil, MapPgError(err)
	}
	query := `SELECT id, name, created_at FROM client WHERE name=$1`
	if err := sqlx.GetContext(ctx, q, c, query, name); err != nil {
		return nil, MapPgError(err)
	}
	return c, nil
}

func (s *Storage) ListClients(ctx context.Context, limit, offset int) ([]models.Client, error) {
	query := `
        SELECT id, name, created_at FROM client
        ORDER BY name ASC
        LIMIT $1 OFFSET $2`
	clients := []models.Client{}
	err := s.db.SelectContext(ctx, &clients, query, limit, offset)
	return clients, err
}

// DeleteClient удаляет клиента; ссылки тендеров на него обнуляются (ON DELETE SET NULL)
func (s *Storage) DeleteClient(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM client WHERE id=$1`, id)
	if err != nil {
		return MapPgError(err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound("client", id)
	}
	return nil
}

// Product (Продукт)

const productColumns = `id, sku, name, price, cost`

func (s *Storage) CreateProduct(ctx context.Context, p *models.Product) error {
	if err := rules.ValidateProduct(*p); err != nil {
		return err
	}
	query := `
        INSERT INTO product (sku, name, price, cost)
        VALUES ($1, $2, $3, $4)
        RETURNING id`
	err := s.db.QueryRowContext(ctx, query, p.SKU, p.Name, p.Price, p.Cost).Scan(&p.ID)
	return MapPgError(err)
}

func (s *Storage) GetProductBySKU(ctx context.Context, sku string) (*models.Product, error) {
	return getProduct(ctx, s.db, `SELECT `+productColumns+` FROM product WHERE sku=$1`, sku)
}

func getProduct(ctx context.Context, q sqlx.QueryerContext, query string, key any) (*models.Product, error) {
	p := &models.Product{}
	if err := sqlx.GetContext(ctx, q, p, query, key); err != nil {
		return nil, mapLookupError(err, "product", key)
	}
	return p, nil
}

// UpdateProduct меняет продукт по id. Существующие позиции не затрагиваются:
// у них своя копия цены и себестоимости.
func (s *Storage) UpdateProduct(ctx context.Context, p *models.Product) error {
	if err := rules.ValidateProduct(*p); err != nil {
		return err
	}
	query := `
        UPDATE product
        SET sku=$1, name=$2, price=$3, cost=$4
        WHERE id=$5`
	res, err := s.db.ExecContext(ctx, query, p.SKU, p.Name, p.Price, p.Cost, p.ID)
	if err != nil {
		return MapPgError(err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound("product", p.ID)
	}
	return nil
}

// UpsertProduct создаёт или обновляет продукт по sku. created=true если была вставка.
func (s *Storage) UpsertProduct(ctx context.Context, p *models.Product) (created bool, err error) {
	if err := rules.ValidateProduct(*p); err != nil {
		return false, err
	}
	query := `
        INSERT INTO product (sku, name, price, cost)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (sku) DO UPDATE
            SET name = EXCLUDED.name, price = EXCLUDED.price, cost = EXCLUDED.cost
        RETURNING id, (xmax = 0) AS inserted`
	err = s.db.QueryRowContext(ctx, query, p.SKU, p.Name, p.Price, p.Cost).Scan(&p.ID, &created)
	return created, MapPgError(err)
}

func (s *Storage) ListProducts(ctx context.Context, limit, offset int) ([]models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM product ORDER BY sku ASC LIMIT $1 OFFSET $2`
	products := []models.Product{}
	err := s.db.SelectContext(ctx, &products, query, limit, offset)
	return products, err
}

// DeleteProduct удаляет продукт; запрещено, пока на него ссылается хоть одна позиция
func (s *Storage) DeleteProduct(ctx context.Context, sku string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM product WHERE sku=$1`, sku)
	if err != nil {
		return MapPgError(err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound("product", sku)
	}
	return nil
}

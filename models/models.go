package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// Сущность Клиента
type Client struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Сущность Тендера (присуждённого контракта).
// NormalizedIdentifier вычисляется из Identifier при каждом сохранении.
type Tender struct {
	ID                   int64     `db:"id" json:"id"`
	Identifier           string    `db:"identifier" json:"identifier"`
	NormalizedIdentifier string    `db:"normalized_identifier" json:"normalizedIdentifier"`
	ClientID             *int64    `db:"client_id" json:"clientId"`
	AwardedDate          time.Time `db:"awarded_date" json:"awardedDate"`
	CreatedAt            time.Time `db:"created_at" json:"createdAt"`
}

// Сущность Продукта. Price всегда строго больше Cost.
type Product struct {
	ID    int64           `db:"id" json:"id"`
	SKU   string          `db:"sku" json:"sku"`
	Name  string          `db:"name" json:"name"`
	Price decimal.Decimal `db:"price" json:"price"`
	Cost  decimal.Decimal `db:"cost" json:"cost"`
}

// Позиция тендера. UnitPrice и UnitCost фиксируются из продукта в момент создания.
type Order struct {
	ID        int64           `db:"id" json:"id"`
	TenderID  int64           `db:"tender_id" json:"tenderId"`
	ProductID int64           `db:"product_id" json:"productId"`
	Quantity  int             `db:"quantity" json:"quantity"`
	UnitPrice decimal.Decimal `db:"unit_price" json:"unitPrice"`
	UnitCost  decimal.Decimal `db:"unit_cost" json:"unitCost"`
	CreatedAt time.Time       `db:"created_at" json:"createdAt"`
}

// TenderSummary тендер вместе с именем клиента и суммарной маржой (для списков)
type TenderSummary struct {
	Tender
	ClientName  sql.NullString  `db:"client_name"`
	TotalMargin decimal.Decimal `db:"total_margin"`
}

// OrderLine позиция вместе с данными продукта
type OrderLine struct {
	Order
	ProductSKU  string `db:"product_sku"`
	ProductName string `db:"product_name"`
}

// Package importer загружает продукты, тендеры и позиции из удалённых JSON источников.
// Импорт best-effort: плохая запись логируется и пропускается, не прерывая пакет.
package importer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"licitaciones/db"
	"licitaciones/internal/metrics"
	"licitaciones/internal/rules"
	"licitaciones/models"

	"github.com/MonkyMars/gecho"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Config адреса источников. Передаются явно, глобальных адресов нет.
type Config struct {
	ProductURL string
	TenderURL  string
	OrderURL   string
	// HTTPClient по умолчанию клиент с Timeout
	HTTPClient *http.Client
	Timeout    time.Duration
}

// Store операции хранилища, которые нужны импорту
type Store interface {
	UpsertProduct(ctx context.Context, p *models.Product) (created bool, err error)
	GetProductBySKU(ctx context.Context, sku string) (*models.Product, error)
	GetTenderByIdentifier(ctx context.Context, identifier string) (*models.Tender, error)
	ResolveTender(ctx context.Context, identifier string) (*models.Tender, error)
	CreateTender(ctx context.Context, t *models.Tender, clientName string) error
	UpdateTender(ctx context.Context, t *models.Tender, clientName string) error
	CreateOrder(ctx context.Context, o *models.Order) error
}

var _ Store = (*db.Storage)(nil)

// Counts итоги по одной сущности
type Counts struct {
	Created int
	Updated int
	Skipped int
}

type Result struct {
	RunID    string
	Products Counts
	Tenders  Counts
	Orders   Counts
}

const (
	outcomeCreated = "created"
	outcomeUpdated = "updated"
	outcomeSkipped = "skipped"
)

// defaultMarkup наценка для продуктов без цены продажи
var defaultMarkup = decimal.RequireFromString("1.20")

type Importer struct {
	cfg     Config
	store   Store
	logger  *gecho.Logger
	metrics *metrics.Metrics
}

// New m может быть nil
func New(cfg Config, store Store, logger *gecho.Logger, m *metrics.Metrics) *Importer {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = gecho.NewDefaultLogger()
	}
	return &Importer{cfg: cfg, store: store, logger: logger, metrics: m}
}

// run состояние одного запуска
type run struct {
	*Importer
	id     string
	result *Result
}

// Run выполняет импорт. Ошибка возвращается только если не удалось скачать источник.
func (im *Importer) Run(ctx context.Context) (*Result, error) {
	r := &run{Importer: im, id: uuid.NewString()}
	r.result = &Result{RunID: r.id}
	r.logger.Info("import started", gecho.Field("run_id", r.id))

	products, err := fetchJSON(ctx, im.cfg.HTTPClient, im.cfg.ProductURL)
	if err != nil {
		return r.result, fmt.Errorf("fetching products: %w", err)
	}
	for _, rec := range products {
		r.importProduct(ctx, rec)
	}

	// позиции скачиваются до тендеров: новый тендер создаётся, только если у него есть позиции
	orders, err := fetchJSON(ctx, im.cfg.HTTPClient, im.cfg.OrderURL)
	if err != nil {
		return r.result, fmt.Errorf("fetching orders: %w", err)
	}
	byTender := groupOrders(orders)

	tenders, err := fetchJSON(ctx, im.cfg.HTTPClient, im.cfg.TenderURL)
	if err != nil {
		return r.result, fmt.Errorf("fetching tenders: %w", err)
	}
	for _, rec := range tenders {
		r.importTender(ctx, rec, byTender)
	}

	for _, rec := range orders {
		r.importOrder(ctx, rec)
	}

	r.logger.Info("import finished",
		gecho.Field("run_id", r.id),
		gecho.Field("products", r.result.Products),
		gecho.Field("tenders", r.result.Tenders),
		gecho.Field("orders", r.result.Orders),
	)
	return r.result, nil
}

// groupOrders позиции по нормализованному идентификатору тендера
func groupOrders(orders []any) map[string][]any {
	out := make(map[string][]any)
	for _, rec := range orders {
		key := rules.Normalize(asString(field(rec, orderTenderPaths)))
		out[key] = append(out[key], rec)
	}
	return out
}

func (r *run) count(c *Counts, entity, outcome string) {
	switch outcome {
	case outcomeCreated:
		c.Created++
	case outcomeUpdated:
		c.Updated++
	case outcomeSkipped:
		c.Skipped++
	}
	r.metrics.ImportRecord(entity, outcome)
}

func (r *run) skip(c *Counts, entity string, rec any, msg string, err error) {
	errText := ""
	if err != nil {
		errText = err.Error()
	}
	r.logger.Warn(msg,
		gecho.Field("run_id", r.id),
		gecho.Field("entity", entity),
		gecho.Field("record", rec),
		gecho.Field("error", errText),
	)
	r.count(c, entity, outcomeSkipped)
}

// amountOf квантует сумму и ограничивает её диапазоном NUMERIC(12,2)
func (r *run) amountOf(entity, name string, d decimal.Decimal) decimal.Decimal {
	d = rules.Quantize(d)
	clamped, ok := rules.Clamp(d)
	if ok {
		r.logger.Warn("amount out of range, clamped",
			gecho.Field("run_id", r.id),
			gecho.Field("entity", entity),
			gecho.Field("field", name),
			gecho.Field("value", d.String()),
			gecho.Field("clamped", clamped.String()),
		)
	}
	return clamped
}

func (r *run) importProduct(ctx context.Context, rec any) {
	const entity = "product"
	c := &r.result.Products

	sku := asString(field(rec, productSKUPaths))
	if sku == "" {
		r.skip(c, entity, rec, "product without sku", nil)
		return
	}
	cost, err := asDecimal(field(rec, productCostPaths))
	if err != nil {
		r.skip(c, entity, rec, "invalid product cost", err)
		return
	}
	cost = r.amountOf(entity, "cost", cost)

	var price decimal.Decimal
	if raw := field(rec, productPricePaths); raw == nil {
		price = cost.Mul(defaultMarkup)
	} else if price, err = asDecimal(raw); err != nil {
		r.skip(c, entity, rec, "invalid product price", err)
		return
	}
	price = r.amountOf(entity, "price", price)

	p := &models.Product{
		SKU:   sku,
		Name:  asString(field(rec, productNamePaths)),
		Price: price,
		Cost:  cost,
	}
	created, err := r.store.UpsertProduct(ctx, p)
	if err != nil {
		r.skip(c, entity, rec, "cannot import product", err)
		return
	}
	if created {
		r.count(c, entity, outcomeCreated)
	} else {
		r.count(c, entity, outcomeUpdated)
	}
}

func (r *run) importTender(ctx context.Context, rec any, byTender map[string][]any) {
	const entity = "tender"
	c := &r.result.Tenders

	identifier := asString(field(rec, tenderIdentifierPaths))
	if identifier == "" {
		r.skip(c, entity, rec, "tender without identifier", nil)
		return
	}
	awarded, err := asDate(field(rec, tenderDatePaths))
	if err != nil {
		r.skip(c, entity, rec, "invalid tender date", err)
		return
	}
	clientName := asString(field(rec, tenderClientPaths))

	existing, err := r.store.GetTenderByIdentifier(ctx, identifier)
	switch {
	case err == nil:
		existing.AwardedDate = awarded
		if clientName == "" {
			existing.ClientID = nil
		}
		// у сохранённого тендера должна быть хотя бы одна позиция
		if err := r.store.UpdateTender(ctx, existing, clientName); err != nil {
			r.skip(c, entity, rec, "cannot update tender", err)
			return
		}
		r.count(c, entity, outcomeUpdated)

	case errors.Is(err, db.ErrNotFound):
		if len(byTender[rules.Normalize(identifier)]) == 0 {
			r.skip(c, entity, rec, "skipping tender without orders", nil)
			return
		}
		// позиции добавятся следующим шагом
		t := &models.Tender{Identifier: identifier, AwardedDate: awarded}
		if err := r.store.CreateTender(ctx, t, clientName); err != nil {
			r.skip(c, entity, rec, "cannot create tender", err)
			return
		}
		r.count(c, entity, outcomeCreated)

	default:
		r.skip(c, entity, rec, "cannot look up tender", err)
	}
}

func (r *run) importOrder(ctx context.Context, rec any) {
	const entity = "order"
	c := &r.result.Orders

	tenderID := asString(field(rec, orderTenderPaths))
	productKey := asString(field(rec, orderProductPaths))
	// количество по умолчанию только при отсутствии ключа: 0 и отрицательные отклоняются правилами
	quantity, err := asInt(present(rec, orderQuantityPaths), 1)
	if err != nil {
		r.skip(c, entity, rec, "invalid order quantity", err)
		return
	}
	rawPrice, err := asDecimal(field(rec, orderPricePaths))
	if err != nil {
		r.skip(c, entity, rec, "invalid order price", err)
		return
	}
	unitPrice := r.amountOf(entity, "unit_price", rawPrice)

	tender, err := r.store.ResolveTender(ctx, tenderID)
	if err != nil {
		r.skip(c, entity, rec, "tender not found", err)
		return
	}
	product, err := r.store.GetProductBySKU(ctx, productKey)
	if err != nil {
		r.skip(c, entity, rec, "product not found", err)
		return
	}

	if !unitPrice.IsPositive() {
		unitPrice = product.Price
	}
	o := &models.Order{
		TenderID:  tender.ID,
		ProductID: product.ID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		UnitCost:  product.Cost,
	}
	if err := r.store.CreateOrder(ctx, o); err != nil {
		r.skip(c, entity, rec, "cannot import order", err)
		return
	}
	r.count(c, entity, outcomeCreated)
}

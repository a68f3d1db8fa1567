package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"licitaciones/db"
	"licitaciones/internal/rules"
	"licitaciones/models"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// tenderView тендер с позициями и посчитанными маржами, общий для JSON и HTML
type tenderView struct {
	Tender      models.Tender
	Client      string
	TotalMargin decimal.Decimal
	Items       []itemView
}

type itemView struct {
	models.OrderLine
	Margin           decimal.Decimal
	MarginPercentage decimal.Decimal
}

func newItemView(line models.OrderLine) itemView {
	return itemView{
		OrderLine:        line,
		Margin:           rules.Margin(line.Order),
		MarginPercentage: rules.MarginPercentage(line.Order),
	}
}

// loadTender ищет тендер по точному, а затем по нормализованному идентификатору
// и собирает его представление
func (h *Handler) loadTender(ctx context.Context, identifier string) (*tenderView, error) {
	t, err := h.Store.ResolveTender(ctx, identifier)
	if err != nil {
		return nil, err
	}
	return h.tenderView(ctx, t)
}

func (h *Handler) tenderView(ctx context.Context, t *models.Tender) (*tenderView, error) {
	summary, err := h.Store.GetTenderSummary(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	lines, err := h.Store.ListOrders(ctx, t.ID)
	if err != nil {
		return nil, err
	}

	v := &tenderView{Tender: summary.Tender, Client: summary.ClientName.String}
	orders := make([]models.Order, 0, len(lines))
	v.Items = make([]itemView, 0, len(lines))
	for _, l := range lines {
		orders = append(orders, l.Order)
		v.Items = append(v.Items, newItemView(l))
	}
	v.TotalMargin = rules.TotalMargin(orders)
	return v, nil
}

// tenderInput данные для создания тендера, уже разобранные из JSON или формы
type tenderInput struct {
	Identifier  string
	Client      string
	AwardedDate time.Time
	Items       []itemInput
}

type itemInput struct {
	// Field префикс ключей ошибок для этой позиции
	Field      string
	ProductSKU string
	Quantity   int
	UnitPrice  decimal.Decimal
	UnitCost   decimal.Decimal
}

// createTender создаёт тендер вместе с позициями одной транзакцией.
// Нулевые цена и себестоимость позиции берутся из продукта.
func (h *Handler) createTender(ctx context.Context, in tenderInput) (*models.Tender, error) {
	orders := make([]models.Order, 0, len(in.Items))
	for _, it := range in.Items {
		p, err := h.lookupProduct(ctx, it.ProductSKU, it.Field+"product_sku")
		if err != nil {
			return nil, err
		}
		orders = append(orders, models.Order{
			ProductID: p.ID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			UnitCost:  it.UnitCost,
		})
	}

	t := &models.Tender{Identifier: in.Identifier, AwardedDate: in.AwardedDate}
	if err := h.Store.CreateTenderWithOrders(ctx, t, in.Client, orders); err != nil {
		return nil, err
	}
	return t, nil
}

// lookupProduct неизвестный sku в запросе - ошибка поля, а не 404
func (h *Handler) lookupProduct(ctx context.Context, sku, field string) (*models.Product, error) {
	p, err := h.Store.GetProductBySKU(ctx, sku)
	if errors.Is(err, db.ErrNotFound) {
		return nil, newRequestError(field, fmt.Sprintf("unknown product %q", sku))
	}
	return p, err
}

// JSON представления

type tenderResponse struct {
	Identifier  string `json:"identifier"`
	Client      string `json:"client"`
	AwardedDate string `json:"awarded_date"`
	TotalMargin string `json:"total_margin"`
}

type tenderDetailResponse struct {
	tenderResponse
	Items []itemResponse `json:"items"`
}

type itemResponse struct {
	ID               int64  `json:"id"`
	ProductSKU       string `json:"product_sku"`
	ProductName      string `json:"product_name"`
	Quantity         int    `json:"quantity"`
	UnitPrice        string `json:"unit_price"`
	UnitCost         string `json:"unit_cost"`
	Margin           string `json:"margin"`
	MarginPercentage string `json:"margin_percentage"`
}

type productResponse struct {
	SKU   string `json:"sku"`
	Name  string `json:"name"`
	Price string `json:"price"`
	Cost  string `json:"cost"`
}

type clientResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func amount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func newTenderResponse(s models.TenderSummary) tenderResponse {
	return tenderResponse{
		Identifier:  s.Identifier,
		Client:      s.ClientName.String,
		AwardedDate: s.AwardedDate.Format(dateLayout),
		TotalMargin: amount(s.TotalMargin),
	}
}

func newItemResponse(v itemView) itemResponse {
	return itemResponse{
		ID:               v.ID,
		ProductSKU:       v.ProductSKU,
		ProductName:      v.ProductName,
		Quantity:         v.Quantity,
		UnitPrice:        amount(v.UnitPrice),
		UnitCost:         amount(v.UnitCost),
		Margin:           amount(v.Margin),
		MarginPercentage: amount(v.MarginPercentage),
	}
}

func (v *tenderView) response() tenderDetailResponse {
	resp := tenderDetailResponse{
		tenderResponse: tenderResponse{
			Identifier:  v.Tender.Identifier,
			Client:      v.Client,
			AwardedDate: v.Tender.AwardedDate.Format(dateLayout),
			TotalMargin: amount(v.TotalMargin),
		},
		Items: make([]itemResponse, 0, len(v.Items)),
	}
	for _, it := range v.Items {
		resp.Items = append(resp.Items, newItemResponse(it))
	}
	return resp
}

func newProductResponse(p models.Product) productResponse {
	return productResponse{SKU: p.SKU, Name: p.Name, Price: amount(p.Price), Cost: amount(p.Cost)}
}

package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"licitaciones/db"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type PaginationParams struct {
	Limit  int
	Offset int
}

// parsePaginationParams парсит limit и offset из query, с дефолтами и ограничениями
func parsePaginationParams(r *http.Request) PaginationParams {
	var params PaginationParams
	limitStr := r.URL.Query().Get("limit")
	offsetStr := r.URL.Query().Get("offset")

	params.Limit = 5 // дефолт
	params.Offset = 0

	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 50 {
			params.Limit = l
		}
	}
	if offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			params.Offset = o
		}
	}
	return params
}

type itemRequest struct {
	ProductSKU string           `json:"product_sku" validate:"required,max=64"`
	Quantity   int              `json:"quantity" validate:"gt=0"`
	UnitPrice  *decimal.Decimal `json:"unit_price"`
	UnitCost   *decimal.Decimal `json:"unit_cost"`
}

func (it itemRequest) input(field string) itemInput {
	in := itemInput{Field: field, ProductSKU: it.ProductSKU, Quantity: it.Quantity}
	if it.UnitPrice != nil {
		in.UnitPrice = *it.UnitPrice
	}
	if it.UnitCost != nil {
		in.UnitCost = *it.UnitCost
	}
	return in
}

type createTenderRequest struct {
	Identifier  string        `json:"identifier" validate:"required,max=128"`
	Client      string        `json:"client" validate:"max=256"`
	AwardedDate string        `json:"awarded_date" validate:"required,datetime=2006-01-02"`
	Items       []itemRequest `json:"items" validate:"dive"`
}

// updateTenderRequest частичное обновление: отсутствующие поля не меняются,
// пустой client отвязывает клиента
type updateTenderRequest struct {
	Identifier  *string `json:"identifier" validate:"omitempty,min=1,max=128"`
	Client      *string `json:"client" validate:"omitempty,max=256"`
	AwardedDate *string `json:"awarded_date" validate:"omitempty,datetime=2006-01-02"`
}

// GetTendersHandler возвращает список тендеров с суммарной маржой.
// Фильтр по имени клиента, сортировка по awarded_date, identifier или total_margin.
func (h *Handler) GetTendersHandler(w http.ResponseWriter, r *http.Request) {
	params := parsePaginationParams(r)

	sort := strings.TrimSpace(r.URL.Query().Get("sort"))
	if sort != "" && !db.ValidTenderSort(sort) {
		http.Error(w, "Invalid sort parameter", http.StatusBadRequest)
		return
	}

	filter := db.TenderFilter{
		ClientName: strings.TrimSpace(r.URL.Query().Get("client")),
		Sort:       sort,
		Limit:      params.Limit,
		Offset:     params.Offset,
	}
	tenders, err := h.Store.ListTenders(r.Context(), filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := make([]tenderResponse, 0, len(tenders))
	for _, t := range tenders {
		resp = append(resp, newTenderResponse(t))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetTenderHandler детали тендера с позициями
func (h *Handler) GetTenderHandler(w http.ResponseWriter, r *http.Request) {
	view, err := h.loadTender(r.Context(), chi.URLParam(r, "identifier"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view.response())
}

// CreateTenderHandler обрабатывает POST /api/tenders: тендер и позиции создаются вместе
func (h *Handler) CreateTenderHandler(w http.ResponseWriter, r *http.Request) {
	req, err := decodeBody[createTenderRequest](w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	awarded, _ := time.Parse(dateLayout, req.AwardedDate)
	in := tenderInput{
		Identifier:  strings.TrimSpace(req.Identifier),
		Client:      strings.TrimSpace(req.Client),
		AwardedDate: awarded,
	}
	for i, it := range req.Items {
		in.Items = append(in.Items, it.input("items["+strconv.Itoa(i)+"]."))
	}

	t, err := h.createTender(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	view, err := h.tenderView(r.Context(), t)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, view.response())
}

// UpdateTenderHandler обрабатывает PATCH /api/tenders/{identifier}
func (h *Handler) UpdateTenderHandler(w http.ResponseWriter, r *http.Request) {
	req, err := decodeBody[updateTenderRequest](w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	t, err := h.Store.ResolveTender(r.Context(), chi.URLParam(r, "identifier"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if req.Identifier != nil {
		t.Identifier = strings.TrimSpace(*req.Identifier)
	}
	if req.AwardedDate != nil {
		t.AwardedDate, _ = time.Parse(dateLayout, *req.AwardedDate)
	}
	var clientName string
	if req.Client != nil {
		clientName = strings.TrimSpace(*req.Client)
		if clientName == "" {
			t.ClientID = nil
		}
	}

	if err := h.Store.UpdateTender(r.Context(), t, clientName); err != nil {
		h.writeError(w, r, err)
		return
	}
	view, err := h.tenderView(r.Context(), t)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view.response())
}

// DeleteTenderHandler удаляет тендер вместе с позициями
func (h *Handler) DeleteTenderHandler(w http.ResponseWriter, r *http.Request) {
	t, err := h.Store.ResolveTender(r.Context(), chi.URLParam(r, "identifier"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.Store.DeleteTender(r.Context(), t.ID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

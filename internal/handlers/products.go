package handlers

import (
	"net/http"
	"strings"

	"licitaciones/models"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type productRequest struct {
	SKU   string          `json:"sku" validate:"required,max=64"`
	Name  string          `json:"name" validate:"required,max=256"`
	Price decimal.Decimal `json:"price"`
	Cost  decimal.Decimal `json:"cost"`
}

func (h *Handler) GetProductsHandler(w http.ResponseWriter, r *http.Request) {
	params := parsePaginationParams(r)
	products, err := h.Store.ListProducts(r.Context(), params.Limit, params.Offset)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	resp := make([]productResponse, 0, len(products))
	for _, p := range products {
		resp = append(resp, newProductResponse(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) CreateProductHandler(w http.ResponseWriter, r *http.Request) {
	req, err := decodeBody[productRequest](w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	p := &models.Product{
		SKU:   strings.TrimSpace(req.SKU),
		Name:  strings.TrimSpace(req.Name),
		Price: req.Price,
		Cost:  req.Cost,
	}
	if err := h.Store.CreateProduct(r.Context(), p); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newProductResponse(*p))
}

func (h *Handler) GetProductHandler(w http.ResponseWriter, r *http.Request) {
	p, err := h.Store.GetProductBySKU(r.Context(), chi.URLParam(r, "sku"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newProductResponse(*p))
}

// UpdateProductHandler заменяет данные продукта. Цены уже созданных позиций не меняются.
func (h *Handler) UpdateProductHandler(w http.ResponseWriter, r *http.Request) {
	req, err := decodeBody[productRequest](w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	p, err := h.Store.GetProductBySKU(r.Context(), chi.URLParam(r, "sku"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	p.SKU = strings.TrimSpace(req.SKU)
	p.Name = strings.TrimSpace(req.Name)
	p.Price = req.Price
	p.Cost = req.Cost
	if err := h.Store.UpdateProduct(r.Context(), p); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newProductResponse(*p))
}

// DeleteProductHandler удаляет продукт, если на него не ссылается ни одна позиция
func (h *Handler) DeleteProductHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteProduct(r.Context(), chi.URLParam(r, "sku")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

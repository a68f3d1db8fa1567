package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"licitaciones/models"

	"github.com/go-chi/chi/v5"
)

// AddTenderItemHandler добавляет одну позицию к существующему тендеру
func (h *Handler) AddTenderItemHandler(w http.ResponseWriter, r *http.Request) {
	req, err := decodeBody[itemRequest](w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	t, err := h.Store.ResolveTender(r.Context(), chi.URLParam(r, "identifier"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	in := req.input("")
	p, err := h.lookupProduct(r.Context(), strings.TrimSpace(in.ProductSKU), "product_sku")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	o := &models.Order{
		TenderID:  t.ID,
		ProductID: p.ID,
		Quantity:  in.Quantity,
		UnitPrice: in.UnitPrice,
		UnitCost:  in.UnitCost,
	}
	if err := h.Store.CreateOrder(r.Context(), o); err != nil {
		h.writeError(w, r, err)
		return
	}

	line := models.OrderLine{Order: *o, ProductSKU: p.SKU, ProductName: p.Name}
	writeJSON(w, http.StatusCreated, newItemResponse(newItemView(line)))
}

// DeleteTenderItemHandler удаляет позицию. Последнюю позицию тендера удалить нельзя.
func (h *Handler) DeleteTenderItemHandler(w http.ResponseWriter, r *http.Request) {
	orderIDStr := chi.URLParam(r, "orderId")
	orderID, err := strconv.ParseInt(orderIDStr, 10, 64)
	if err != nil || orderID <= 0 {
		http.Error(w, "Invalid orderId", http.StatusBadRequest)
		return
	}

	t, err := h.Store.ResolveTender(r.Context(), chi.URLParam(r, "identifier"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.Store.DeleteOrder(r.Context(), t.ID, orderID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

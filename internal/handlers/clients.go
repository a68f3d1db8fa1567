package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"licitaciones/models"

	"github.com/go-chi/chi/v5"
)

type clientRequest struct {
	Name string `json:"name" validate:"required,max=256"`
}

func (h *Handler) GetClientsHandler(w http.ResponseWriter, r *http.Request) {
	params := parsePaginationParams(r)
	clients, err := h.Store.ListClients(r.Context(), params.Limit, params.Offset)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	resp := make([]clientResponse, 0, len(clients))
	for _, c := range clients {
		resp = append(resp, clientResponse{ID: c.ID, Name: c.Name})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) CreateClientHandler(w http.ResponseWriter, r *http.Request) {
	req, err := decodeBody[clientRequest](w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	c := &models.Client{Name: strings.TrimSpace(req.Name)}
	if err := h.Store.CreateClient(r.Context(), c); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, clientResponse{ID: c.ID, Name: c.Name})
}

func (h *Handler) GetClientHandler(w http.ResponseWriter, r *http.Request) {
	clientID, ok := parseClientID(w, r)
	if !ok {
		return
	}
	c, err := h.Store.GetClient(r.Context(), clientID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, clientResponse{ID: c.ID, Name: c.Name})
}

func parseClientID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	clientIDStr := chi.URLParam(r, "clientId")
	clientID, err := strconv.ParseInt(clientIDStr, 10, 64)
	if err != nil || clientID <= 0 {
		http.Error(w, "Invalid clientId", http.StatusBadRequest)
		return 0, false
	}
	return clientID, true
}

// DeleteClientHandler удаляет клиента; его тендеры остаются без клиента
func (h *Handler) DeleteClientHandler(w http.ResponseWriter, r *http.Request) {
	clientID, ok := parseClientID(w, r)
	if !ok {
		return
	}
	if err := h.Store.DeleteClient(r.Context(), clientID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

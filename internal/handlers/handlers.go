package handlers

import (
	"encoding/json"
	"errors"
	"html/template"
	"net/http"

	"licitaciones/db"
	"licitaciones/internal/rules"

	"github.com/MonkyMars/gecho"
)

// Handler оборачивает Storage для доступа к данным
type Handler struct {
	Store    StorageInterface
	Logger   *gecho.Logger
	Currency string

	pages *template.Template
}

// NewHandler создает новый Handler. currency - код валюты для HTML страниц.
func NewHandler(store StorageInterface, logger *gecho.Logger, currency string) *Handler {
	if logger == nil {
		logger = gecho.NewDefaultLogger()
	}
	h := &Handler{Store: store, Logger: logger, Currency: currency}
	h.pages = parsePages(currency)
	return h
}

// PingHandler отвечает "ok" для проверки сервера
func (h *Handler) PingHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Ping(r.Context()); err != nil {
		h.Logger.Error("ping failed", gecho.Field("error", err.Error()))
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// nonFieldKey ключ для ошибок, не относящихся к конкретному полю
const nonFieldKey = "__all__"

type errorResponse struct {
	Errors map[string][]string `json:"errors,omitempty"`
	Error  string              `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// errorFields раскладывает ошибку валидации по полям. ok=false если это не ошибка валидации.
func errorFields(err error) (fields map[string][]string, ok bool) {
	var re *RequestError
	if errors.As(err, &re) {
		return re.Fields, true
	}
	var ve *rules.ValidationError
	if errors.As(err, &ve) {
		key := ve.Field
		if key == "" {
			key = nonFieldKey
		}
		return map[string][]string{key: {ve.Message}}, true
	}
	return nil, false
}

// writeError единственное место, где ошибки превращаются в HTTP статусы
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if fields, ok := errorFields(err); ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Errors: fields})
		return
	}
	switch {
	case errors.Is(err, db.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, db.ErrConflict), errors.Is(err, db.ErrProtected), errors.Is(err, db.ErrAmbiguous):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	default:
		h.Logger.Error("request failed",
			gecho.Field("method", r.Method),
			gecho.Field("path", r.URL.Path),
			gecho.Field("error", err.Error()),
		)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

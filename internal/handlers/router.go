package handlers

import (
	"net/http"

	"licitaciones/internal/config"
	"licitaciones/internal/metrics"

	"github.com/MonkyMars/gecho"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

// NewRouter собирает маршруты API, HTML страниц и метрик.
// m может быть nil, тогда метрики не собираются.
func NewRouter(h *Handler, m *metrics.Metrics, corsCfg config.CorsConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(gecho.Handlers.CreateLoggingMiddleware(h.Logger))
	r.Use(cors.New(cors.Options{
		AllowedOrigins: corsCfg.AllowedOrigins,
		AllowedMethods: corsCfg.AllowedMethods,
		AllowedHeaders: corsCfg.AllowedHeaders,
	}).Handler)
	if m != nil {
		r.Use(m.Middleware)
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", h.PingHandler)
		// тендеры
		r.Get("/tenders", h.GetTendersHandler)
		r.Post("/tenders", h.CreateTenderHandler)
		r.Get("/tenders/{identifier}", h.GetTenderHandler)
		r.Patch("/tenders/{identifier}", h.UpdateTenderHandler)
		r.Delete("/tenders/{identifier}", h.DeleteTenderHandler)
		r.Post("/tenders/{identifier}/items", h.AddTenderItemHandler)
		r.Delete("/tenders/{identifier}/items/{orderId}", h.DeleteTenderItemHandler)
		// продукты
		r.Get("/products", h.GetProductsHandler)
		r.Post("/products", h.CreateProductHandler)
		r.Get("/products/{sku}", h.GetProductHandler)
		r.Put("/products/{sku}", h.UpdateProductHandler)
		r.Delete("/products/{sku}", h.DeleteProductHandler)
		// клиенты
		r.Get("/clients", h.GetClientsHandler)
		r.Post("/clients", h.CreateClientHandler)
		r.Get("/clients/{clientId}", h.GetClientHandler)
		r.Delete("/clients/{clientId}", h.DeleteClientHandler)
	})

	r.Get("/tenders", h.TenderListPage)
	r.Get("/tenders/new", h.NewTenderPage)
	r.Post("/tenders/new", h.CreateTenderPage)
	r.Get("/tenders/{identifier}", h.TenderDetailPage)

	return r
}

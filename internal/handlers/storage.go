package handlers

import (
	"context"

	"licitaciones/db"
	"licitaciones/models"
)

// StorageInterface операции хранилища, которые нужны обработчикам
type StorageInterface interface {
	Ping(ctx context.Context) error

	CreateClient(ctx context.Context, c *models.Client) error
	GetClient(ctx context.Context, id int64) (*models.Client, error)
	ListClients(ctx context.Context, limit, offset int) ([]models.Client, error)
	DeleteClient(ctx context.Context, id int64) error

	CreateProduct(ctx context.Context, p *models.Product) error
	GetProductBySKU(ctx context.Context, sku string) (*models.Product, error)
	UpdateProduct(ctx context.Context, p *models.Product) error
	ListProducts(ctx context.Context, limit, offset int) ([]models.Product, error)
	DeleteProduct(ctx context.Context, sku string) error

	CreateTenderWithOrders(ctx context.Context, t *models.Tender, clientName string, orders []models.Order) error
	ResolveTender(ctx context.Context, identifier string) (*models.Tender, error)
	GetTenderSummary(ctx context.Context, id int64) (*models.TenderSummary, error)
	UpdateTender(ctx context.Context, t *models.Tender, clientName string) error
	DeleteTender(ctx context.Context, id int64) error
	ListTenders(ctx context.Context, f db.TenderFilter) ([]models.TenderSummary, error)
	CountTenders(ctx context.Context, f db.TenderFilter) (int, error)

	CreateOrder(ctx context.Context, o *models.Order) error
	ListOrders(ctx context.Context, tenderID int64) ([]models.OrderLine, error)
	DeleteOrder(ctx context.Context, tenderID, orderID int64) error
}

var _ StorageInterface = (*db.Storage)(nil)

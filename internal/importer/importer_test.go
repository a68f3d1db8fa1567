package importer

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"licitaciones/db"
	"licitaciones/internal/metrics"
	"licitaciones/internal/rules"
	"licitaciones/models"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore хранилище в памяти с теми же правилами, что и db.Storage
type fakeStore struct {
	nextID   int64
	products map[string]*models.Product
	tenders  []*models.Tender
	clients  map[string]int64
	orders   []models.Order
}

func newFakeStore() *fakeStore {
	return &fakeStore{products: map[string]*models.Product{}, clients: map[string]int64{}}
}

func (s *fakeStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *fakeStore) UpsertProduct(ctx context.Context, p *models.Product) (bool, error) {
	if err := rules.ValidateProduct(*p); err != nil {
		return false, err
	}
	if old, ok := s.products[p.SKU]; ok {
		p.ID = old.ID
		cp := *p
		s.products[p.SKU] = &cp
		return false, nil
	}
	p.ID = s.id()
	cp := *p
	s.products[p.SKU] = &cp
	return true, nil
}

func (s *fakeStore) GetProductBySKU(ctx context.Context, sku string) (*models.Product, error) {
	p, ok := s.products[sku]
	if !ok {
		return nil, fmt.Errorf("product %s: %w", sku, db.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (s *fakeStore) GetTenderByIdentifier(ctx context.Context, identifier string) (*models.Tender, error) {
	for _, t := range s.tenders {
		if t.Identifier == identifier {
			cp := *t
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("tender %s: %w", identifier, db.ErrNotFound)
}

func (s *fakeStore) ResolveTender(ctx context.Context, identifier string) (*models.Tender, error) {
	if t, err := s.GetTenderByIdentifier(ctx, identifier); err == nil {
		return t, nil
	}
	for _, t := range s.tenders {
		if t.NormalizedIdentifier == rules.Normalize(identifier) {
			cp := *t
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("tender %s: %w", identifier, db.ErrNotFound)
}

func (s *fakeStore) attachClient(t *models.Tender, name string) {
	if name == "" {
		return
	}
	id, ok := s.clients[name]
	if !ok {
		id = s.id()
		s.clients[name] = id
	}
	t.ClientID = &id
}

func (s *fakeStore) CreateTender(ctx context.Context, t *models.Tender, clientName string) error {
	if err := rules.ValidateTenderCreate(*t); err != nil {
		return err
	}
	s.attachClient(t, clientName)
	t.ID = s.id()
	t.NormalizedIdentifier = rules.Normalize(t.Identifier)
	cp := *t
	s.tenders = append(s.tenders, &cp)
	return nil
}

func (s *fakeStore) ordersOf(tenderID int64) []models.Order {
	var out []models.Order
	for _, o := range s.orders {
		if o.TenderID == tenderID {
			out = append(out, o)
		}
	}
	return out
}

func (s *fakeStore) UpdateTender(ctx context.Context, t *models.Tender, clientName string) error {
	if err := rules.ValidateTenderUpdate(*t, len(s.ordersOf(t.ID))); err != nil {
		return err
	}
	s.attachClient(t, clientName)
	for i, old := range s.tenders {
		if old.ID == t.ID {
			cp := *t
			s.tenders[i] = &cp
		}
	}
	return nil
}

func (s *fakeStore) CreateOrder(ctx context.Context, o *models.Order) error {
	if err := rules.ValidateOrder(*o); err != nil {
		return err
	}
	o.ID = s.id()
	s.orders = append(s.orders, *o)
	return nil
}

// sampleServer отдаёт три источника и считает обращения к каждому
type sampleServer struct {
	*httptest.Server
	mu   sync.Mutex
	hits map[string]int
}

func newSampleServer(t *testing.T, bodies map[string]string) *sampleServer {
	s := &sampleServer{hits: map[string]int{}}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[r.URL.Path]++
		s.mu.Unlock()
		body, ok := bodies[r.URL.Path]
		if !ok {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *sampleServer) config() Config {
	return Config{
		ProductURL: s.URL + "/products",
		TenderURL:  s.URL + "/tenders",
		OrderURL:   s.URL + "/orders",
	}
}

const sampleProducts = `[
    {"sku": "P1", "title": "Widget", "cost": 60, "price": 100},
    {"product_id": "P2", "name": "Gadget", "cost": "10"},
    {"sku": "P3", "title": "Broken", "cost": 5, "price": 4},
    {"title": "No sku", "cost": 1, "price": 2}
]`

const sampleTenders = `[
    {"id": "T-001", "client": "ACME", "creation_date": "2024-05-01"},
    {"identifier": "T-002", "awarded_date": "2024-05-02T10:00:00Z"},
    {"id": "T-003", "creation_date": "yesterday"},
    {"id": 4, "client": "Globex", "creation_date": "2024-05-04T08:30:00+02:00"}
]`

const sampleOrders = `[
    {"tender_id": "T001", "product_id": "P1", "quantity": 3, "price": 0},
    {"tender_identifier": "T-001", "sku": "P2", "quantity": 2, "unit_price": 12.345},
    {"tender_id": 4, "product_sku": "P1", "price": 1e15},
    {"tender_id": "T-999", "product_id": "P1"},
    {"tender_id": "T-001", "product_id": "NOPE"},
    {"tender_id": "T-001", "product_id": "P1", "price": "50"},
    {"tender_id": "T-001", "product_id": "P1", "quantity": "two"}
]`

func sampleBodies() map[string]string {
	return map[string]string{
		"/products": sampleProducts,
		"/tenders":  sampleTenders,
		"/orders":   sampleOrders,
	}
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestRunImportsSampleData(t *testing.T) {
	srv := newSampleServer(t, sampleBodies())
	store := newFakeStore()
	m := metrics.New()

	res, err := New(srv.config(), store, nil, m).Run(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, res.RunID)

	assert.Equal(t, Counts{Created: 2, Skipped: 2}, res.Products)
	assert.Equal(t, Counts{Created: 2, Skipped: 2}, res.Tenders)
	assert.Equal(t, Counts{Created: 3, Skipped: 4}, res.Orders)

	// цена по умолчанию: себестоимость + 20%
	p2, err := store.GetProductBySKU(context.Background(), "P2")
	require.NoError(t, err)
	assert.True(t, d("12.00").Equal(p2.Price), p2.Price.String())

	t1, err := store.GetTenderByIdentifier(context.Background(), "T-001")
	require.NoError(t, err)
	require.NotNil(t, t1.ClientID)
	assert.Equal(t, "2024-05-01", t1.AwardedDate.Format("2006-01-02"))

	orders := store.ordersOf(t1.ID)
	require.Len(t, orders, 2)
	// нулевая цена заменяется ценой продукта
	assert.True(t, d("100").Equal(orders[0].UnitPrice))
	assert.True(t, d("60").Equal(orders[0].UnitCost))
	// 12.345 -> 12.34 (банковское округление)
	assert.True(t, d("12.34").Equal(orders[1].UnitPrice), orders[1].UnitPrice.String())
	assert.True(t, d("124.68").Equal(rules.TotalMargin(orders)), rules.TotalMargin(orders).String())

	t4, err := store.GetTenderByIdentifier(context.Background(), "4")
	require.NoError(t, err)
	assert.Equal(t, "2024-05-04", t4.AwardedDate.Format("2006-01-02"))
	big := store.ordersOf(t4.ID)
	require.Len(t, big, 1)
	assert.True(t, rules.MaxAmount.Equal(big[0].UnitPrice), big[0].UnitPrice.String())
	assert.Equal(t, 1, big[0].Quantity)

	// позиции скачиваются один раз
	assert.Equal(t, 1, srv.hits["/orders"])

	assert.Equal(t, 3.0, testutil.ToFloat64(m.ImportRecords.WithLabelValues("order", "created")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ImportRecords.WithLabelValues("tender", "skipped")))
}

func TestRunIsIdempotentForProductsAndTenders(t *testing.T) {
	srv := newSampleServer(t, sampleBodies())
	store := newFakeStore()
	im := New(srv.config(), store, nil, nil)

	_, err := im.Run(context.Background())
	require.NoError(t, err)

	res, err := im.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Counts{Updated: 2, Skipped: 2}, res.Products)
	assert.Equal(t, Counts{Updated: 2, Skipped: 2}, res.Tenders)
	assert.Len(t, store.products, 2)
	assert.Len(t, store.tenders, 2)
}

func TestRunUpdateOfEmptyTenderIsSkipped(t *testing.T) {
	srv := newSampleServer(t, map[string]string{
		"/products": `[]`,
		"/tenders":  `[{"id": "T-010", "creation_date": "2024-01-01"}]`,
		"/orders":   `[]`,
	})
	store := newFakeStore()
	require.NoError(t, store.CreateTender(context.Background(),
		&models.Tender{Identifier: "T-010", AwardedDate: d2("2023-01-01")}, ""))

	res, err := New(srv.config(), store, nil, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Counts{Skipped: 1}, res.Tenders)

	t10, err := store.GetTenderByIdentifier(context.Background(), "T-010")
	require.NoError(t, err)
	assert.Equal(t, "2023-01-01", t10.AwardedDate.Format("2006-01-02"))
}

func TestRunSkipsOrdersWithNonPositiveQuantity(t *testing.T) {
	srv := newSampleServer(t, map[string]string{
		"/products": `[{"sku": "P1", "title": "Widget", "cost": 60, "price": 100}]`,
		"/tenders":  `[{"id": "T-001", "creation_date": "2024-05-01"}]`,
		"/orders": `[
    {"tender_id": "T-001", "product_id": "P1", "quantity": 3},
    {"tender_id": "T-001", "product_id": "P1", "quantity": 0},
    {"tender_id": "T-001", "product_id": "P1", "quantity": -1},
    {"tender_id": "T-001", "product_id": "P1", "quantity": ""}
]`,
	})
	store := newFakeStore()

	res, err := New(srv.config(), store, nil, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Counts{Created: 1, Skipped: 3}, res.Orders)

	t1, err := store.GetTenderByIdentifier(context.Background(), "T-001")
	require.NoError(t, err)
	orders := store.ordersOf(t1.ID)
	require.Len(t, orders, 1)
	assert.Equal(t, 3, orders[0].Quantity)
	assert.True(t, d("120").Equal(rules.TotalMargin(orders)), rules.TotalMargin(orders).String())
}

func TestRunFailsWhenSourceIsDown(t *testing.T) {
	bodies := sampleBodies()
	delete(bodies, "/tenders")
	srv := newSampleServer(t, bodies)
	store := newFakeStore()

	res, err := New(srv.config(), store, nil, nil).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetching tenders")
	// продукты до сбоя уже импортированы
	assert.Equal(t, 2, res.Products.Created)
	assert.Empty(t, store.orders)
}

func TestRunRejectsNonArrayPayload(t *testing.T) {
	srv := newSampleServer(t, map[string]string{"/products": `"nope"`})

	_, err := New(srv.config(), newFakeStore(), nil, nil).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetching products")
}

package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"licitaciones/internal/rules"
	"licitaciones/models"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// Tender (Тендер)

const tenderColumns = `id, identifier, normalized_identifier, client_id, awarded_date, created_at`

// marginExpr маржа позиции в SQL. quantity приводится к numeric до умножения,
// чтобы результат совпадал с rules.Margin до копейки.
const marginExpr = `(o.unit_price - o.unit_cost) * o.quantity::numeric`

const totalMarginQuery = `SELECT COALESCE(SUM(` + marginExpr + `), 0) FROM tender_order o WHERE o.tender_id=$1`

// CreateTender сохраняет новый тендер без позиций (первая фаза двухшагового создания).
// Непустой clientName привязывает тендер к клиенту, создавая клиента при необходимости.
func (s *Storage) CreateTender(ctx context.Context, t *models.Tender, clientName string) error {
	if err := rules.ValidateTenderCreate(*t); err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := attachClient(ctx, tx, t, clientName); err != nil {
			return err
		}
		return insertTender(ctx, tx, t)
	})
}

func attachClient(ctx context.Context, q sqlx.ExtContext, t *models.Tender, clientName string) error {
	if clientName == "" {
		return nil
	}
	c, err := getOrCreateClient(ctx, q, clientName)
	if err != nil {
		return err
	}
	t.ClientID = &c.ID
	return nil
}

func insertTender(ctx context.Context, q sqlx.QueryerContext, t *models.Tender) error {
	t.NormalizedIdentifier = rules.Normalize(t.Identifier)
	query := `
        INSERT INTO tender
            (identifier, normalized_identifier, client_id, awarded_date)
        VALUES
            ($1, $2, $3, $4)
        RETURNING id, created_at`
	err := q.QueryRowxContext(ctx, query,
		t.Identifier, t.NormalizedIdentifier, t.ClientID, t.AwardedDate).
		Scan(&t.ID, &t.CreatedAt)
	return MapPgError(err)
}

// CreateTenderWithOrders создаёт тендер вместе с позициями в одной транзакции.
// Все правила проверяются до первой записи.
func (s *Storage) CreateTenderWithOrders(ctx context.Context, t *models.Tender, clientName string, orders []models.Order) error {
	if err := rules.ValidateTenderCreate(*t); err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		for i := range orders {
			if err := fillSnapshot(ctx, tx, &orders[i]); err != nil {
				return err
			}
		}
		if err := rules.ValidateLineItems(orders); err != nil {
			return err
		}
		if err := attachClient(ctx, tx, t, clientName); err != nil {
			return err
		}
		if err := insertTender(ctx, tx, t); err != nil {
			return err
		}
		for i := range orders {
			orders[i].TenderID = t.ID
			if err := insertOrder(ctx, tx, &orders[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Storage) GetTender(ctx context.Context, id int64) (*models.Tender, error) {
	t := &models.Tender{}
	query := `SELECT ` + tenderColumns + ` FROM tender WHERE id=$1`
	if err := s.db.GetContext(ctx, t, query, id); err != nil {
		return nil, mapLookupError(err, "tender", id)
	}
	return t, nil
}

func (s *Storage) GetTenderByIdentifier(ctx context.Context, identifier string) (*models.Tender, error) {
	t := &models.Tender{}
	query := `SELECT ` + tenderColumns + ` FROM tender WHERE identifier=$1`
	if err := s.db.GetContext(ctx, t, query, identifier); err != nil {
		return nil, mapLookupError(err, "tender", identifier)
	}
	return t, nil
}

// GetTenderByNormalizedIdentifier ищет по ключу без разделителей.
// Если ключ совпал у нескольких тендеров, возвращает ErrAmbiguous.
func (s *Storage) GetTenderByNormalizedIdentifier(ctx context.Context, normalized string) (*models.Tender, error) {
	query := `SELECT ` + tenderColumns + ` FROM tender WHERE normalized_identifier=$1 ORDER BY id LIMIT 2`
	tenders := []models.Tender{}
	if err := s.db.SelectContext(ctx, &tenders, query, normalized); err != nil {
		return nil, MapPgError(err)
	}
	switch len(tenders) {
	case 0:
		return nil, notFound("tender", normalized)
	case 1:
		return &tenders[0], nil
	default:
		return nil, fmt.Errorf("tender %s: %w", normalized, ErrAmbiguous)
	}
}

// ResolveTender сначала ищет по точному идентификатору, затем по нормализованному
func (s *Storage) ResolveTender(ctx context.Context, identifier string) (*models.Tender, error) {
	t, err := s.GetTenderByIdentifier(ctx, identifier)
	if err == nil || !errors.Is(err, ErrNotFound) {
		return t, err
	}
	return s.GetTenderByNormalizedIdentifier(ctx, rules.Normalize(identifier))
}

// lockTender блокирует строку тендера до конца транзакции
func lockTender(ctx context.Context, tx *sqlx.Tx, id int64) error {
	var locked int64
	err := tx.GetContext(ctx, &locked, `SELECT id FROM tender WHERE id=$1 FOR UPDATE`, id)
	return mapLookupError(err, "tender", id)
}

func countOrders(ctx context.Context, q sqlx.QueryerContext, tenderID int64) (int, error) {
	var count int
	err := sqlx.GetContext(ctx, q, &count, `SELECT COUNT(1) FROM tender_order WHERE tender_id=$1`, tenderID)
	return count, err
}

// UpdateTender обновляет уже сохранённый тендер. Тендер без позиций не сохраняется.
// clientName как в CreateTender; пустое имя оставляет t.ClientID как есть.
func (s *Storage) UpdateTender(ctx context.Context, t *models.Tender, clientName string) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := lockTender(ctx, tx, t.ID); err != nil {
			return err
		}
		count, err := countOrders(ctx, tx, t.ID)
		if err != nil {
			return err
		}
		if err := rules.ValidateTenderUpdate(*t, count); err != nil {
			return err
		}
		if err := attachClient(ctx, tx, t, clientName); err != nil {
			return err
		}
		t.NormalizedIdentifier = rules.Normalize(t.Identifier)
		query := `
            UPDATE tender
            SET identifier=$1, normalized_identifier=$2, client_id=$3, awarded_date=$4
            WHERE id=$5`
		_, err = tx.ExecContext(ctx, query,
			t.Identifier, t.NormalizedIdentifier, t.ClientID, t.AwardedDate, t.ID)
		return MapPgError(err)
	})
}

// DeleteTender удаляет тендер вместе с позициями (ON DELETE CASCADE)
func (s *Storage) DeleteTender(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tender WHERE id=$1`, id)
	if err != nil {
		return MapPgError(err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound("tender", id)
	}
	return nil
}

// TotalMargin суммарная маржа тендера, посчитанная агрегатом в БД
func (s *Storage) TotalMargin(ctx context.Context, tenderID int64) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := s.db.GetContext(ctx, &total, totalMarginQuery, tenderID)
	return total, err
}

// TenderFilter параметры выборки списка тендеров
type TenderFilter struct {
	ClientName string
	Sort       string
	Limit      int
	Offset     int
}

// DefaultTenderSort сортировка по умолчанию: сначала последние присуждённые
const DefaultTenderSort = "-awarded_date"

var tenderSorts = map[string]string{
	"awarded_date":  "t.awarded_date ASC, t.id ASC",
	"-awarded_date": "t.awarded_date DESC, t.id DESC",
	"identifier":    "t.identifier ASC",
	"-identifier":   "t.identifier DESC",
	"total_margin":  "total_margin ASC, t.id ASC",
	"-total_margin": "total_margin DESC, t.id DESC",
}

// ValidTenderSort проверяет, поддерживается ли сортировка
func ValidTenderSort(sort string) bool {
	_, ok := tenderSorts[sort]
	return ok
}

func (f TenderFilter) where() (string, []interface{}) {
	var args []interface{}
	var conds []string
	if f.ClientName != "" {
		args = append(args, f.ClientName)
		conds = append(conds, fmt.Sprintf("c.name = $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

const summarySelect = `
        SELECT t.id, t.identifier, t.normalized_identifier, t.client_id, t.awarded_date, t.created_at,
               c.name AS client_name,
               COALESCE(SUM(` + marginExpr + `), 0) AS total_margin
        FROM tender t
        LEFT JOIN client c ON c.id = t.client_id
        LEFT JOIN tender_order o ON o.tender_id = t.id`

// ListTenders список тендеров с именем клиента и агрегированной маржой
func (s *Storage) ListTenders(ctx context.Context, f TenderFilter) ([]models.TenderSummary, error) {
	order, ok := tenderSorts[f.Sort]
	if !ok {
		order = tenderSorts[DefaultTenderSort]
	}
	filter, args := f.where()
	query := summarySelect + filter + " GROUP BY t.id, c.name ORDER BY " + order
	query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit, f.Offset)

	tenders := []models.TenderSummary{}
	if err := s.db.SelectContext(ctx, &tenders, query, args...); err != nil {
		return nil, err
	}
	return tenders, nil
}

// CountTenders число тендеров под фильтром (для пагинации)
func (s *Storage) CountTenders(ctx context.Context, f TenderFilter) (int, error) {
	filter, args := f.where()
	query := `SELECT COUNT(1) FROM tender t LEFT JOIN client c ON c.id = t.client_id` + filter
	var count int
	err := s.db.GetContext(ctx, &count, query, args...)
	return count, err
}

// GetTenderSummary один тендер с клиентом и маржой
func (s *Storage) GetTenderSummary(ctx context.Context, id int64) (*models.TenderSummary, error) {
	ts := &models.TenderSummary{}
	query := summarySelect + " WHERE t.id = $1 GROUP BY t.id, c.name"
	if err := s.db.GetContext(ctx, ts, query, id); err != nil {
		return nil, mapLookupError(err, "tender", id)
	}
	return ts, nil
}

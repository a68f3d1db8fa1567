package importer

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"
)

// Пути к полям записей. Источники называют одно и то же по-разному,
// поэтому у поля может быть несколько путей, берётся первый непустой.
var (
	productSKUPaths   = []string{"$.sku", "$.product_id"}
	productNamePaths  = []string{"$.title", "$.name"}
	productCostPaths  = []string{"$.cost"}
	productPricePaths = []string{"$.price", "$.unit_price"}

	tenderIdentifierPaths = []string{"$.id", "$.identifier"}
	tenderClientPaths     = []string{"$.client"}
	tenderDatePaths       = []string{"$.creation_date", "$.awarded_date"}

	orderTenderPaths   = []string{"$.tender_id", "$.tender_identifier"}
	orderProductPaths  = []string{"$.product_id", "$.product_sku", "$.sku"}
	orderQuantityPaths = []string{"$.quantity"}
	orderPricePaths    = []string{"$.price", "$.unit_price"}
)

// field первое непустое значение по списку путей.
// Пустыми считаются null, "", 0 и false.
func field(record any, paths []string) any {
	for _, path := range paths {
		v, err := jsonpath.Get(path, record)
		if err != nil {
			// отсутствующий ключ
			continue
		}
		// jsonpath может вернуть список из одного значения
		if list, ok := v.([]any); ok {
			if len(list) == 0 {
				continue
			}
			v = list[0]
		}
		if !isEmpty(v) {
			return v
		}
	}
	return nil
}

// present первое значение по списку путей, которое есть в записи и не равно null.
// В отличие от field, явные 0 и "" возвращаются как есть.
func present(record any, paths []string) any {
	for _, path := range paths {
		v, err := jsonpath.Get(path, record)
		if err != nil {
			continue
		}
		if list, ok := v.([]any); ok {
			if len(list) == 0 {
				continue
			}
			v = list[0]
		}
		if v != nil {
			return v
		}
	}
	return nil
}

func isEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case bool:
		return !x
	case json.Number:
		f, err := x.Float64()
		return err == nil && f == 0
	case float64:
		return x == 0
	}
	return false
}

func asString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case json.Number:
		return x.String()
	}
	return fmt.Sprint(v)
}

// asDecimal nil читается как ноль
func asDecimal(v any) (decimal.Decimal, error) {
	s := asString(v)
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

// asInt допускает целые, записанные как 2.0. def только для nil.
func asInt(v any, def int) (int, error) {
	if v == nil {
		return def, nil
	}
	s := asString(v)
	if s == "" {
		return 0, fmt.Errorf("integer is empty")
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("invalid integer %q", s)
	}
	return int(f), nil
}

// asDate дата YYYY-MM-DD или метка времени RFC3339 (берётся её дата)
func asDate(v any) (time.Time, error) {
	s := asString(v)
	if s == "" {
		return time.Time{}, fmt.Errorf("date is missing")
	}
	if d, err := time.Parse("2006-01-02", s); err == nil {
		return d, nil
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	y, m, day := ts.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC), nil
}

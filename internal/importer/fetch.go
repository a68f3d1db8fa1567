package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// fetchJSON скачивает массив JSON объектов. Числа остаются json.Number,
// чтобы суммы не проходили через float64.
func fetchJSON(ctx context.Context, client *http.Client, addr string) ([]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cannot http GET %v%v: %v", resp.Request.URL.Host, resp.Request.URL.Path, resp.Status)
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	var data any
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", addr, err)
	}
	switch v := data.(type) {
	case []any:
		return v, nil
	case map[string]any:
		// одиночный объект вместо массива
		return []any{v}, nil
	}
	return nil, fmt.Errorf("decoding %s: expected a JSON array, got %T", addr, data)
}

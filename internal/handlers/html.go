package handlers

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"licitaciones/db"
	"licitaciones/internal/rules"
	"licitaciones/models"

	"github.com/MonkyMars/gecho"
	"github.com/Rhymond/go-money"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	pageSize = 10
	// сколько продуктов предлагать в форме
	formProductLimit = 500
)

func parsePages(currency string) *template.Template {
	funcs := template.FuncMap{
		"money": func(d decimal.Decimal) string { return formatMoney(d, currency) },
		"date":  func(t time.Time) string { return t.Format(dateLayout) },
		"pct":   func(d decimal.Decimal) string { return d.StringFixed(2) + " %" },
		"esc":   url.PathEscape,
	}
	return template.Must(template.New("pages").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))
}

// formatMoney сумма с символом валюты. Неизвестный код валюты выводится как есть.
func formatMoney(d decimal.Decimal, code string) string {
	cur := money.GetCurrency(code)
	if cur == nil {
		return d.StringFixed(2) + " " + code
	}
	minor := d.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(minor, cur.Code).Display()
}

// wantsJSON клиент явно просит JSON через Accept
func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf strings.Builder
	if err := h.pages.ExecuteTemplate(&buf, name, data); err != nil {
		h.pageError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(buf.String()))
}

func (h *Handler) pageError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, db.ErrNotFound):
		http.NotFound(w, r)
	case errors.Is(err, db.ErrAmbiguous):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		h.Logger.Error("page failed",
			gecho.Field("path", r.URL.Path),
			gecho.Field("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

type listPage struct {
	Tenders  []models.TenderSummary
	Page     int
	NumPages int
	Total    int
}

func (p listPage) HasPrev() bool { return p.Page > 1 }
func (p listPage) HasNext() bool { return p.Page < p.NumPages }
func (p listPage) PrevPage() int { return p.Page - 1 }
func (p listPage) NextPage() int { return p.Page + 1 }

// resolvePage номер страницы из query: нечисловой - первая, за пределами - последняя
func resolvePage(raw string, numPages int) int {
	if raw == "" {
		return 1
	}
	page, err := strconv.Atoi(raw)
	if err != nil {
		return 1
	}
	if page < 1 || page > numPages {
		return numPages
	}
	return page
}

// TenderListPage GET /tenders
func (h *Handler) TenderListPage(w http.ResponseWriter, r *http.Request) {
	if wantsJSON(r) {
		h.GetTendersHandler(w, r)
		return
	}

	total, err := h.Store.CountTenders(r.Context(), db.TenderFilter{})
	if err != nil {
		h.pageError(w, r, err)
		return
	}
	numPages := int(math.Ceil(float64(total) / pageSize))
	if numPages < 1 {
		numPages = 1
	}
	page := resolvePage(r.URL.Query().Get("page"), numPages)

	tenders, err := h.Store.ListTenders(r.Context(), db.TenderFilter{
		Sort:   db.DefaultTenderSort,
		Limit:  pageSize,
		Offset: (page - 1) * pageSize,
	})
	if err != nil {
		h.pageError(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, "tender_list.html", listPage{
		Tenders:  tenders,
		Page:     page,
		NumPages: numPages,
		Total:    total,
	})
}

// TenderDetailPage GET /tenders/{identifier}
func (h *Handler) TenderDetailPage(w http.ResponseWriter, r *http.Request) {
	if wantsJSON(r) {
		h.GetTenderHandler(w, r)
		return
	}
	view, err := h.loadTender(r.Context(), chi.URLParam(r, "identifier"))
	if err != nil {
		h.pageError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "tender_detail.html", view)
}

type formRow struct {
	ProductSKU string
	Quantity   string
	UnitPrice  string
	UnitCost   string
	Delete     bool
}

type formPage struct {
	Identifier  string
	Client      string
	AwardedDate string
	Rows        []formRow
	Errors      map[string][]string
	Products    []models.Product
}

// RowError ошибки строки позиции с номером i
func (p formPage) RowError(i int, field string) []string {
	return p.Errors[rowField(i, field)]
}

func rowField(i int, field string) string {
	return fmt.Sprintf("items-%d-%s", i, field)
}

// NewTenderPage GET /tenders/new: пустая форма с одной строкой позиции
func (h *Handler) NewTenderPage(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, http.StatusOK, formPage{Rows: []formRow{{}}})
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, status int, page formPage) {
	products, err := h.Store.ListProducts(r.Context(), formProductLimit, 0)
	if err != nil {
		h.pageError(w, r, err)
		return
	}
	page.Products = products
	h.render(w, r, status, "tender_form.html", page)
}

// readForm разбирает строки позиций items-N-*. Строки без продукта и отмеченные
// на удаление пропускаются.
func readForm(form url.Values) (formPage, tenderInput, map[string][]string) {
	page := formPage{
		Identifier:  strings.TrimSpace(form.Get("identifier")),
		Client:      strings.TrimSpace(form.Get("client")),
		AwardedDate: strings.TrimSpace(form.Get("awarded_date")),
	}
	errs := map[string][]string{}
	in := tenderInput{Identifier: page.Identifier, Client: page.Client}

	if page.AwardedDate != "" {
		d, err := time.Parse(dateLayout, page.AwardedDate)
		if err != nil {
			errs["awarded_date"] = []string{"must be a date in YYYY-MM-DD format"}
		}
		in.AwardedDate = d
	}

	for i := 0; form.Has(rowField(i, "product_sku")); i++ {
		row := formRow{
			ProductSKU: strings.TrimSpace(form.Get(rowField(i, "product_sku"))),
			Quantity:   strings.TrimSpace(form.Get(rowField(i, "quantity"))),
			UnitPrice:  strings.TrimSpace(form.Get(rowField(i, "unit_price"))),
			UnitCost:   strings.TrimSpace(form.Get(rowField(i, "unit_cost"))),
			Delete:     form.Get(rowField(i, "delete")) != "",
		}
		page.Rows = append(page.Rows, row)
		if row.ProductSKU == "" || row.Delete {
			continue
		}

		item := itemInput{Field: fmt.Sprintf("items-%d-", i), ProductSKU: row.ProductSKU}
		q, err := strconv.Atoi(row.Quantity)
		if err != nil || q <= 0 {
			errs[rowField(i, "quantity")] = []string{"quantity must be a positive integer"}
		}
		item.Quantity = q
		for _, f := range []struct {
			name string
			raw  string
			dst  *decimal.Decimal
		}{
			{"unit_price", row.UnitPrice, &item.UnitPrice},
			{"unit_cost", row.UnitCost, &item.UnitCost},
		} {
			if f.raw == "" {
				continue
			}
			d, err := decimal.NewFromString(f.raw)
			if err != nil {
				errs[rowField(i, f.name)] = []string{"must be a decimal number"}
				continue
			}
			*f.dst = d
		}
		in.Items = append(in.Items, item)
	}
	if len(page.Rows) == 0 {
		page.Rows = []formRow{{}}
	}
	return page, in, errs
}

// CreateTenderPage POST /tenders/new
func (h *Handler) CreateTenderPage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	page, in, errs := readForm(r.PostForm)
	if len(errs) == 0 && len(in.Items) == 0 {
		errs[nonFieldKey] = []string{rules.MsgNoLineItems}
	}
	if len(errs) > 0 {
		page.Errors = errs
		h.renderForm(w, r, http.StatusBadRequest, page)
		return
	}

	t, err := h.createTender(r.Context(), in)
	if err != nil {
		fields, ok := errorFields(err)
		if !ok && errors.Is(err, db.ErrConflict) {
			fields, ok = map[string][]string{"identifier": {"tender with this identifier already exists"}}, true
		}
		if !ok {
			h.pageError(w, r, err)
			return
		}
		page.Errors = rowErrors(fields)
		h.renderForm(w, r, http.StatusBadRequest, page)
		return
	}
	http.Redirect(w, r, "/tenders/"+url.PathEscape(t.Identifier), http.StatusSeeOther)
}

// rowErrors ошибки позиций из хранилища не знают номер строки и идут в общие
func rowErrors(fields map[string][]string) map[string][]string {
	out := map[string][]string{}
	for k, msgs := range fields {
		switch k {
		case "quantity", "unit_price", "unit_cost":
			k = nonFieldKey
		}
		out[k] = append(out[k], msgs...)
	}
	return out
}

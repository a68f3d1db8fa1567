package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Ограничение размера тела, чтобы избежать DoS
const maxBodyBytes = 1048576

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// в ошибках используем имена полей из json, как их видит клиент
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// RequestError некорректный запрос: ошибки разложены по полям
type RequestError struct {
	Fields map[string][]string
}

func (e *RequestError) Error() string {
	return "invalid request"
}

func newRequestError(field, msg string) *RequestError {
	return &RequestError{Fields: map[string][]string{field: {msg}}}
}

// decodeBody читает JSON тело в T и проверяет его тегами validate
func decodeBody[T any](w http.ResponseWriter, r *http.Request) (*T, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	var body T
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		return nil, newRequestError(nonFieldKey, "invalid JSON: "+err.Error())
	}

	if err := validate.Struct(body); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			return nil, mapValidationErrors(ve)
		}
		return nil, err
	}
	return &body, nil
}

func mapValidationErrors(errs validator.ValidationErrors) *RequestError {
	out := &RequestError{Fields: map[string][]string{}}
	for _, e := range errs {
		// "createTenderRequest.items[0].quantity" -> "items[0].quantity"
		field := e.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}

		var message string
		switch e.Tag() {
		case "required":
			message = "is required"
		case "min":
			message = "must be at least " + e.Param() + " characters"
		case "max":
			message = "must be at most " + e.Param() + " characters"
		case "gt":
			message = "must be greater than " + e.Param()
		case "datetime":
			message = "must be a date in YYYY-MM-DD format"
		default:
			message = "is invalid"
		}
		out.Fields[field] = append(out.Fields[field], message)
	}
	return out
}

package rules

// ValidationError нарушение бизнес-правила.
// Пустой Field означает ошибку уровня всей записи, а не отдельного поля.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func fieldError(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Message: msg}
}

// Сообщения об ошибках
const (
	MsgPriceNotAboveCost = "unit price must exceed unit cost"
	MsgEmptyTender       = "tender must have at least one line item"
	MsgNoLineItems       = "tender must include at least one line item"
)

package rules

import (
	"strings"
	"unicode/utf8"

	"licitaciones/models"
)

const (
	maxIdentifierLen = 128
	maxNameLen       = 256
	maxSKULen        = 64
)

// ValidateOrder правило позиции: quantity > 0 и unit_price > unit_cost.
// Вызывается перед сохранением, а не при создании структуры.
func ValidateOrder(o models.Order) error {
	if o.Quantity <= 0 {
		return fieldError("quantity", "quantity must be a positive integer")
	}
	if o.UnitPrice.LessThanOrEqual(o.UnitCost) {
		return fieldError("unit_price", MsgPriceNotAboveCost)
	}
	return nil
}

// ValidateProduct проверяет продукт: sku и name обязательны, price > cost
func ValidateProduct(p models.Product) error {
	if strings.TrimSpace(p.SKU) == "" {
		return fieldError("sku", "sku is required")
	}
	if utf8.RuneCountInString(p.SKU) > maxSKULen {
		return fieldError("sku", "sku is too long")
	}
	if utf8.RuneCountInString(p.Name) > maxNameLen {
		return fieldError("name", "name is too long")
	}
	if p.Price.LessThanOrEqual(p.Cost) {
		return fieldError("price", "price must exceed cost")
	}
	return nil
}

// ValidateClient имя клиента обязательно
func ValidateClient(c models.Client) error {
	if strings.TrimSpace(c.Name) == "" {
		return fieldError("name", "name is required")
	}
	if utf8.RuneCountInString(c.Name) > maxNameLen {
		return fieldError("name", "name is too long")
	}
	return nil
}

func validateTenderFields(t models.Tender) error {
	if strings.TrimSpace(t.Identifier) == "" {
		return fieldError("identifier", "identifier is required")
	}
	if utf8.RuneCountInString(t.Identifier) > maxIdentifierLen {
		return fieldError("identifier", "identifier is too long")
	}
	if t.AwardedDate.IsZero() {
		return fieldError("awarded_date", "awarded date is required")
	}
	return nil
}

// ValidateTenderCreate проверка перед первой вставкой тендера.
// Позиции не требуются: тендер может быть создан раньше своих позиций.
func ValidateTenderCreate(t models.Tender) error {
	return validateTenderFields(t)
}

// ValidateTenderUpdate проверка перед обновлением уже сохранённого тендера:
// у него должна быть хотя бы одна позиция.
func ValidateTenderUpdate(t models.Tender, orderCount int) error {
	if err := validateTenderFields(t); err != nil {
		return err
	}
	if orderCount == 0 {
		return &ValidationError{Message: MsgEmptyTender}
	}
	return nil
}

// ValidateLineItems проверка набора позиций при создании тендера вместе с позициями
func ValidateLineItems(orders []models.Order) error {
	if len(orders) == 0 {
		return &ValidationError{Message: MsgNoLineItems}
	}
	for _, o := range orders {
		if err := ValidateOrder(o); err != nil {
			return err
		}
	}
	return nil
}

// ValidateOrderDelete запрещает удалять последнюю позицию сохранённого тендера.
// remaining - число позиций тендера до удаления.
func ValidateOrderDelete(remaining int) error {
	if remaining <= 1 {
		return &ValidationError{Message: MsgEmptyTender}
	}
	return nil
}

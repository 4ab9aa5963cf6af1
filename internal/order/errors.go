package order

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrOrderFinalized     = errors.New("order is already finalized")
	ErrProductNotFound    = errors.New("product not found")
	ErrProductUnavailable = errors.New("product is unavailable for sale")
	ErrStockNotFound      = errors.New("stock entry not found")
	ErrInvalidQuantity    = errors.New("invalid quantity")
)

// MissingFieldsError перечисляет обязательные поля доставки, которых не
// хватает в запросе на оформление.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("missing required delivery fields: %s", strings.Join(e.Fields, ", "))
}

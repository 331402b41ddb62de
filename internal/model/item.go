package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/volatiletech/null/v8"
)

// Item is one row of the inventory table.
type Item struct {
	ID          int64       `json:"id" db:"id"`
	Name        string      `json:"name" db:"name"`
	Description null.String `json:"description" db:"description"`
	Quantity    int64       `json:"quantity" db:"quantity"`
	Price       float64     `json:"price" db:"price"`
	Photo       null.String `json:"photo" db:"photo"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
}

// ItemPatch is a partial update. Fields that are not Valid were omitted by
// the caller and keep their stored value.
type ItemPatch struct {
	Name        null.String  `json:"name"`
	Description null.String  `json:"description"`
	Quantity    null.Int64   `json:"quantity"`
	Price       null.Float64 `json:"price"`
}

// ValidationError reports a field the caller got wrong. Message is meant
// for the caller and is returned as is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Invalid returns a ValidationError for field.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Validate checks an item before it is inserted.
func (i Item) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return Invalid("name", "Name required")
	}
	if i.Quantity < 0 {
		return Invalid("quantity", "Quantity must not be negative")
	}
	if i.Price < 0 {
		return Invalid("price", "Price must not be negative")
	}
	return nil
}

// Validate checks the fields the patch carries.
func (p ItemPatch) Validate() error {
	if p.Name.Valid && strings.TrimSpace(p.Name.String) == "" {
		return Invalid("name", "Name required")
	}
	if p.Quantity.Valid && p.Quantity.Int64 < 0 {
		return Invalid("quantity", "Quantity must not be negative")
	}
	if p.Price.Valid && p.Price.Float64 < 0 {
		return Invalid("price", "Price must not be negative")
	}
	return nil
}

// Empty reports whether the patch carries no fields at all.
func (p ItemPatch) Empty() bool {
	return !p.Name.Valid && !p.Description.Valid && !p.Quantity.Valid && !p.Price.Valid
}

// MergePatch applies patch on top of existing and returns the result.
//
//   - name, description, quantity, price: taken from the patch when present,
//     otherwise kept.
//   - id, photo, created_at, updated_at: never changed; the repository owns
//     the timestamp and the photo has its own endpoint.
func MergePatch(existing Item, patch ItemPatch) Item {
	merged := existing
	if patch.Name.Valid {
		merged.Name = patch.Name.String
	}
	if patch.Description.Valid {
		merged.Description = patch.Description
	}
	if patch.Quantity.Valid {
		merged.Quantity = patch.Quantity.Int64
	}
	if patch.Price.Valid {
		merged.Price = patch.Price.Float64
	}
	return merged
}

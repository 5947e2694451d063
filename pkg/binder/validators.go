package binder

import (
	"github.com/go-playground/validator/v10"
	"github.com/pagemark/pagemark/pkg/models"
)

// shelfValidator ensures the value is one of the three shelves or the empty
// string. The empty string is allowed so optional fields can be omitted; add
// `required` to the validate tag when the field must be present.
func shelfValidator(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return models.ValidShelf(value)
}

// readingStatusValidator ensures the value is a known reading status or the
// empty string.
func readingStatusValidator(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return models.ValidStatus(value)
}

package catalog

import "pizzeria-be/internal/apperr"

var (
	ErrItemNotFound    = apperr.NotFound("item not found")
	ErrItemNameExists  = apperr.Conflict("an item with this name already exists")
	ErrInvalidCategory = apperr.Validation("invalid category")
	ErrInvalidSize     = apperr.Validation("invalid size")
	ErrInvalidPrice    = apperr.Validation("price must be greater than zero with at most 2 decimal places")
	ErrNothingToUpdate = apperr.Validation("no fields to update")
)

const constraintItemsName = "items_name_key"

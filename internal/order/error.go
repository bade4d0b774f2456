package order

import "pizzeria-be/internal/apperr"

var (
	ErrOrderNotFound = apperr.NotFound("order not found")
	ErrItemNotFound  = apperr.NotFound("item not found in the menu")
	ErrLineNotFound  = apperr.NotFound("item not found in this order")

	ErrNotOrderOwner = apperr.Forbidden("you can only modify your own orders")

	ErrOrderNotEditable     = apperr.InvalidState("order can no longer be modified")
	ErrOrderNotCancelable   = apperr.InvalidState("order can no longer be canceled")
	ErrInvalidStatus        = apperr.InvalidState("invalid order status")
	ErrItemUnavailable      = apperr.New(apperr.KindItemsUnavailable, "item is not available")
	ErrItemsUnavailable     = apperr.New(apperr.KindItemsUnavailable, "some items are not available")
	ErrItemsNotFound        = apperr.New(apperr.KindItemsNotFound, "some items were not found")
	ErrInvalidPaymentMethod = apperr.Validation("invalid payment method")
	ErrNoLines              = apperr.Validation("an order needs at least one item")
	ErrInvalidQuantity      = apperr.Validation("invalid quantity")
	ErrAddressRequired      = apperr.Validation("delivery address is required for delivery orders")

	// errDuplicateOrderNumber triggers a retry with a fresh number.
	errDuplicateOrderNumber = apperr.Conflict("order number already in use")
)

const constraintOrderNumber = "orders_order_number_key"

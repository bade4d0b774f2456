package order

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending        Status = "pending"
	StatusConfirmed      Status = "confirmed"
	StatusPreparing      Status = "preparing"
	StatusReady          Status = "ready"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusDelivered      Status = "delivered"
	StatusCanceled       Status = "canceled"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []Status{
	StatusPending,
	StatusConfirmed,
	StatusPreparing,
	StatusReady,
	StatusOutForDelivery,
	StatusDelivered,
	StatusCanceled,
}

func ParseStatus(s string) (Status, error) {
	for _, st := range AllStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", ErrInvalidStatus
}

// Editable reports whether line items may still be added or removed.
func (s Status) Editable() bool {
	switch s {
	case StatusDelivered, StatusCanceled, StatusOutForDelivery:
		return false
	}
	return true
}

func (s Status) Cancelable() bool {
	return s != StatusDelivered && s != StatusCanceled
}

type PaymentMethod string

const (
	PaymentCash        PaymentMethod = "cash"
	PaymentCreditCard  PaymentMethod = "credit_card"
	PaymentDebitCard   PaymentMethod = "debit_card"
	PaymentPix         PaymentMethod = "pix"
	PaymentMealVoucher PaymentMethod = "meal_voucher"
)

var paymentMethods = map[string]PaymentMethod{
	string(PaymentCash):        PaymentCash,
	string(PaymentCreditCard):  PaymentCreditCard,
	string(PaymentDebitCard):   PaymentDebitCard,
	string(PaymentPix):         PaymentPix,
	string(PaymentMealVoucher): PaymentMealVoucher,
}

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	pm, ok := paymentMethods[s]
	if !ok {
		return "", ErrInvalidPaymentMethod
	}
	return pm, nil
}

// Address is stored as JSON in orders.delivery_address.
type Address struct {
	Street       string  `json:"street"`
	Neighborhood string  `json:"neighborhood"`
	City         string  `json:"city"`
	State        string  `json:"state"`
	ZipCode      string  `json:"zip_code"`
	Complement   *string `json:"complement,omitempty"`
	Reference    *string `json:"reference,omitempty"`
}

type Order struct {
	ID                    int64
	OrderNumber           string
	UserID                int64
	CustomerName          string
	CustomerPhone         string
	IsDelivery            bool
	DeliveryAddress       *Address
	PaymentMethod         PaymentMethod
	Status                Status
	Subtotal              decimal.Decimal
	DeliveryFee           decimal.Decimal
	TotalAmount           decimal.Decimal
	EstimatedDeliveryTime *int
	Observations          *string
	CreatedAt             time.Time
	UpdatedAt             time.Time

	Lines []*Line
}

// Line is an order_items row. ItemName and PreparationTime come from the
// catalog item and are read-only here.
type Line struct {
	ID              int64
	OrderID         int64
	ItemID          int64
	ItemName        string
	PreparationTime *int
	Quantity        int
	UnitPrice       decimal.Decimal
	LineTotal       decimal.Decimal
	Notes           *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Summary struct {
	ID            int64
	OrderNumber   string
	UserID        int64
	CustomerName  string
	Status        Status
	IsDelivery    bool
	PaymentMethod PaymentMethod
	TotalAmount   decimal.Decimal
	ItemsCount    int
	CreatedAt     time.Time
}

type LineInput struct {
	ItemID       int64
	Quantity     int
	Observations *string
}

type CreateInput struct {
	CustomerName    *string
	CustomerPhone   string
	IsDelivery      bool
	DeliveryAddress *Address
	PaymentMethod   PaymentMethod
	Observations    *string
	Lines           []LineInput
}

type AddItemInput struct {
	ItemID       int64
	Quantity     int
	Observations *string
}

type AddItemResult struct {
	Order  *Order
	Line   *Line
	Merged bool
	Totals Totals
}

// RemoveItemResult.Totals is nil when removing the line canceled the order.
type RemoveItemResult struct {
	Order          *Order
	Removed        *Line
	OrderCanceled  bool
	RemainingLines int
	Totals         *Totals
}

type ListFilter struct {
	Offset int
	Limit  int
	Status *Status
	UserID *int64
}

type Statistics struct {
	TotalOrders    int
	OrdersToday    int
	TotalRevenue   decimal.Decimal
	AverageTicket  decimal.Decimal
	DeliveredCount int
	ByStatus       map[Status]int
}

// StatsRow is the raw aggregate read from storage.
type StatsRow struct {
	TotalOrders    int
	OrdersToday    int
	TotalRevenue   decimal.Decimal
	DeliveredCount int
	ByStatus       map[Status]int
}

package api

import (
	"net/http"
	"testing"
	"time"

	"pizzeria-be/internal/order"
	"pizzeria-be/internal/utils"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func sampleLine(id, itemID int64, qty int, unit string) *order.Line {
	u := decimal.RequireFromString(unit)
	return &order.Line{
		ID:        id,
		OrderID:   10,
		ItemID:    itemID,
		ItemName:  "Margherita",
		Quantity:  qty,
		UnitPrice: u,
		LineTotal: order.LineTotal(u, qty),
	}
}

func sampleOrder(status order.Status, lines ...*order.Line) *order.Order {
	now := time.Date(2024, 5, 1, 19, 30, 0, 0, time.UTC)
	eta := 55
	sub := decimal.Zero
	for _, l := range lines {
		sub = sub.Add(l.LineTotal)
	}
	fee := decimal.RequireFromString("5")
	return &order.Order{
		ID:                    10,
		OrderNumber:           "PED-1A2B3C4D",
		UserID:                7,
		CustomerName:          "mario_rossi",
		CustomerPhone:         "(11) 98765-4321",
		IsDelivery:            true,
		PaymentMethod:         order.PaymentPix,
		Status:                status,
		Subtotal:              sub,
		DeliveryFee:           fee,
		TotalAmount:           sub.Add(fee),
		EstimatedDeliveryTime: &eta,
		CreatedAt:             now,
		UpdatedAt:             now,
		Lines:                 lines,
	}
}

func validOrderBody() map[string]any {
	return map[string]any{
		"customer_phone": "(11) 98765-4321",
		"payment_method": "pix",
		"delivery_address": map[string]any{
			"street":       "Rua Augusta, 1200",
			"neighborhood": "Consolacao",
			"city":         "Sao Paulo",
			"state":        "sp",
			"zip_code":     "01304001",
		},
		"items": []map[string]any{
			{"item_id": 1, "quantity": 2, "observations": "no onion"},
			{"item_id": 3, "quantity": 1},
		},
	}
}

func TestCreateOrderHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		h := newHarness(t)
		h.orders.On("CreateOrder", mock.Anything, int64(7), mock.MatchedBy(func(in order.CreateInput) bool {
			a := in.DeliveryAddress
			return in.IsDelivery &&
				in.PaymentMethod == order.PaymentPix &&
				in.CustomerName == nil &&
				a != nil && a.State == "SP" && a.ZipCode == "01304-001" &&
				len(in.Lines) == 2 &&
				in.Lines[0].ItemID == 1 && in.Lines[0].Quantity == 2 &&
				*in.Lines[0].Observations == "no onion" &&
				in.Lines[1].Observations == nil
		})).Return(sampleOrder(order.StatusPending,
			sampleLine(1, 1, 2, "45.50"),
			sampleLine(2, 3, 1, "8.00"),
		), nil)

		w := h.do(t, http.MethodPost, "/orders", validOrderBody(), 7)

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.Contains(t, w.Body.String(), `"subtotal":99.00`)
		assert.Contains(t, w.Body.String(), `"delivery_fee":5.00`)
		assert.Contains(t, w.Body.String(), `"total_amount":104.00`)
		assert.Contains(t, w.Body.String(), `"total_price":91.00`)
		body := decode(t, w)
		assert.Equal(t, "pending", body["status"])
		assert.Len(t, body["items"], 2)
		h.orders.AssertExpectations(t)
	})

	t.Run("PickupWithoutAddress", func(t *testing.T) {
		h := newHarness(t)
		h.orders.On("CreateOrder", mock.Anything, int64(7), mock.MatchedBy(func(in order.CreateInput) bool {
			return !in.IsDelivery && in.DeliveryAddress == nil
		})).Return(sampleOrder(order.StatusPending, sampleLine(1, 1, 1, "30")), nil)

		body := validOrderBody()
		body["is_delivery"] = false
		delete(body, "delivery_address")
		w := h.do(t, http.MethodPost, "/orders", body, 7)

		assert.Equal(t, http.StatusCreated, w.Code)
		h.orders.AssertExpectations(t)
	})

	t.Run("RejectsBadInputBeforeService", func(t *testing.T) {
		h := newHarness(t)
		body := validOrderBody()
		body["customer_phone"] = "11987654321"
		body["payment_method"] = "bitcoin"
		body["items"] = []map[string]any{{"item_id": 1, "quantity": 11}}
		body["delivery_address"].(map[string]any)["zip_code"] = "123"

		w := h.do(t, http.MethodPost, "/orders", body, 7)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		details := decode(t, w)["details"].([]any)
		assert.Contains(t, details, "customer_phone must look like (11) 98765-4321")
		assert.Contains(t, details, "payment_method must be one of: cash credit_card debit_card pix meal_voucher")
		assert.Contains(t, details, "items[0].quantity must satisfy max=10")
		assert.Contains(t, details, "delivery_address.zip_code must have 8 digits")
		h.orders.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("EmptyItems", func(t *testing.T) {
		h := newHarness(t)
		body := validOrderBody()
		body["items"] = []map[string]any{}

		w := h.do(t, http.MethodPost, "/orders", body, 7)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("UnavailableItems", func(t *testing.T) {
		h := newHarness(t)
		h.orders.On("CreateOrder", mock.Anything, int64(7), mock.Anything).
			Return(nil, order.ErrItemsUnavailable.WithDetails("Calabresa"))

		w := h.do(t, http.MethodPost, "/orders", validOrderBody(), 7)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decode(t, w)
		assert.Equal(t, "items_unavailable", body["kind"])
		assert.Equal(t, []any{"Calabresa"}, body["details"])
	})
}

func TestOrderQueryHandlers(t *testing.T) {
	t.Run("MineWithStatus", func(t *testing.T) {
		h := newHarness(t)
		st := order.StatusPreparing
		h.orders.On("ListMine", mock.Anything, int64(7), order.ListFilter{Limit: 5, Status: &st}).
			Return([]*order.Summary{{
				ID:          10,
				OrderNumber: "PZ1",
				Status:      order.StatusPreparing,
				TotalAmount: decimal.RequireFromString("50"),
				ItemsCount:  2,
			}}, nil)

		w := h.do(t, http.MethodGet, "/orders/mine?limit=5&status=preparing", nil, 7)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"total_amount":50.00`)
		assert.Contains(t, w.Body.String(), `"items_count":2`)
		h.orders.AssertExpectations(t)
	})

	t.Run("UnknownStatusFilter", func(t *testing.T) {
		h := newHarness(t)

		w := h.do(t, http.MethodGet, "/orders/mine?status=lost", nil, 7)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "invalid_state", decode(t, w)["kind"])
	})

	t.Run("AdminListByUser", func(t *testing.T) {
		h := newHarness(t)
		uid := int64(7)
		h.orders.On("ListAll", mock.Anything, int64(1), order.ListFilter{Offset: 50, UserID: &uid}).
			Return([]*order.Summary{}, nil)

		w := h.do(t, http.MethodGet, "/orders?skip=50&user_id=7", nil, 1)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())
		h.orders.AssertExpectations(t)
	})

	t.Run("AdminListBadUserID", func(t *testing.T) {
		h := newHarness(t)

		w := h.do(t, http.MethodGet, "/orders?user_id=x", nil, 1)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("Stats", func(t *testing.T) {
		h := newHarness(t)
		h.orders.On("Statistics", mock.Anything, int64(1)).Return(&order.Statistics{
			TotalOrders:   3,
			OrdersToday:   1,
			TotalRevenue:  decimal.RequireFromString("100"),
			AverageTicket: decimal.RequireFromString("33.33"),
			ByStatus: map[order.Status]int{
				order.StatusPending:   1,
				order.StatusDelivered: 2,
			},
		}, nil)

		w := h.do(t, http.MethodGet, "/orders/stats", nil, 1)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"total_revenue":100.00`)
		assert.Contains(t, w.Body.String(), `"average_ticket":33.33`)
		body := decode(t, w)
		assert.EqualValues(t, 2, body["orders_by_status"].(map[string]any)["delivered"])
	})

	t.Run("GetNotOwner", func(t *testing.T) {
		h := newHarness(t)
		h.orders.On("GetOrder", mock.Anything, int64(8), int64(10)).Return(nil, order.ErrNotOrderOwner)

		w := h.do(t, http.MethodGet, "/orders/10", nil, 8)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("GetIncludesAddress", func(t *testing.T) {
		h := newHarness(t)
		o := sampleOrder(order.StatusPending, sampleLine(1, 1, 1, "30"))
		o.DeliveryAddress = &order.Address{
			Street: "Rua Augusta, 1200", Neighborhood: "Consolacao",
			City: "Sao Paulo", State: "SP", ZipCode: "01304-001",
			Complement: utils.StrPtr("apto 12"),
		}
		h.orders.On("GetOrder", mock.Anything, int64(7), int64(10)).Return(o, nil)

		w := h.do(t, http.MethodGet, "/orders/10", nil, 7)

		assert.Equal(t, http.StatusOK, w.Code)
		addr := decode(t, w)["delivery_address"].(map[string]any)
		assert.Equal(t, "01304-001", addr["zip_code"])
		assert.Equal(t, "apto 12", addr["complement"])
	})
}

func TestOrderLineHandlers(t *testing.T) {
	t.Run("AddMerged", func(t *testing.T) {
		h := newHarness(t)
		line := sampleLine(1, 1, 3, "45.50")
		o := sampleOrder(order.StatusPending, line)
		h.orders.On("AddItem", mock.Anything, int64(7), int64(10), order.AddItemInput{ItemID: 1, Quantity: 1}).
			Return(&order.AddItemResult{
				Order:  o,
				Line:   line,
				Merged: true,
				Totals: order.Totals{
					Subtotal:              o.Subtotal,
					DeliveryFee:           o.DeliveryFee,
					TotalAmount:           o.TotalAmount,
					EstimatedDeliveryTime: o.EstimatedDeliveryTime,
				},
			}, nil)

		w := h.do(t, http.MethodPost, "/orders/10/items", map[string]any{"item_id": 1, "quantity": 1}, 7)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"subtotal":136.50`)
		body := decode(t, w)
		assert.Equal(t, "item quantity updated", body["message"])
		assert.Equal(t, true, body["merged"])
		assert.EqualValues(t, 3, body["item"].(map[string]any)["quantity"])
		h.orders.AssertExpectations(t)
	})

	t.Run("AddQuantityOutOfRange", func(t *testing.T) {
		h := newHarness(t)

		w := h.do(t, http.MethodPost, "/orders/10/items", map[string]any{"item_id": 1, "quantity": 51}, 7)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		h.orders.AssertNotCalled(t, "AddItem", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("AddToDeliveredOrder", func(t *testing.T) {
		h := newHarness(t)
		h.orders.On("AddItem", mock.Anything, int64(7), int64(10), mock.Anything).Return(nil, order.ErrOrderNotEditable)

		w := h.do(t, http.MethodPost, "/orders/10/items", map[string]any{"item_id": 1, "quantity": 1}, 7)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "order can no longer be modified", decode(t, w)["error"])
	})

	t.Run("RemoveLeavesLines", func(t *testing.T) {
		h := newHarness(t)
		kept := sampleLine(2, 3, 1, "8")
		o := sampleOrder(order.StatusPending, kept)
		h.orders.On("RemoveItem", mock.Anything, int64(7), int64(10), int64(1)).Return(&order.RemoveItemResult{
			Order:          o,
			Removed:        sampleLine(1, 1, 2, "45.50"),
			RemainingLines: 1,
			Totals: &order.Totals{
				Subtotal:    o.Subtotal,
				DeliveryFee: o.DeliveryFee,
				TotalAmount: o.TotalAmount,
			},
		}, nil)

		w := h.do(t, http.MethodDelete, "/orders/10/items/1", nil, 7)

		assert.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		assert.Equal(t, "item removed from order", body["message"])
		assert.Equal(t, false, body["order_canceled"])
		assert.NotNil(t, body["order_totals"])
	})

	t.Run("RemoveLastLineCancels", func(t *testing.T) {
		h := newHarness(t)
		o := sampleOrder(order.StatusCanceled)
		h.orders.On("RemoveItem", mock.Anything, int64(7), int64(10), int64(1)).Return(&order.RemoveItemResult{
			Order:         o,
			Removed:       sampleLine(1, 1, 2, "45.50"),
			OrderCanceled: true,
		}, nil)

		w := h.do(t, http.MethodDelete, "/orders/10/items/1", nil, 7)

		assert.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		assert.Equal(t, "last item removed, order canceled", body["message"])
		assert.Equal(t, "canceled", body["order_status"])
		assert.Equal(t, true, body["order_canceled"])
		assert.Nil(t, body["order_totals"])
	})

	t.Run("RemoveBadLineID", func(t *testing.T) {
		h := newHarness(t)

		w := h.do(t, http.MethodDelete, "/orders/10/items/0", nil, 7)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "invalid line_id", decode(t, w)["error"])
	})
}

func TestOrderStatusHandlers(t *testing.T) {
	t.Run("SetStatus", func(t *testing.T) {
		h := newHarness(t)
		h.orders.On("SetStatus", mock.Anything, int64(1), int64(10), "out_for_delivery").
			Return(sampleOrder(order.StatusOutForDelivery, sampleLine(1, 1, 1, "30")), nil)

		w := h.do(t, http.MethodPatch, "/orders/10/status", map[string]any{"status": "out_for_delivery"}, 1)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "out_for_delivery", decode(t, w)["status"])
	})

	t.Run("SetStatusMissingBody", func(t *testing.T) {
		h := newHarness(t)

		w := h.do(t, http.MethodPatch, "/orders/10/status", map[string]any{}, 1)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, decode(t, w)["details"], "status is required")
	})

	t.Run("CancelDelivered", func(t *testing.T) {
		h := newHarness(t)
		h.orders.On("Cancel", mock.Anything, int64(7), int64(10)).Return(nil, order.ErrOrderNotCancelable)

		w := h.do(t, http.MethodPost, "/orders/10/cancel", nil, 7)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Cancel", func(t *testing.T) {
		h := newHarness(t)
		h.orders.On("Cancel", mock.Anything, int64(7), int64(10)).
			Return(sampleOrder(order.StatusCanceled, sampleLine(1, 1, 1, "30")), nil)

		w := h.do(t, http.MethodPost, "/orders/10/cancel", nil, 7)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "canceled", decode(t, w)["status"])
	})
}

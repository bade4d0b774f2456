package api

import (
	"time"

	"pizzeria-be/internal/catalog"
	"pizzeria-be/internal/order"
	"pizzeria-be/internal/user"

	"github.com/shopspring/decimal"
)

// Money encodes as a JSON number with exactly two fractional digits.
type Money decimal.Decimal

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(m).StringFixed(2)), nil
}

type userResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	IsActive  bool      `json:"is_active"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toUser(u *user.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		IsActive:  u.IsActive,
		IsAdmin:   u.IsAdmin,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func toUsers(list []*user.User) []userResponse {
	out := make([]userResponse, 0, len(list))
	for _, u := range list {
		out = append(out, toUser(u))
	}
	return out
}

type tokenResponse struct {
	AccessToken      string        `json:"access_token"`
	RefreshToken     string        `json:"refresh_token"`
	TokenType        string        `json:"token_type"`
	ExpiresIn        int           `json:"expires_in"`
	RefreshExpiresIn int           `json:"refresh_expires_in"`
	User             *userResponse `json:"user,omitempty"`
}

func toTokens(p user.TokenPair) tokenResponse {
	return tokenResponse{
		AccessToken:      p.AccessToken,
		RefreshToken:     p.RefreshToken,
		TokenType:        "bearer",
		ExpiresIn:        p.ExpiresIn,
		RefreshExpiresIn: p.RefreshExpiresIn,
	}
}

type itemResponse struct {
	ID              int64            `json:"id"`
	Name            string           `json:"name"`
	Description     *string          `json:"description"`
	Category        catalog.Category `json:"category"`
	Size            catalog.Size     `json:"size"`
	Price           Money            `json:"price"`
	IsAvailable     bool             `json:"is_available"`
	PreparationTime *int             `json:"preparation_time"`
	Calories        *int             `json:"calories"`
	Ingredients     []string         `json:"ingredients"`
	Allergens       *string          `json:"allergens"`
	ImageURL        *string          `json:"image_url"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

func toItem(it *catalog.Item) itemResponse {
	ingredients := it.Ingredients
	if ingredients == nil {
		ingredients = []string{}
	}
	return itemResponse{
		ID:              it.ID,
		Name:            it.Name,
		Description:     it.Description,
		Category:        it.Category,
		Size:            it.Size,
		Price:           Money(it.Price),
		IsAvailable:     it.IsAvailable,
		PreparationTime: it.PreparationTime,
		Calories:        it.Calories,
		Ingredients:     ingredients,
		Allergens:       it.Allergens,
		ImageURL:        it.ImageURL,
		CreatedAt:       it.CreatedAt,
		UpdatedAt:       it.UpdatedAt,
	}
}

func toItems(list []*catalog.Item) []itemResponse {
	out := make([]itemResponse, 0, len(list))
	for _, it := range list {
		out = append(out, toItem(it))
	}
	return out
}

type lineResponse struct {
	ID           int64   `json:"id"`
	ItemID       int64   `json:"item_id"`
	ItemName     string  `json:"item_name"`
	Quantity     int     `json:"quantity"`
	UnitPrice    Money   `json:"unit_price"`
	TotalPrice   Money   `json:"total_price"`
	Observations *string `json:"observations"`
}

func toLine(l *order.Line) lineResponse {
	return lineResponse{
		ID:           l.ID,
		ItemID:       l.ItemID,
		ItemName:     l.ItemName,
		Quantity:     l.Quantity,
		UnitPrice:    Money(l.UnitPrice),
		TotalPrice:   Money(l.LineTotal),
		Observations: l.Notes,
	}
}

type orderResponse struct {
	ID                    int64               `json:"id"`
	OrderNumber           string              `json:"order_number"`
	UserID                int64               `json:"user_id"`
	CustomerName          string              `json:"customer_name"`
	CustomerPhone         string              `json:"customer_phone"`
	IsDelivery            bool                `json:"is_delivery"`
	DeliveryAddress       *order.Address      `json:"delivery_address"`
	PaymentMethod         order.PaymentMethod `json:"payment_method"`
	Status                order.Status        `json:"status"`
	Subtotal              Money               `json:"subtotal"`
	DeliveryFee           Money               `json:"delivery_fee"`
	TotalAmount           Money               `json:"total_amount"`
	EstimatedDeliveryTime *int                `json:"estimated_delivery_time"`
	Observations          *string             `json:"observations"`
	CreatedAt             time.Time           `json:"created_at"`
	UpdatedAt             time.Time           `json:"updated_at"`
	Items                 []lineResponse      `json:"items"`
}

func toOrder(o *order.Order) orderResponse {
	lines := make([]lineResponse, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, toLine(l))
	}
	return orderResponse{
		ID:                    o.ID,
		OrderNumber:           o.OrderNumber,
		UserID:                o.UserID,
		CustomerName:          o.CustomerName,
		CustomerPhone:         o.CustomerPhone,
		IsDelivery:            o.IsDelivery,
		DeliveryAddress:       o.DeliveryAddress,
		PaymentMethod:         o.PaymentMethod,
		Status:                o.Status,
		Subtotal:              Money(o.Subtotal),
		DeliveryFee:           Money(o.DeliveryFee),
		TotalAmount:           Money(o.TotalAmount),
		EstimatedDeliveryTime: o.EstimatedDeliveryTime,
		Observations:          o.Observations,
		CreatedAt:             o.CreatedAt,
		UpdatedAt:             o.UpdatedAt,
		Items:                 lines,
	}
}

type summaryResponse struct {
	ID            int64               `json:"id"`
	OrderNumber   string              `json:"order_number"`
	UserID        int64               `json:"user_id"`
	CustomerName  string              `json:"customer_name"`
	Status        order.Status        `json:"status"`
	IsDelivery    bool                `json:"is_delivery"`
	PaymentMethod order.PaymentMethod `json:"payment_method"`
	TotalAmount   Money               `json:"total_amount"`
	ItemsCount    int                 `json:"items_count"`
	CreatedAt     time.Time           `json:"created_at"`
}

func toSummaries(list []*order.Summary) []summaryResponse {
	out := make([]summaryResponse, 0, len(list))
	for _, s := range list {
		out = append(out, summaryResponse{
			ID:            s.ID,
			OrderNumber:   s.OrderNumber,
			UserID:        s.UserID,
			CustomerName:  s.CustomerName,
			Status:        s.Status,
			IsDelivery:    s.IsDelivery,
			PaymentMethod: s.PaymentMethod,
			TotalAmount:   Money(s.TotalAmount),
			ItemsCount:    s.ItemsCount,
			CreatedAt:     s.CreatedAt,
		})
	}
	return out
}

type totalsResponse struct {
	Subtotal              Money `json:"subtotal"`
	DeliveryFee           Money `json:"delivery_fee"`
	TotalAmount           Money `json:"total_amount"`
	EstimatedDeliveryTime *int  `json:"estimated_delivery_time"`
}

func toTotals(t order.Totals) totalsResponse {
	return totalsResponse{
		Subtotal:              Money(t.Subtotal),
		DeliveryFee:           Money(t.DeliveryFee),
		TotalAmount:           Money(t.TotalAmount),
		EstimatedDeliveryTime: t.EstimatedDeliveryTime,
	}
}

type addItemResponse struct {
	Message     string         `json:"message"`
	Merged      bool           `json:"merged"`
	Item        lineResponse   `json:"item"`
	OrderTotals totalsResponse `json:"order_totals"`
}

type removeItemResponse struct {
	Message       string          `json:"message"`
	RemovedItem   lineResponse    `json:"removed_item"`
	OrderStatus   order.Status    `json:"order_status"`
	OrderCanceled bool            `json:"order_canceled"`
	OrderTotals   *totalsResponse `json:"order_totals"`
}

type statsResponse struct {
	TotalOrders    int                  `json:"total_orders"`
	OrdersToday    int                  `json:"orders_today"`
	TotalRevenue   Money                `json:"total_revenue"`
	AverageTicket  Money                `json:"average_ticket"`
	OrdersByStatus map[order.Status]int `json:"orders_by_status"`
}

func toStats(s *order.Statistics) statsResponse {
	return statsResponse{
		TotalOrders:    s.TotalOrders,
		OrdersToday:    s.OrdersToday,
		TotalRevenue:   Money(s.TotalRevenue),
		AverageTicket:  Money(s.AverageTicket),
		OrdersByStatus: s.ByStatus,
	}
}

type deleteItemResponse struct {
	Message     string `json:"message"`
	ID          int64  `json:"id"`
	Deleted     bool   `json:"deleted"`
	Deactivated bool   `json:"deactivated"`
}

package api

import (
	"net/http"
	"strings"

	"pizzeria-be/internal/order"

	"github.com/gin-gonic/gin"
)

type addressRequest struct {
	Street       string  `json:"street" validate:"required,min=5,max=200"`
	Neighborhood string  `json:"neighborhood" validate:"required,min=2,max=100"`
	City         string  `json:"city" validate:"required,min=2,max=100"`
	State        string  `json:"state" validate:"required,len=2,alpha"`
	ZipCode      string  `json:"zip_code" validate:"required,zip_br"`
	Complement   *string `json:"complement" validate:"omitempty,max=100"`
	Reference    *string `json:"reference" validate:"omitempty,max=200"`
}

func (a *addressRequest) toAddress() *order.Address {
	if a == nil {
		return nil
	}
	return &order.Address{
		Street:       strings.TrimSpace(a.Street),
		Neighborhood: strings.TrimSpace(a.Neighborhood),
		City:         strings.TrimSpace(a.City),
		State:        strings.ToUpper(a.State),
		ZipCode:      normalizeZip(a.ZipCode),
		Complement:   a.Complement,
		Reference:    a.Reference,
	}
}

type lineRequest struct {
	ItemID       int64   `json:"item_id" validate:"gt=0"`
	Quantity     int     `json:"quantity" validate:"min=1,max=10"`
	Observations *string `json:"observations" validate:"omitempty,max=200"`
}

type createOrderRequest struct {
	CustomerName    *string         `json:"customer_name" validate:"omitempty,min=2,max=100"`
	CustomerPhone   string          `json:"customer_phone" validate:"required,phone_br"`
	IsDelivery      *bool           `json:"is_delivery"`
	DeliveryAddress *addressRequest `json:"delivery_address"`
	PaymentMethod   string          `json:"payment_method" validate:"required,oneof=cash credit_card debit_card pix meal_voucher"`
	Observations    *string         `json:"observations" validate:"omitempty,max=500"`
	Items           []lineRequest   `json:"items" validate:"required,min=1,max=50,dive"`
}

type addOrderItemRequest struct {
	ItemID       int64   `json:"item_id" validate:"gt=0"`
	Quantity     int     `json:"quantity" validate:"min=1,max=50"`
	Observations *string `json:"observations" validate:"omitempty,max=500"`
}

type setStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (s *Server) createOrder(c *gin.Context) {
	var req createOrderRequest
	if !s.bind(c, &req) {
		return
	}

	delivery := true
	if req.IsDelivery != nil {
		delivery = *req.IsDelivery
	}
	lines := make([]order.LineInput, 0, len(req.Items))
	for _, it := range req.Items {
		lines = append(lines, order.LineInput{
			ItemID:       it.ItemID,
			Quantity:     it.Quantity,
			Observations: it.Observations,
		})
	}

	o, err := s.orders.CreateOrder(c.Request.Context(), callerID(c), order.CreateInput{
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		IsDelivery:      delivery,
		DeliveryAddress: req.DeliveryAddress.toAddress(),
		PaymentMethod:   order.PaymentMethod(req.PaymentMethod),
		Observations:    req.Observations,
		Lines:           lines,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toOrder(o))
}

// listFilter reads skip, limit and status from the query string.
func listFilter(c *gin.Context) (order.ListFilter, bool) {
	var f order.ListFilter
	var ok bool
	if f.Offset, ok = queryInt(c, "skip", 0); !ok {
		return f, false
	}
	if f.Limit, ok = queryInt(c, "limit", 0); !ok {
		return f, false
	}
	if raw := c.Query("status"); raw != "" {
		st, err := order.ParseStatus(raw)
		if err != nil {
			writeError(c, err)
			return f, false
		}
		f.Status = &st
	}
	return f, true
}

func (s *Server) myOrders(c *gin.Context) {
	f, ok := listFilter(c)
	if !ok {
		return
	}
	list, err := s.orders.ListMine(c.Request.Context(), callerID(c), f)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSummaries(list))
}

func (s *Server) listOrders(c *gin.Context) {
	f, ok := listFilter(c)
	if !ok {
		return
	}
	if c.Query("user_id") != "" {
		uid, ok := queryID(c, "user_id")
		if !ok {
			return
		}
		f.UserID = &uid
	}

	list, err := s.orders.ListAll(c.Request.Context(), callerID(c), f)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSummaries(list))
}

func (s *Server) orderStats(c *gin.Context) {
	st, err := s.orders.Statistics(c.Request.Context(), callerID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toStats(st))
}

func (s *Server) getOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	o, err := s.orders.GetOrder(c.Request.Context(), callerID(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrder(o))
}

func (s *Server) addOrderItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req addOrderItemRequest
	if !s.bind(c, &req) {
		return
	}

	res, err := s.orders.AddItem(c.Request.Context(), callerID(c), id, order.AddItemInput{
		ItemID:       req.ItemID,
		Quantity:     req.Quantity,
		Observations: req.Observations,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	msg := "item added to order"
	if res.Merged {
		msg = "item quantity updated"
	}
	c.JSON(http.StatusOK, addItemResponse{
		Message:     msg,
		Merged:      res.Merged,
		Item:        toLine(res.Line),
		OrderTotals: toTotals(res.Totals),
	})
}

func (s *Server) removeOrderItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	lineID, ok := pathID(c, "line_id")
	if !ok {
		return
	}

	res, err := s.orders.RemoveItem(c.Request.Context(), callerID(c), id, lineID)
	if err != nil {
		writeError(c, err)
		return
	}

	out := removeItemResponse{
		Message:       "item removed from order",
		RemovedItem:   toLine(res.Removed),
		OrderStatus:   res.Order.Status,
		OrderCanceled: res.OrderCanceled,
	}
	if res.OrderCanceled {
		out.Message = "last item removed, order canceled"
	}
	if res.Totals != nil {
		t := toTotals(*res.Totals)
		out.OrderTotals = &t
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) setOrderStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req setStatusRequest
	if !s.bind(c, &req) {
		return
	}

	o, err := s.orders.SetStatus(c.Request.Context(), callerID(c), id, req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrder(o))
}

func (s *Server) cancelOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	o, err := s.orders.Cancel(c.Request.Context(), callerID(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrder(o))
}

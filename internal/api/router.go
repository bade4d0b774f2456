package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"pizzeria-be/internal/apperr"
	"pizzeria-be/internal/catalog"
	"pizzeria-be/internal/logger"
	"pizzeria-be/internal/metrics"
	"pizzeria-be/internal/order"
	"pizzeria-be/internal/user"
	"pizzeria-be/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const callerKey = "caller_id"

var errNotAuthenticated = apperr.Unauthenticated("not authenticated")

type Deps struct {
	Users   user.Service
	Catalog catalog.Service
	Orders  order.Service
	Metrics *metrics.Registry
}

type Server struct {
	users    user.Service
	catalog  catalog.Service
	orders   order.Service
	metrics  *metrics.Registry
	validate *validator.Validate
}

// NewRouter builds the gin engine. Authentication is expected to have run
// as net/http middleware before the engine sees the request.
func NewRouter(d Deps) *gin.Engine {
	if d.Metrics == nil {
		d.Metrics = metrics.NewRegistry()
	}
	s := &Server{
		users:    d.Users,
		catalog:  d.Catalog,
		orders:   d.Orders,
		metrics:  d.Metrics,
		validate: NewValidator(),
	}

	r := gin.New()
	r.Use(gin.CustomRecovery(func(c *gin.Context, rec any) {
		logger.FromCtx(c.Request.Context()).Error("panic recovered", zap.Any("panic", rec))
		writeError(c, apperr.Internal(nil))
	}))
	r.NoRoute(func(c *gin.Context) {
		writeError(c, apperr.NotFound("route not found"))
	})

	r.GET("/healthz", s.health)

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", s.register)
		authGroup.POST("/login", s.login)
		authGroup.POST("/refresh", s.refresh)
		authGroup.POST("/create-admin", requireCaller, s.createAdmin)
	}

	users := r.Group("/users", requireCaller)
	{
		users.GET("/me", s.me)
		users.PUT("/me", s.updateMe)
		users.GET("", s.listUsers)
		users.GET("/stats", s.userStats)
		users.GET("/:id", s.getUser)
		users.PATCH("/:id/toggle-admin", s.toggleAdmin)
		users.PATCH("/:id/toggle-active", s.toggleActive)
	}

	items := r.Group("/items")
	{
		items.GET("/menu", s.menu)
		items.GET("/categories", s.categories)
		items.GET("/search", s.searchItems)
		items.GET("", s.listItems)
		items.GET("/:id", s.getItem)
		items.POST("", requireCaller, s.createItem)
		items.PUT("/:id", requireCaller, s.updateItem)
		items.PATCH("/:id/toggle-availability", requireCaller, s.toggleItem)
		items.DELETE("/:id", requireCaller, s.deleteItem)
	}

	orders := r.Group("/orders", requireCaller)
	{
		orders.POST("", s.createOrder)
		orders.GET("/mine", s.myOrders)
		orders.GET("/stats", s.orderStats)
		orders.GET("", s.listOrders)
		orders.GET("/:id", s.getOrder)
		orders.POST("/:id/items", s.addOrderItem)
		orders.DELETE("/:id/items/:line_id", s.removeOrderItem)
		orders.PATCH("/:id/status", s.setOrderStatus)
		orders.POST("/:id/cancel", s.cancelOrder)
	}

	return r
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "metrics": s.metrics.Snapshot()})
}

// requireCaller rejects requests without a verified access token, reporting
// why the presented token was refused when there was one.
func requireCaller(c *gin.Context) {
	ctx := c.Request.Context()
	if id, ok := utils.GetUserIDFromContext(ctx); ok {
		c.Set(callerKey, id)
		c.Next()
		return
	}

	err := utils.AuthErrorFrom(ctx)
	if err == nil {
		err = errNotAuthenticated
	}
	writeError(c, err)
}

func callerID(c *gin.Context) int64 {
	if id, ok := c.Get(callerKey); ok {
		return id.(int64)
	}
	id, _ := utils.GetUserIDFromContext(c.Request.Context())
	return id
}

func writeError(c *gin.Context, err error) {
	e := apperr.As(err)
	status := apperr.HTTPStatus(e.Kind)

	switch {
	case status == http.StatusUnauthorized:
		c.Header("WWW-Authenticate", "Bearer")
	case status >= http.StatusInternalServerError:
		logger.FromCtx(c.Request.Context()).Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(e.Err),
		)
	}
	c.AbortWithStatusJSON(status, e)
}

// bind decodes the JSON body into req and runs the struct validations.
func (s *Server) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		writeError(c, errInvalidBody.Wrap(err))
		return false
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(c, validationError(err))
		return false
	}
	return true
}

// bindOptional is bind for endpoints whose body may be empty.
func (s *Server) bindOptional(c *gin.Context, req any) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return true
	}
	err := c.ShouldBindJSON(req)
	if err != nil && !errors.Is(err, io.EOF) {
		writeError(c, errInvalidBody.Wrap(err))
		return false
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(c, validationError(err))
		return false
	}
	return true
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := utils.ParseID(c.Param(name))
	if err != nil {
		writeError(c, apperr.Validation("invalid "+name).Wrap(err))
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		writeError(c, apperr.Validation("invalid "+name))
		return 0, false
	}
	return n, true
}

func queryBool(c *gin.Context, name string) (*bool, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		writeError(c, apperr.Validation("invalid "+name))
		return nil, false
	}
	return &b, true
}

func queryID(c *gin.Context, name string) (int64, bool) {
	id, err := utils.ParseID(c.Query(name))
	if err != nil {
		writeError(c, apperr.Validation("invalid "+name).Wrap(err))
		return 0, false
	}
	return id, true
}

package api

import (
	"net/http"
	"strings"

	"pizzeria-be/internal/catalog"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type createItemRequest struct {
	Name            string          `json:"name" validate:"required,min=2,max=100"`
	Description     *string         `json:"description" validate:"omitempty,max=500"`
	Category        string          `json:"category" validate:"required"`
	Size            string          `json:"size" validate:"required"`
	Price           decimal.Decimal `json:"price"`
	IsAvailable     *bool           `json:"is_available"`
	PreparationTime *int            `json:"preparation_time" validate:"omitempty,min=1,max=180"`
	Calories        *int            `json:"calories" validate:"omitempty,min=0,max=5000"`
	Ingredients     []string        `json:"ingredients" validate:"omitempty,max=50,dive,max=100"`
	Allergens       *string         `json:"allergens" validate:"omitempty,max=500"`
	ImageURL        *string         `json:"image_url" validate:"omitempty,max=500"`
}

type updateItemRequest struct {
	Name            *string          `json:"name" validate:"omitempty,min=2,max=100"`
	Description     *string          `json:"description" validate:"omitempty,max=500"`
	Category        *string          `json:"category"`
	Size            *string          `json:"size"`
	Price           *decimal.Decimal `json:"price"`
	IsAvailable     *bool            `json:"is_available"`
	PreparationTime *int             `json:"preparation_time" validate:"omitempty,min=1,max=180"`
	Calories        *int             `json:"calories" validate:"omitempty,min=0,max=5000"`
	Ingredients     *[]string        `json:"ingredients" validate:"omitempty,max=50,dive,max=100"`
	Allergens       *string          `json:"allergens" validate:"omitempty,max=500"`
	ImageURL        *string          `json:"image_url" validate:"omitempty,max=500"`
}

func optionalCategory(c *gin.Context) (*catalog.Category, bool) {
	raw := c.Query("category")
	if raw == "" {
		return nil, true
	}
	cat, err := catalog.ParseCategory(raw)
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	return &cat, true
}

func optionalSize(c *gin.Context) (*catalog.Size, bool) {
	raw := c.Query("size")
	if raw == "" {
		return nil, true
	}
	sz, err := catalog.ParseSize(raw)
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	return &sz, true
}

func (s *Server) menu(c *gin.Context) {
	cat, ok := optionalCategory(c)
	if !ok {
		return
	}
	size, ok := optionalSize(c)
	if !ok {
		return
	}

	items, err := s.catalog.Menu(c.Request.Context(), catalog.MenuFilter{Category: cat, Size: size})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toItems(items))
}

func (s *Server) categories(c *gin.Context) {
	out, err := s.catalog.Categories(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) searchItems(c *gin.Context) {
	cat, ok := optionalCategory(c)
	if !ok {
		return
	}
	availableOnly, ok := queryBool(c, "available_only")
	if !ok {
		return
	}
	only := availableOnly == nil || *availableOnly

	items, err := s.catalog.Search(c.Request.Context(), c.Query("q"), cat, only)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toItems(items))
}

// listItems is public. Unavailable items are only listed for admins.
func (s *Server) listItems(c *gin.Context) {
	skip, ok := queryInt(c, "skip", 0)
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return
	}
	cat, ok := optionalCategory(c)
	if !ok {
		return
	}
	size, ok := optionalSize(c)
	if !ok {
		return
	}
	availableOnly, ok := queryBool(c, "available_only")
	if !ok {
		return
	}

	items, err := s.catalog.List(c.Request.Context(), callerID(c), catalog.ListFilter{
		Offset:        skip,
		Limit:         limit,
		Category:      cat,
		Size:          size,
		AvailableOnly: availableOnly != nil && *availableOnly,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toItems(items))
}

func (s *Server) getItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	it, err := s.catalog.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toItem(it))
}

func (s *Server) createItem(c *gin.Context) {
	var req createItemRequest
	if !s.bind(c, &req) {
		return
	}

	cat, err := catalog.ParseCategory(req.Category)
	if err != nil {
		writeError(c, err)
		return
	}
	size, err := catalog.ParseSize(req.Size)
	if err != nil {
		writeError(c, err)
		return
	}
	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}

	it, err := s.catalog.Create(c.Request.Context(), callerID(c), catalog.CreateItemParams{
		Name:            strings.TrimSpace(req.Name),
		Description:     req.Description,
		Category:        cat,
		Size:            size,
		Price:           req.Price,
		IsAvailable:     available,
		PreparationTime: req.PreparationTime,
		Calories:        req.Calories,
		Ingredients:     req.Ingredients,
		Allergens:       req.Allergens,
		ImageURL:        req.ImageURL,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toItem(it))
}

func (s *Server) updateItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateItemRequest
	if !s.bind(c, &req) {
		return
	}

	p := catalog.UpdateItemParams{
		Name:            req.Name,
		Description:     req.Description,
		Price:           req.Price,
		IsAvailable:     req.IsAvailable,
		PreparationTime: req.PreparationTime,
		Calories:        req.Calories,
		Ingredients:     req.Ingredients,
		Allergens:       req.Allergens,
		ImageURL:        req.ImageURL,
	}
	if req.Category != nil {
		cat, err := catalog.ParseCategory(*req.Category)
		if err != nil {
			writeError(c, err)
			return
		}
		p.Category = &cat
	}
	if req.Size != nil {
		size, err := catalog.ParseSize(*req.Size)
		if err != nil {
			writeError(c, err)
			return
		}
		p.Size = &size
	}

	it, err := s.catalog.Update(c.Request.Context(), callerID(c), id, p)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toItem(it))
}

func (s *Server) toggleItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	it, err := s.catalog.ToggleAvailability(c.Request.Context(), callerID(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toItem(it))
}

func (s *Server) deleteItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	res, err := s.catalog.Delete(c.Request.Context(), callerID(c), id)
	if err != nil {
		writeError(c, err)
		return
	}

	msg := "item deleted"
	if res.Deactivated {
		msg = "item is referenced by orders and was made unavailable"
	}
	c.JSON(http.StatusOK, deleteItemResponse{
		Message:     msg,
		ID:          res.ID,
		Deleted:     res.Deleted,
		Deactivated: res.Deactivated,
	})
}

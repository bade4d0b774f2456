package api

import (
	"net/http"

	"pizzeria-be/internal/auth"
	"pizzeria-be/internal/user"

	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Username        string `json:"username" validate:"required,min=3,max=50,username_chars"`
	Email           string `json:"email" validate:"required,email,max=255"`
	Password        string `json:"password" validate:"required,min=8,max=100,password_strength"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

type createAdminRequest struct {
	registerRequest
	IsAdmin *bool `json:"is_admin"`
}

type loginRequest struct {
	EmailOrUsername string `json:"email_or_username" validate:"required"`
	Password        string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type updateMeRequest struct {
	Username *string `json:"username" validate:"omitempty,min=3,max=50,username_chars"`
	Email    *string `json:"email" validate:"omitempty,email,max=255"`
}

func (s *Server) register(c *gin.Context) {
	var req registerRequest
	if !s.bind(c, &req) {
		return
	}

	u, err := s.users.Register(c.Request.Context(), user.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toUser(u))
}

func (s *Server) createAdmin(c *gin.Context) {
	var req createAdminRequest
	if !s.bind(c, &req) {
		return
	}

	isAdmin := true
	if req.IsAdmin != nil {
		isAdmin = *req.IsAdmin
	}

	u, err := s.users.CreateUser(c.Request.Context(), callerID(c), user.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		IsAdmin:  isAdmin,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toUser(u))
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if !s.bind(c, &req) {
		return
	}

	res, err := s.users.Login(c.Request.Context(), req.EmailOrUsername, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	out := toTokens(res.TokenPair)
	profile := toUser(res.User)
	out.User = &profile
	c.JSON(http.StatusOK, out)
}

// refresh prefers a valid bearer access token over the body refresh token.
func (s *Server) refresh(c *gin.Context) {
	var req refreshRequest
	if !s.bindOptional(c, &req) {
		return
	}

	pair, err := s.users.Refresh(c.Request.Context(), auth.ExtractAccessToken(c.Request), req.RefreshToken)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTokens(*pair))
}

func (s *Server) me(c *gin.Context) {
	u, err := s.users.Me(c.Request.Context(), callerID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUser(u))
}

func (s *Server) updateMe(c *gin.Context) {
	var req updateMeRequest
	if !s.bind(c, &req) {
		return
	}

	u, err := s.users.UpdateMe(c.Request.Context(), callerID(c), user.UpdateProfileParams{
		Username: req.Username,
		Email:    req.Email,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUser(u))
}

func (s *Server) listUsers(c *gin.Context) {
	skip, ok := queryInt(c, "skip", 0)
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return
	}
	active, ok := queryBool(c, "is_active")
	if !ok {
		return
	}
	admin, ok := queryBool(c, "is_admin")
	if !ok {
		return
	}

	list, err := s.users.List(c.Request.Context(), callerID(c), user.ListFilter{
		Offset:   skip,
		Limit:    limit,
		IsActive: active,
		IsAdmin:  admin,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUsers(list))
}

func (s *Server) userStats(c *gin.Context) {
	st, err := s.users.Stats(c.Request.Context(), callerID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (s *Server) getUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	u, err := s.users.Get(c.Request.Context(), callerID(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUser(u))
}

func (s *Server) toggleAdmin(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	u, err := s.users.ToggleAdmin(c.Request.Context(), callerID(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUser(u))
}

func (s *Server) toggleActive(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	u, err := s.users.ToggleActive(c.Request.Context(), callerID(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUser(u))
}

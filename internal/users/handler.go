package users

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/karthik1704/rsr-v1/internal/shared/auth"
	"github.com/karthik1704/rsr-v1/internal/shared/server/middleware"
	"github.com/karthik1704/rsr-v1/internal/shared/server/respond"
)

// TokenIssuer signs access tokens for authenticated users.
type TokenIssuer interface {
	Generate(id auth.Identity) (string, error)
	TTL() time.Duration
}

type Handler struct {
	Svc          *Service
	Tokens       TokenIssuer
	SecureCookie bool
}

func NewHandler(svc *Service, tokens TokenIssuer, secureCookie bool) *Handler {
	return &Handler{Svc: svc, Tokens: tokens, SecureCookie: secureCookie}
}

type signupRequest struct {
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=8"`
	Password2  string `json:"password2" binding:"required,eqfield=Password"`
	FirstName  string `json:"firstName" binding:"max=150"`
	LastName   string `json:"lastName" binding:"max=150"`
	Phone      string `json:"phone" binding:"max=32"`
	ReferredBy string `json:"referredBy" binding:"max=150"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type tokenForm struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type userView struct {
	User
	FullName string `json:"fullName"`
	Premium  bool   `json:"premium"`
}

// RegisterAuthRoutes attaches the public signup and login endpoints.
func (h *Handler) RegisterAuthRoutes(rg *gin.RouterGroup) {
	rg.POST("/auth/signup", h.signup)
	rg.POST("/auth/login", h.login)
	rg.POST("/auth/token", h.token)
}

// RegisterRoutes attaches the authenticated user endpoints.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", h.me)
	rg.GET("/users", middleware.RequireStaff(h.Svc), h.list)
}

func (h *Handler) signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BindError(c, err)
		return
	}
	user, err := h.Svc.Signup(c.Request.Context(), SignupInput{
		Email:      req.Email,
		Password:   req.Password,
		Password2:  req.Password2,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Phone:      req.Phone,
		ReferredBy: req.ReferredBy,
	})
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.Created(c, h.view(user))
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BindError(c, err)
		return
	}
	h.issue(c, req.Email, req.Password, false)
}

// token accepts the OAuth2 password form and also sets the access_token
// cookie for browser clients.
func (h *Handler) token(c *gin.Context) {
	var form tokenForm
	if err := c.ShouldBind(&form); err != nil {
		respond.BindError(c, err)
		return
	}
	h.issue(c, form.Username, form.Password, true)
}

func (h *Handler) issue(c *gin.Context, email, password string, setCookie bool) {
	user, err := h.Svc.Authenticate(c.Request.Context(), email, password)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	token, err := h.Tokens.Generate(IdentityOf(user))
	if err != nil {
		respond.FromError(c, err)
		return
	}
	ttl := h.Tokens.TTL()
	if setCookie {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(middleware.AccessTokenCookie, token, int(ttl/time.Second), "/", "", h.SecureCookie, true)
	}
	respond.OK(c, tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int64(ttl / time.Second),
	})
}

func (h *Handler) me(c *gin.Context) {
	user, err := h.Svc.GetByID(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, h.view(user))
}

func (h *Handler) list(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	list, err := h.Svc.List(c.Request.Context(), limit, offset)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	out := make([]userView, 0, len(list))
	for _, u := range list {
		out = append(out, h.view(u))
	}
	respond.OK(c, gin.H{"items": out, "limit": limit, "offset": offset})
}

func (h *Handler) view(u User) userView {
	return userView{User: u, FullName: u.FullName(), Premium: u.PremiumAt(h.Svc.now())}
}

// IdentityOf maps a user onto token claims.
func IdentityOf(u User) auth.Identity {
	return auth.Identity{
		UserID:  u.ID,
		Email:   u.Email,
		Name:    u.FullName(),
		Picture: u.PictureURL,
		Staff:   u.IsStaff || u.IsSuperuser,
	}
}

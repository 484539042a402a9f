package payments

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/karthik1704/rsr-v1/internal/shared/apperr"
	"github.com/karthik1704/rsr-v1/internal/shared/server/middleware"
	"github.com/karthik1704/rsr-v1/internal/shared/server/respond"
)

const (
	signatureHeader = "Stripe-Signature"
	maxWebhookBytes = 64 << 10
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

type createRequest struct {
	Amount   int64   `json:"amount" binding:"required,gt=0"`
	Currency string  `json:"currency" binding:"required,len=3"`
	ResumeID *string `json:"resumeId"`
}

// RegisterRoutes attaches the authenticated payment endpoints.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/payments", h.create)
	rg.GET("/payments", h.list)
	rg.POST("/payments/:id/refresh", h.refresh)
}

// RegisterWebhook attaches the processor callback. It authenticates by
// signature, so it must be reachable without a user token.
func (h *Handler) RegisterWebhook(rg *gin.RouterGroup) {
	rg.POST("/payments/webhook", h.webhook)
}

func (h *Handler) create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BindError(c, err)
		return
	}
	out, err := h.Svc.Create(c.Request.Context(), middleware.UserIDFromContext(c), CreateInput{
		Amount:   req.Amount,
		Currency: req.Currency,
		ResumeID: req.ResumeID,
	})
	if err != nil {
		respond.FromError(c, err)
		return
	}
	c.Set(middleware.PaymentIDKey, out.Payment.ID)
	respond.Created(c, out)
}

func (h *Handler) list(c *gin.Context) {
	list, err := h.Svc.List(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, gin.H{"items": list})
}

func (h *Handler) refresh(c *gin.Context) {
	c.Set(middleware.PaymentIDKey, c.Param("id"))
	p, err := h.Svc.Refresh(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, p)
}

func (h *Handler) webhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBytes+1))
	if err != nil || len(payload) > maxWebhookBytes {
		respond.FromError(c, apperr.Validation("unreadable webhook payload"))
		return
	}
	if err := h.Svc.HandleWebhook(c.Request.Context(), payload, c.GetHeader(signatureHeader)); err != nil {
		respond.FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/acm-sigapp/club-backend/internal/domain"
	"github.com/acm-sigapp/club-backend/internal/usecase"
	"github.com/gin-gonic/gin"
)

// subscriptionUsecaser is the subset of SubscriptionUsecase the handler
// needs. Defined here (point of use) so tests can inject a fake.
type subscriptionUsecaser interface {
	Submit(ctx context.Context, rawEmail string) (usecase.Ack, error)
	Verify(ctx context.Context, token string) error
}

type SubscriptionHandler struct {
	usecase subscriptionUsecaser
	logger  *slog.Logger
}

func NewSubscriptionHandler(uc subscriptionUsecaser, logger *slog.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		usecase: uc,
		logger:  logger.With("component", "subscription_handler"),
	}
}

type subscribeRequest struct {
	Email string `json:"email"`
}

// GET /
// Info payload for uptime checks and the curious.
func (h *SubscriptionHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":   "Club newsletter backend is running!",
		"status":    "success",
		"endpoints": []string{"/subscribe", "/verify"},
	})
}

// POST /subscribe
// Body {"email": "..."} → 200 {"success": true} or {error, code}.
// Validation presence is checked in the usecase so an absent body and an
// empty email produce the same MISSING_EMAIL response.
func (h *SubscriptionHandler) Subscribe(c *gin.Context) {
	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// Malformed or absent body: treated as a missing email, matching
		// what the form can actually send.
		c.JSON(http.StatusBadRequest, gin.H{"error": errMissingEmail, "code": codeMissingEmail})
		return
	}

	ack, err := h.usecase.Submit(c.Request.Context(), req.Email)
	if err != nil {
		h.writeSubmitError(c, err)
		return
	}

	msg := "Subscribed! Check your inbox for a verification link."
	if !ack.Delivered {
		if ack.FallbackVerified {
			msg = "Subscribed successfully!"
		} else {
			msg = "Subscribed, but the verification email could not be sent. Please try again later."
		}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": msg})
}

func (h *SubscriptionHandler) writeSubmitError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrMissingEmail):
		c.JSON(http.StatusBadRequest, gin.H{"error": errMissingEmail, "code": codeMissingEmail})
	case errors.Is(err, domain.ErrInvalidDomain):
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidDomain, "code": codeInvalidDomain})
	case errors.Is(err, domain.ErrDuplicateEmail):
		c.JSON(http.StatusBadRequest, gin.H{"error": errDuplicateEmail, "code": codeDuplicateEmail})
	case errors.Is(err, domain.ErrStoreUnavailable):
		h.logger.Error("subscribe: record store unavailable", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errStoreUnavailable, "code": codeStoreUnavailable})
	default:
		h.logger.Error("subscribe failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer, "code": codeInternalError})
	}
}

// GET /verify?token=<raw>
// Browser-facing: renders a small status page rather than JSON.
func (h *SubscriptionHandler) Verify(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		h.statusPage(c, http.StatusBadRequest, "Invalid link", "This verification link is missing its token.")
		return
	}

	err := h.usecase.Verify(c.Request.Context(), token)
	switch {
	case err == nil:
		h.statusPage(c, http.StatusOK, "Email verified", "Your subscription is confirmed. You can close this tab.")
	case errors.Is(err, domain.ErrTokenInvalid):
		h.statusPage(c, http.StatusNotFound, "Expired or invalid", "This verification link has expired or was never issued.")
	default:
		h.logger.Error("verify failed", "error", err)
		h.statusPage(c, http.StatusInternalServerError, "Verification failed", "Something went wrong on our side. Please try again later.")
	}
}

func (h *SubscriptionHandler) statusPage(c *gin.Context, status int, title, detail string) {
	c.Data(status, "text/html; charset=utf-8", []byte(
		"<!DOCTYPE html><html><head><title>"+title+"</title></head>"+
			"<body><h1>"+title+"</h1><p>"+detail+"</p></body></html>",
	))
}

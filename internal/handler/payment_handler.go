// internal/handler/payment_handler.go
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"payment-orchestrator/internal/models"
	"payment-orchestrator/internal/service"
	"payment-orchestrator/pkg/middleware"
)

type PaymentHandler struct {
	service *service.PaymentService
	logger  *zap.Logger
}

func NewPaymentHandler(service *service.PaymentService, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		logger:  logger,
	}
}

// CreatePayment handles POST /api/v1/payments
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	var req models.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	intent, err := h.service.CreatePayment(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, "create payment", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"payment": intent})
}

// GetPayment handles GET /api/v1/payments/:id
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	intent, err := h.service.GetPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, "get payment", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"payment": intent})
}

// ListPayments handles GET /api/v1/payments
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	filter := &models.ListPaymentsFilter{
		MerchantID: c.Query("merchant_id"),
		Status:     models.IntentStatus(c.Query("status")),
	}

	intents, err := h.service.ListPayments(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, "list payments", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"payments": intents})
}

// ConfirmPayment handles POST /api/v1/payments/:id/confirm
func (h *PaymentHandler) ConfirmPayment(c *gin.Context) {
	var req models.ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	intent, err := h.service.ConfirmPayment(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.respondError(c, "confirm payment", err)
		return
	}

	middleware.RecordPaymentProcessed(string(intent.Status))

	response := gin.H{"payment": intent}
	if intent.Status == models.IntentStatusRequiresCustomerAction {
		response["next_action"] = "complete_3ds_authentication"
	}
	c.JSON(http.StatusOK, response)
}

// UpdatePayment handles POST /api/v1/payments/:id/update
func (h *PaymentHandler) UpdatePayment(c *gin.Context) {
	var req models.UpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	intent, err := h.service.UpdatePayment(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.respondError(c, "update payment", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"payment": intent})
}

// CancelPayment handles POST /api/v1/payments/:id/cancel
func (h *PaymentHandler) CancelPayment(c *gin.Context) {
	var req models.CancelPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	intent, err := h.service.CancelPayment(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.respondError(c, "cancel payment", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"payment": intent})
}

// CapturePayment handles POST /api/v1/payments/:id/capture
func (h *PaymentHandler) CapturePayment(c *gin.Context) {
	var req models.CaptureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	intent, err := h.service.CapturePayment(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.respondError(c, "capture payment", err)
		return
	}

	middleware.RecordPaymentProcessed(string(intent.Status))
	c.JSON(http.StatusOK, gin.H{"payment": intent})
}

// IncrementAuthorization handles POST /api/v1/payments/:id/increment_authorization
func (h *PaymentHandler) IncrementAuthorization(c *gin.Context) {
	var req models.IncrementAuthorizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	intent, err := h.service.IncrementAuthorization(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.respondError(c, "increment authorization", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"payment": intent})
}

// VoidPayment handles POST /api/v1/payments/:id/void
func (h *PaymentHandler) VoidPayment(c *gin.Context) {
	var req models.CancelPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	intent, err := h.service.VoidPayment(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.respondError(c, "void payment", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"payment": intent})
}

// ClientSecret handles GET /api/v1/payments/:id/client_secret
func (h *PaymentHandler) ClientSecret(c *gin.Context) {
	secret, err := h.service.GetClientSecret(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, "get client secret", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"client_secret": secret})
}

// ThreeDSChallenge handles POST /api/v1/payments/:id/3ds/challenge
func (h *PaymentHandler) ThreeDSChallenge(c *gin.Context) {
	var req models.ThreeDSChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	challenge, err := h.service.Handle3DSChallenge(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.respondError(c, "3ds challenge", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"challenge": challenge})
}

// ThreeDSResume handles POST /api/v1/payments/:id/3ds/resume
func (h *PaymentHandler) ThreeDSResume(c *gin.Context) {
	var req models.ThreeDSChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	intent, err := h.service.ResumeAfter3DS(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.respondError(c, "3ds resume", err)
		return
	}

	middleware.RecordPaymentProcessed(string(intent.Status))
	c.JSON(http.StatusOK, gin.H{"payment": intent})
}

// SyncPayment handles POST /api/v1/payments/:id/sync
func (h *PaymentHandler) SyncPayment(c *gin.Context) {
	forceSync := c.Query("force_sync") == "true"

	intent, err := h.service.SyncPayment(c.Request.Context(), c.Param("id"), forceSync)
	if err != nil {
		h.respondError(c, "sync payment", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"payment": intent})
}

// RoutingDecision handles GET /api/v1/attempts/:id/routing
func (h *PaymentHandler) RoutingDecision(c *gin.Context) {
	decision, err := h.service.GetRoutingDecision(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, "get routing decision", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"routing_decision": decision})
}

// respondError maps a typed orchestration error onto an HTTP response with
// the stable code and message only.
func (h *PaymentHandler) respondError(c *gin.Context, operation string, err error) {
	var oe *models.Error
	if !errors.As(err, &oe) {
		oe = models.NewError(models.ErrInternal, "internal error")
	}

	h.logger.Error("operation failed",
		zap.String("operation", operation),
		zap.String("payment_id", c.Param("id")),
		zap.String("code", string(oe.Code)),
		zap.Error(err))

	c.JSON(httpStatusFor(oe.Code), gin.H{
		"error": gin.H{
			"code":    oe.Code,
			"message": oe.Message,
		},
	})
}

func httpStatusFor(code models.ErrorCode) int {
	switch code {
	case models.ErrInvalidRequest, models.ErrInvalidAmount, models.ErrMissingConnectorInfo:
		return http.StatusBadRequest
	case models.ErrInvalidStatus:
		return http.StatusConflict
	case models.ErrPaymentNotFound, models.ErrPaymentAttemptNotFound,
		models.ErrRefundNotFound, models.ErrMandateNotFound:
		return http.StatusNotFound
	case models.ErrMandateInactive:
		return http.StatusUnprocessableEntity
	case models.ErrNoConnectorAvailable:
		return http.StatusServiceUnavailable
	case models.ErrInternal:
		return http.StatusInternalServerError
	default:
		// Connector-originated codes pass through as payment failures.
		return http.StatusPaymentRequired
	}
}

// internal/handler/refund_handler.go
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"payment-orchestrator/internal/models"
	"payment-orchestrator/internal/service"
)

type RefundHandler struct {
	service *service.PaymentService
	refunds service.RefundStore
	logger  *zap.Logger
}

func NewRefundHandler(svc *service.PaymentService, refunds service.RefundStore, logger *zap.Logger) *RefundHandler {
	return &RefundHandler{
		service: svc,
		refunds: refunds,
		logger:  logger,
	}
}

// CreateRefund handles POST /api/v1/payments/:id/refund
func (h *RefundHandler) CreateRefund(c *gin.Context) {
	var req models.RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	refund, err := h.service.RefundPayment(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		// The refund row may exist in failed state; include it so callers
		// can see what was recorded.
		code := models.CodeOf(err)
		h.logger.Error("refund failed",
			zap.String("payment_id", c.Param("id")),
			zap.String("code", string(code)),
			zap.Error(err))
		response := gin.H{"error": gin.H{"code": code, "message": errMessage(err)}}
		if refund != nil {
			response["refund"] = refund
		}
		c.JSON(httpStatusFor(code), response)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"refund": refund})
}

// SyncRefund handles POST /api/v1/refunds/:id/sync
func (h *RefundHandler) SyncRefund(c *gin.Context) {
	refund, err := h.service.SyncRefund(c.Request.Context(), c.Param("id"))
	if err != nil {
		code := models.CodeOf(err)
		c.JSON(httpStatusFor(code), gin.H{"error": gin.H{"code": code, "message": errMessage(err)}})
		return
	}

	c.JSON(http.StatusOK, gin.H{"refund": refund})
}

// ListRefunds handles GET /api/v1/payments/:id/refunds
func (h *RefundHandler) ListRefunds(c *gin.Context) {
	refunds, err := h.refunds.ListByPaymentID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.logger.Error("failed to list refunds",
			zap.String("payment_id", c.Param("id")),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list refunds"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"refunds": refunds})
}

func errMessage(err error) string {
	var oe *models.Error
	if errors.As(err, &oe) {
		return oe.Message
	}
	return "internal error"
}

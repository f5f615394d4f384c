package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ZeckoPlatform/zeckoplatform-sub003/internal/domain"
	"github.com/ZeckoPlatform/zeckoplatform-sub003/internal/repository"
	"github.com/ZeckoPlatform/zeckoplatform-sub003/internal/service"
	"github.com/ZeckoPlatform/zeckoplatform-sub003/pkg/logger"
)

// SubscriptionHandler обработчик HTTP запросов для подписок
type SubscriptionHandler struct {
	subscriptionSvc service.SubscriptionService
	log             *logger.Logger
}

// NewSubscriptionHandler создает новый обработчик подписок
func NewSubscriptionHandler(subscriptionSvc service.SubscriptionService, log *logger.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptionSvc: subscriptionSvc,
		log:             log,
	}
}

// StartSubscription создает новую подписку
func (h *SubscriptionHandler) StartSubscription(c *gin.Context) {
	var req domain.SubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid request: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	subscription, err := h.subscriptionSvc.Start(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err, "Failed to start subscription")
		return
	}

	c.JSON(http.StatusCreated, subscription)
}

// GetSubscription возвращает подписку по ID
func (h *SubscriptionHandler) GetSubscription(c *gin.Context) {
	id := c.Param("id")

	subscription, err := h.subscriptionSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "Failed to get subscription")
		return
	}

	c.JSON(http.StatusOK, subscription)
}

// ListSubscriptions возвращает подписки пользователя
func (h *SubscriptionHandler) ListSubscriptions(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id query parameter is required"})
		return
	}

	subscriptions, err := h.subscriptionSvc.GetByUserID(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err, "Failed to list subscriptions")
		return
	}

	c.JSON(http.StatusOK, subscriptions)
}

// HandleTrialEnd переводит подписку из пробного периода в активный статус.
// Вызывается планировщиком или вебхуком; повторные вызовы безопасны.
func (h *SubscriptionHandler) HandleTrialEnd(c *gin.Context) {
	id := c.Param("id")

	if err := h.subscriptionSvc.HandleTrialEnd(c.Request.Context(), id); err != nil {
		h.respondError(c, err, "Failed to handle trial end")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// CancelSubscription отменяет подписку
func (h *SubscriptionHandler) CancelSubscription(c *gin.Context) {
	id := c.Param("id")

	if err := h.subscriptionSvc.Cancel(c.Request.Context(), id); err != nil {
		h.respondError(c, err, "Failed to cancel subscription")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

// respondError переводит ошибки сервиса в HTTP статусы
func (h *SubscriptionHandler) respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, domain.ErrInvalidPaymentInput):
		h.log.Warn("Invalid payment input: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		h.log.Warn("Not found: %v", err)
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrInvalidData):
		h.log.Warn("Invalid identifier: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid identifier format"})
	case errors.Is(err, domain.ErrInvalidOperation):
		h.log.Warn("Invalid operation: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrExternalProvider):
		h.log.Error("Payment provider error: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "payment provider error"})
	default:
		h.log.Error("%s: %v", fallback, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

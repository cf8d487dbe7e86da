package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/medreza/honcho-rewards-ledger/pkg/middleware"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	store Pinger
}

func NewHealthHandler(store Pinger) *HealthHandler {
	return &HealthHandler{store: store}
}

func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		logrus.WithError(err).Error("Health: Store ping failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": "store unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

type Handlers struct {
	Rewards   *RewardsHandler
	GiftCards *GiftCardHandler
	Loyalty   *LoyaltyHandler
	Promos    *PromoHandler
	Health    *HealthHandler
}

func RegisterRoutes(router *gin.Engine, h Handlers, jwtSecret string) {
	auth := middleware.Authenticate(jwtSecret)
	admin := middleware.RequireRole(middleware.RoleAdmin)
	internal := middleware.RequireRole(middleware.RoleAdmin, middleware.RoleService)

	router.GET("/health", h.Health.Health)

	api := router.Group("/api")
	{
		rewards := api.Group("/rewards")
		rewards.GET("/contest/spots", h.Rewards.ContestSpots)
		rewards.POST("/spin", auth, h.Rewards.Spin)
		rewards.POST("/contest/enter", auth, h.Rewards.EnterContest)
		rewards.POST("/wishlist/submit", auth, h.Rewards.SubmitWishlist)
		rewards.GET("/codes", auth, h.Rewards.ListCodes)
		rewards.POST("/codes/:code/redeem", auth, h.Rewards.RedeemCode)

		giftCards := api.Group("/gift-cards")
		giftCards.GET("/balance/:code", h.GiftCards.CheckBalance)
		giftCards.POST("", auth, h.GiftCards.IssueGiftCard)
		giftCards.POST("/redeem/:code", auth, h.GiftCards.RedeemGiftCard)
		giftCards.POST("/:code/charge", auth, h.GiftCards.ChargeGiftCard)
		giftCards.GET("/:code", auth, admin, h.GiftCards.GetGiftCard)
		giftCards.PATCH("/:code/active", auth, admin, h.GiftCards.SetGiftCardActive)

		loyalty := api.Group("/loyalty", auth)
		loyalty.GET("/:userId", h.Loyalty.GetAccount)
		loyalty.POST("/:userId/accrue", internal, h.Loyalty.AccruePoints)
		loyalty.POST("/:userId/redeem", h.Loyalty.RedeemPoints)

		promos := api.Group("/promo-codes")
		promos.POST("/validate", h.Promos.ValidatePromo)
		promos.POST("/:code/commit", auth, internal, h.Promos.CommitUsage)
		promos.GET("", auth, admin, h.Promos.ListPromoCodes)
		promos.POST("", auth, admin, h.Promos.CreatePromoCode)
		promos.PATCH("/:code", auth, admin, h.Promos.UpdatePromoCode)
		promos.DELETE("/:code", auth, admin, h.Promos.DeletePromoCode)
	}
}

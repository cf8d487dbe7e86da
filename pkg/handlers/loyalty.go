package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/medreza/honcho-rewards-ledger/pkg/ledger"
	"github.com/medreza/honcho-rewards-ledger/pkg/middleware"
	"github.com/medreza/honcho-rewards-ledger/pkg/models"
)

type LoyaltyHandler struct {
	loyalty *ledger.LoyaltyManager
}

func NewLoyaltyHandler(loyalty *ledger.LoyaltyManager) *LoyaltyHandler {
	return &LoyaltyHandler{loyalty: loyalty}
}

// ownAccount returns the account owner from the path when the caller is that
// user or an admin, and writes 403 otherwise.
func ownAccount(c *gin.Context, op string) (string, bool) {
	target := c.Param("userId")
	if target == middleware.UserID(c) || middleware.IsAdmin(c) {
		return target, true
	}
	logrus.WithFields(logrus.Fields{
		"user_id": middleware.UserID(c),
		"target":  target,
	}).Warn(op + ": Access to another user's account denied")
	c.JSON(http.StatusForbidden, gin.H{"error": "Access denied", "code": "forbidden"})
	return "", false
}

func (h *LoyaltyHandler) GetAccount(c *gin.Context) {
	userID, ok := ownAccount(c, "GetAccount")
	if !ok {
		return
	}

	acct, err := h.loyalty.GetOrCreate(c.Request.Context(), userID)
	if err != nil {
		respondError(c, "GetAccount", err, logrus.Fields{"user_id": userID})
		return
	}

	c.JSON(http.StatusOK, acct)
}

func (h *LoyaltyHandler) AccruePoints(c *gin.Context) {
	var req models.AccruePointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, "AccruePoints", err)
		return
	}
	userID := c.Param("userId")

	acct, err := h.loyalty.Accrue(c.Request.Context(), userID, req.Points, req.OrderRef, req.Type)
	if err != nil {
		respondError(c, "AccruePoints", err, logrus.Fields{
			"user_id":   userID,
			"points":    req.Points,
			"order_ref": req.OrderRef,
		})
		return
	}

	logrus.WithFields(logrus.Fields{
		"user_id": userID,
		"points":  req.Points,
		"total":   acct.TotalPoints,
		"tier":    acct.Tier,
	}).Info("AccruePoints: Points credited")
	c.JSON(http.StatusOK, acct)
}

func (h *LoyaltyHandler) RedeemPoints(c *gin.Context) {
	userID, ok := ownAccount(c, "RedeemPoints")
	if !ok {
		return
	}
	var req models.RedeemPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, "RedeemPoints", err)
		return
	}

	remaining, err := h.loyalty.RedeemPoints(c.Request.Context(), userID, req.Points)
	if err != nil {
		respondError(c, "RedeemPoints", err, logrus.Fields{"user_id": userID, "points": req.Points})
		return
	}

	c.JSON(http.StatusOK, models.RedeemPointsResponse{Remaining: remaining})
}

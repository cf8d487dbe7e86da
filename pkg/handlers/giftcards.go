package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/medreza/honcho-rewards-ledger/pkg/ledger"
	"github.com/medreza/honcho-rewards-ledger/pkg/middleware"
	"github.com/medreza/honcho-rewards-ledger/pkg/models"
)

type GiftCardHandler struct {
	cards *ledger.GiftCardLedger
}

func NewGiftCardHandler(cards *ledger.GiftCardLedger) *GiftCardHandler {
	return &GiftCardHandler{cards: cards}
}

func giftCardResponse(gc *models.GiftCard) models.GiftCardResponse {
	return models.GiftCardResponse{GiftCard: *gc, Status: string(ledger.GiftCardStatus(gc, now()))}
}

func (h *GiftCardHandler) IssueGiftCard(c *gin.Context) {
	var req models.IssueGiftCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, "IssueGiftCard", err)
		return
	}
	userID := middleware.UserID(c)

	gc, err := h.cards.Issue(c.Request.Context(), ledger.IssueGiftCardParams{
		Amount:         req.Amount,
		RecipientEmail: req.RecipientEmail,
		RecipientName:  req.RecipientName,
		SenderName:     req.SenderName,
		Message:        req.Message,
		ExpiryDate:     req.ExpiryDate,
		PurchasedBy:    userID,
	})
	if err != nil {
		respondError(c, "IssueGiftCard", err, logrus.Fields{"user_id": userID, "amount": req.Amount.String()})
		return
	}

	logrus.WithFields(logrus.Fields{"user_id": userID, "code": gc.Code}).Info("IssueGiftCard: Gift card issued")
	c.JSON(http.StatusCreated, giftCardResponse(gc))
}

func (h *GiftCardHandler) RedeemGiftCard(c *gin.Context) {
	code := c.Param("code")
	userID := middleware.UserID(c)

	gc, err := h.cards.Redeem(c.Request.Context(), code, userID)
	if err != nil {
		respondError(c, "RedeemGiftCard", err, logrus.Fields{"user_id": userID, "code": code})
		return
	}

	c.JSON(http.StatusOK, models.RedeemGiftCardResponse{Balance: gc.Balance, Code: gc.Code})
}

func (h *GiftCardHandler) CheckBalance(c *gin.Context) {
	code := c.Param("code")

	gc, err := h.cards.CheckBalance(c.Request.Context(), code)
	if err != nil {
		respondError(c, "CheckBalance", err, logrus.Fields{"code": code})
		return
	}

	c.JSON(http.StatusOK, models.GiftCardBalanceResponse{Balance: gc.Balance, IsActive: gc.Active})
}

func (h *GiftCardHandler) ChargeGiftCard(c *gin.Context) {
	var req models.ChargeGiftCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, "ChargeGiftCard", err)
		return
	}
	code := c.Param("code")

	gc, err := h.cards.ApplyCharge(c.Request.Context(), code, req.Amount, req.OrderRef)
	if err != nil {
		respondError(c, "ChargeGiftCard", err, logrus.Fields{
			"code":      code,
			"order_ref": req.OrderRef,
			"amount":    req.Amount.String(),
		})
		return
	}

	logrus.WithFields(logrus.Fields{
		"code":      gc.Code,
		"order_ref": req.OrderRef,
		"balance":   gc.Balance.String(),
	}).Info("ChargeGiftCard: Charge applied")
	c.JSON(http.StatusOK, giftCardResponse(gc))
}

func (h *GiftCardHandler) GetGiftCard(c *gin.Context) {
	code := c.Param("code")

	gc, err := h.cards.Get(c.Request.Context(), code)
	if err != nil {
		respondError(c, "GetGiftCard", err, logrus.Fields{"code": code})
		return
	}

	c.JSON(http.StatusOK, giftCardResponse(gc))
}

func (h *GiftCardHandler) SetGiftCardActive(c *gin.Context) {
	var req models.SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, "SetGiftCardActive", err)
		return
	}
	code := c.Param("code")

	gc, err := h.cards.SetActive(c.Request.Context(), code, *req.Active)
	if err != nil {
		respondError(c, "SetGiftCardActive", err, logrus.Fields{"code": code})
		return
	}

	c.JSON(http.StatusOK, giftCardResponse(gc))
}

package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/medreza/honcho-rewards-ledger/pkg/ledger"
	"github.com/medreza/honcho-rewards-ledger/pkg/middleware"
	"github.com/medreza/honcho-rewards-ledger/pkg/models"
)

type RewardsHandler struct {
	allocator *ledger.Allocator
}

func NewRewardsHandler(allocator *ledger.Allocator) *RewardsHandler {
	return &RewardsHandler{allocator: allocator}
}

func (h *RewardsHandler) Spin(c *gin.Context) {
	userID := middleware.UserID(c)

	res, err := h.allocator.Spin(c.Request.Context(), userID)
	if err != nil {
		respondError(c, "Spin", err, logrus.Fields{"user_id": userID})
		return
	}

	logrus.WithFields(logrus.Fields{
		"user_id": userID,
		"code":    res.Code,
		"prize":   res.Prize.Label(),
	}).Info("Spin: Prize issued")

	c.JSON(http.StatusOK, models.SpinResponse{
		Code:     res.Code,
		Prize:    res.Prize.Label(),
		Discount: res.Prize.Discount,
		Type:     res.Prize.Type,
	})
}

func (h *RewardsHandler) EnterContest(c *gin.Context) {
	var req models.EnterContestRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondBindError(c, "EnterContest", err)
		return
	}
	userID := middleware.UserID(c)

	res, err := h.allocator.EnterContest(c.Request.Context(), userID, req.Method)
	if err != nil {
		respondError(c, "EnterContest", err, logrus.Fields{"user_id": userID, "method": req.Method})
		return
	}

	if res.IsWinner {
		logrus.WithFields(logrus.Fields{"user_id": userID, "code": res.Code}).Info("EnterContest: Winner drawn")
		c.JSON(http.StatusOK, models.ContestResponse{
			IsWinner: true,
			Code:     res.Code,
			Discount: res.Discount,
			Message:  fmt.Sprintf("Congratulations! You won %d%% OFF! Code: %s", res.Discount, res.Code),
		})
		return
	}

	spots := res.SpotsRemaining
	c.JSON(http.StatusOK, models.ContestResponse{
		IsWinner:       false,
		SpotsRemaining: &spots,
		Message:        "Entry submitted! Better luck tomorrow!",
	})
}

func (h *RewardsHandler) ContestSpots(c *gin.Context) {
	remaining, err := h.allocator.ContestSpots(c.Request.Context())
	if err != nil {
		respondError(c, "ContestSpots", err, nil)
		return
	}

	c.JSON(http.StatusOK, models.ContestSpotsResponse{
		SpotsRemaining: remaining,
		SpotsTotal:     h.allocator.DailySpots(),
	})
}

func (h *RewardsHandler) SubmitWishlist(c *gin.Context) {
	var req models.SubmitWishlistRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondBindError(c, "SubmitWishlist", err)
		return
	}
	userID := middleware.UserID(c)

	dc, err := h.allocator.SubmitWishlist(c.Request.Context(), userID, req.Items)
	if err != nil {
		respondError(c, "SubmitWishlist", err, logrus.Fields{"user_id": userID})
		return
	}

	c.JSON(http.StatusOK, models.WishlistResponse{
		Code:     dc.Code,
		Discount: dc.DiscountPercent,
		Message:  fmt.Sprintf("Your Santa code: %s - %d%% OFF!", dc.Code, dc.DiscountPercent),
	})
}

func (h *RewardsHandler) ListCodes(c *gin.Context) {
	userID := middleware.UserID(c)

	codes, err := h.allocator.ActiveCodes(c.Request.Context(), userID)
	if err != nil {
		respondError(c, "ListCodes", err, logrus.Fields{"user_id": userID})
		return
	}

	at := now()
	response := make([]models.DiscountCodeResponse, 0, len(codes))
	for i := range codes {
		response = append(response, models.DiscountCodeResponse{
			DiscountCode: codes[i],
			Status:       string(ledger.DiscountCodeStatus(&codes[i], at)),
		})
	}
	c.JSON(http.StatusOK, response)
}

func (h *RewardsHandler) RedeemCode(c *gin.Context) {
	code := c.Param("code")
	userID := middleware.UserID(c)

	dc, err := h.allocator.RedeemDiscountCode(c.Request.Context(), code, userID)
	if err != nil {
		respondError(c, "RedeemCode", err, logrus.Fields{"user_id": userID, "code": code})
		return
	}

	c.JSON(http.StatusOK, models.DiscountCodeResponse{
		DiscountCode: *dc,
		Status:       string(ledger.DiscountCodeStatus(dc, now())),
	})
}

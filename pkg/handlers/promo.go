package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/medreza/honcho-rewards-ledger/pkg/ledger"
	"github.com/medreza/honcho-rewards-ledger/pkg/models"
)

type PromoHandler struct {
	promos *ledger.PromoService
}

func NewPromoHandler(promos *ledger.PromoService) *PromoHandler {
	return &PromoHandler{promos: promos}
}

func promoResponse(p *models.PromoCode) models.PromoCodeResponse {
	return models.PromoCodeResponse{PromoCode: *p, Status: string(ledger.PromoCodeStatus(p, now()))}
}

func (h *PromoHandler) ValidatePromo(c *gin.Context) {
	var req models.ValidatePromoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, "ValidatePromo", err)
		return
	}

	p, discount, err := h.promos.ValidateCode(c.Request.Context(), req.Code, req.OrderAmount)
	if err != nil {
		respondError(c, "ValidatePromo", err, logrus.Fields{"code": req.Code, "order_amount": req.OrderAmount.String()})
		return
	}

	c.JSON(http.StatusOK, models.ValidatePromoResponse{
		Valid:        true,
		Discount:     discount,
		DiscountType: p.DiscountType,
		Code:         p.Code,
	})
}

func (h *PromoHandler) CommitUsage(c *gin.Context) {
	code := c.Param("code")

	p, err := h.promos.CommitUsage(c.Request.Context(), code)
	if err != nil {
		respondError(c, "CommitUsage", err, logrus.Fields{"code": code})
		return
	}

	logrus.WithFields(logrus.Fields{"code": p.Code, "used_count": p.UsedCount}).Info("CommitUsage: Usage recorded")
	c.JSON(http.StatusOK, promoResponse(p))
}

func (h *PromoHandler) ListPromoCodes(c *gin.Context) {
	promos, err := h.promos.List(c.Request.Context())
	if err != nil {
		respondError(c, "ListPromoCodes", err, nil)
		return
	}

	response := make([]models.PromoCodeResponse, 0, len(promos))
	for i := range promos {
		response = append(response, promoResponse(&promos[i]))
	}
	c.JSON(http.StatusOK, response)
}

func (h *PromoHandler) CreatePromoCode(c *gin.Context) {
	var req models.CreatePromoCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, "CreatePromoCode", err)
		return
	}

	p, err := h.promos.Create(c.Request.Context(), ledger.CreatePromoParams{
		Code:           req.Code,
		Prefix:         req.Prefix,
		Description:    req.Description,
		DiscountType:   req.DiscountType,
		DiscountValue:  req.DiscountValue,
		MaxUses:        req.MaxUses,
		MinOrderAmount: req.MinOrderAmount,
		ExpiresAt:      req.ExpiresAt,
	})
	if err != nil {
		respondError(c, "CreatePromoCode", err, logrus.Fields{"code": req.Code, "prefix": req.Prefix})
		return
	}

	logrus.WithField("code", p.Code).Info("CreatePromoCode: Promo code created")
	c.JSON(http.StatusCreated, promoResponse(p))
}

func (h *PromoHandler) UpdatePromoCode(c *gin.Context) {
	var req models.UpdatePromoCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, "UpdatePromoCode", err)
		return
	}
	code := c.Param("code")

	p, err := h.promos.Update(c.Request.Context(), code, req)
	if err != nil {
		respondError(c, "UpdatePromoCode", err, logrus.Fields{"code": code})
		return
	}

	c.JSON(http.StatusOK, promoResponse(p))
}

func (h *PromoHandler) DeletePromoCode(c *gin.Context) {
	code := c.Param("code")

	if err := h.promos.Delete(c.Request.Context(), code); err != nil {
		respondError(c, "DeletePromoCode", err, logrus.Fields{"code": code})
		return
	}

	logrus.WithField("code", code).Info("DeletePromoCode: Promo code deleted")
	c.JSON(http.StatusOK, gin.H{"message": "Promo code deleted"})
}

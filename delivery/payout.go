package delivery

import (
	"net/http"

	"yayago/config"
	"yayago/domain"
	"yayago/dto"
	"yayago/middleware"
	"yayago/utils"

	"github.com/gin-gonic/gin"
)

type PayoutHandler struct {
	payoutUC domain.PayoutUseCase
}

func NewPayoutHandler(r *gin.Engine, payoutUC domain.PayoutUseCase, jwtManager *utils.JWTManager) {
	handler := &PayoutHandler{payoutUC: payoutUC}

	payouts := r.Group("/partner/payouts")
	payouts.Use(config.AuthMiddleware(jwtManager))
	payouts.Use(middleware.PartnerOnly())
	{
		payouts.GET("/account", handler.Account)
		payouts.POST("/onboarding-link", handler.OnboardingLink)
		payouts.POST("/account-session", handler.AccountSession)
		payouts.POST("/refresh", handler.Refresh)
	}
}

func orgUUID(c *gin.Context) (string, bool) {
	val, exists := c.Get("orgUUID")
	org, ok := val.(string)
	if !exists || !ok || org == "" {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"message": "No organization attached to this account",
		})
		return "", false
	}
	return org, true
}

func (h *PayoutHandler) Account(c *gin.Context) {
	org, ok := orgUUID(c)
	if !ok {
		return
	}

	view, err := h.payoutUC.Account(c.Request.Context(), org)
	if err != nil {
		respondFlowError(c, &org, "PayoutAccount", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    view,
	})
}

func (h *PayoutHandler) OnboardingLink(c *gin.Context) {
	org, ok := orgUUID(c)
	if !ok {
		return
	}

	var req dto.OnboardingLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.PrintLogInfo(&org, 400, "OnboardingLink", &err)
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid request",
			"error":   utils.TranslateValidationError(err),
		})
		return
	}

	url, err := h.payoutUC.OnboardingLink(c.Request.Context(), org, req.RefreshURL, req.ReturnURL)
	if err != nil {
		respondFlowError(c, &org, "OnboardingLink", err)
		return
	}

	utils.PrintLogInfo(&org, 200, "OnboardingLink", nil)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"url": url},
	})
}

func (h *PayoutHandler) AccountSession(c *gin.Context) {
	org, ok := orgUUID(c)
	if !ok {
		return
	}

	secret, err := h.payoutUC.AccountSession(c.Request.Context(), org)
	if err != nil {
		respondFlowError(c, &org, "AccountSession", err)
		return
	}

	utils.PrintLogInfo(&org, 200, "AccountSession", nil)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"client_secret": secret},
	})
}

func (h *PayoutHandler) Refresh(c *gin.Context) {
	org, ok := orgUUID(c)
	if !ok {
		return
	}

	view, err := h.payoutUC.Refresh(c.Request.Context(), org)
	if err != nil {
		respondFlowError(c, &org, "PayoutRefresh", err)
		return
	}

	utils.PrintLogInfo(&org, 200, "PayoutRefresh", nil)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    view,
	})
}

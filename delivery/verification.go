package delivery

import (
	"io"
	"net/http"

	"yayago/config"
	"yayago/domain"
	"yayago/dto"
	"yayago/middleware"
	"yayago/utils"

	"github.com/gin-gonic/gin"
)

type VerificationHandler struct {
	verifUC  domain.VerificationUseCase
	payoutUC domain.PayoutUseCase
}

func NewVerificationHandler(r *gin.Engine, verifUC domain.VerificationUseCase, payoutUC domain.PayoutUseCase, jwtManager *utils.JWTManager) {
	handler := &VerificationHandler{verifUC: verifUC, payoutUC: payoutUC}

	// Ping Route (no rate limiting)
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	verification := r.Group("/partner/verification")
	verification.Use(config.AuthMiddleware(jwtManager))
	verification.Use(middleware.PartnerOnly())
	{
		verification.POST("/session", handler.OpenSession)
		verification.GET("/session", handler.GetSession)
		verification.DELETE("/session", handler.CloseSession)
		verification.POST("/evidence/:step", handler.AttachEvidence)
		verification.DELETE("/evidence/:step", handler.RetakeEvidence)
		verification.POST("/next", handler.Next)
		verification.POST("/back", handler.Back)
		verification.POST("/otp/request", handler.RequestOtp)
		verification.POST("/otp/verify", handler.VerifyOtp)
		verification.POST("/submit", handler.Submit)
		verification.GET("/status", handler.Status)
	}
}

func partnerUUID(c *gin.Context) (string, bool) {
	val, exists := c.Get("userUUID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"message": "Unauthorized: missing user context",
		})
		return "", false
	}
	uuid, ok := val.(string)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"message": "Invalid user UUID type",
		})
		return "", false
	}
	return uuid, true
}

func (h *VerificationHandler) OpenSession(c *gin.Context) {
	uuid, ok := partnerUUID(c)
	if !ok {
		return
	}

	session, err := h.verifUC.OpenSession(c.Request.Context(), uuid)
	if err != nil {
		respondFlowError(c, &uuid, "OpenSession", err)
		return
	}

	utils.PrintLogInfo(&uuid, 200, "OpenSession", nil)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Verification session opened",
		"data":    dto.MakeSessionResponse(session),
	})
}

func (h *VerificationHandler) GetSession(c *gin.Context) {
	uuid, ok := partnerUUID(c)
	if !ok {
		return
	}

	session, err := h.verifUC.GetSession(c.Request.Context(), uuid)
	if err != nil {
		respondFlowError(c, &uuid, "GetSession", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    dto.MakeSessionResponse(session),
	})
}

func (h *VerificationHandler) CloseSession(c *gin.Context) {
	uuid, ok := partnerUUID(c)
	if !ok {
		return
	}

	if err := h.verifUC.CloseSession(c.Request.Context(), uuid); err != nil {
		respondFlowError(c, &uuid, "CloseSession", err)
		return
	}

	utils.PrintLogInfo(&uuid, 200, "CloseSession", nil)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Verification session closed",
	})
}

func (h *VerificationHandler) AttachEvidence(c *gin.Context) {
	uuid, ok := partnerUUID(c)
	if !ok {
		return
	}

	step := domain.VerificationStep(c.Param("step"))
	if !step.Valid() {
		utils.PrintLogInfo(&uuid, 400, "AttachEvidence", nil)
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Unknown verification step",
		})
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		utils.PrintLogInfo(&uuid, 400, "AttachEvidence", &err)
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Image file is required",
			"error":   err.Error(),
		})
		return
	}

	src, err := file.Open()
	if err != nil {
		respondFlowError(c, &uuid, "AttachEvidence", err)
		return
	}
	defer src.Close()

	// Read one byte past the ceiling so the size check can trip.
	data, err := io.ReadAll(io.LimitReader(src, domain.MaxEvidenceBytes+1))
	if err != nil {
		respondFlowError(c, &uuid, "AttachEvidence", err)
		return
	}

	session, err := h.verifUC.AttachEvidence(c.Request.Context(), uuid, step, data)
	if err != nil {
		respondFlowError(c, &uuid, "AttachEvidence", err)
		return
	}

	utils.PrintLogInfo(&uuid, 200, "AttachEvidence", nil)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": utils.StepLabel(string(step)) + " captured",
		"data":    dto.MakeSessionResponse(session),
	})
}

func (h *VerificationHandler) RetakeEvidence(c *gin.Context) {
	uuid, ok := partnerUUID(c)
	if !ok {
		return
	}

	step := domain.VerificationStep(c.Param("step"))
	if !step.Valid() {
		utils.PrintLogInfo(&uuid, 400, "RetakeEvidence", nil)
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Unknown verification step",
		})
		return
	}

	session, err := h.verifUC.RetakeEvidence(c.Request.Context(), uuid, step)
	if err != nil {
		respondFlowError(c, &uuid, "RetakeEvidence", err)
		return
	}

	utils.PrintLogInfo(&uuid, 200, "RetakeEvidence", nil)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": utils.StepLabel(string(step)) + " cleared",
		"data":    dto.MakeSessionResponse(session),
	})
}

func (h *VerificationHandler) Next(c *gin.Context) {
	uuid, ok := partnerUUID(c)
	if !ok {
		return
	}

	session, err := h.verifUC.Next(c.Request.Context(), uuid)
	if err != nil {
		respondFlowError(c, &uuid, "Next", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    dto.MakeSessionResponse(session),
	})
}

func (h *VerificationHandler) Back(c *gin.Context) {
	uuid, ok := partnerUUID(c)
	if !ok {
		return
	}

	session, err := h.verifUC.Back(c.Request.Context(), uuid)
	if err != nil {
		respondFlowError(c, &uuid, "Back", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    dto.MakeSessionResponse(session),
	})
}

func (h *VerificationHandler) RequestOtp(c *gin.Context) {
	uuid, ok := partnerUUID(c)
	if !ok {
		return
	}

	var req dto.RequestOtpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.PrintLogInfo(&uuid, 400, "RequestOtp", &err)
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid request",
			"error":   utils.TranslateValidationError(err),
		})
		return
	}

	if err := h.verifUC.RequestOtp(c.Request.Context(), uuid, req.Phone); err != nil {
		respondFlowError(c, &uuid, "RequestOtp", err)
		return
	}

	utils.PrintLogInfo(&uuid, 200, "RequestOtp", nil)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Verification code sent to " + utils.MaskPhone(req.Phone),
	})
}

func (h *VerificationHandler) VerifyOtp(c *gin.Context) {
	uuid, ok := partnerUUID(c)
	if !ok {
		return
	}

	var req dto.VerifyOtpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.PrintLogInfo(&uuid, 400, "VerifyOtp", &err)
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid request",
			"error":   utils.TranslateValidationError(err),
		})
		return
	}

	session, err := h.verifUC.VerifyOtp(c.Request.Context(), uuid, req.Code)
	if err != nil {
		respondFlowError(c, &uuid, "VerifyOtp", err)
		return
	}

	utils.PrintLogInfo(&uuid, 200, "VerifyOtp", nil)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Phone number verified",
		"data":    dto.MakeSessionResponse(session),
	})
}

func (h *VerificationHandler) Submit(c *gin.Context) {
	uuid, ok := partnerUUID(c)
	if !ok {
		return
	}

	session, err := h.verifUC.Submit(c.Request.Context(), uuid)
	if err != nil {
		// A rejected submission still carries the updated session so the
		// UI can land the partner back on the last step.
		if session != nil {
			status := statusForKind(domain.KindOf(err))
			utils.PrintLogInfo(&uuid, status, "Submit", &err)
			c.JSON(status, gin.H{
				"success":   false,
				"message":   err.Error(),
				"error":     string(domain.KindOf(err)),
				"retryable": domain.IsRetryable(err),
				"data":      dto.MakeSessionResponse(session),
			})
			return
		}
		respondFlowError(c, &uuid, "Submit", err)
		return
	}

	utils.PrintLogInfo(&uuid, 200, "Submit", nil)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Verification submitted for review",
		"data":    dto.MakeSessionResponse(session),
	})
}

func (h *VerificationHandler) Status(c *gin.Context) {
	uuid, ok := partnerUUID(c)
	if !ok {
		return
	}

	info, err := h.verifUC.Status(c.Request.Context(), uuid)
	if err != nil {
		respondFlowError(c, &uuid, "Status", err)
		return
	}

	// Payout eligibility piggybacks on the provisioning flow; a provider
	// hiccup must not break the verification badge.
	payoutEligible := false
	if info.OrgUUID != "" {
		if view, err := h.payoutUC.Account(c.Request.Context(), info.OrgUUID); err == nil {
			payoutEligible = info.BookingEligible && view.PayoutEligible
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"verification_status": info.VerificationStatus,
			"phone_verified":      info.PhoneVerified,
			"booking_eligible":    info.BookingEligible,
			"payout_eligible":     payoutEligible,
		},
	})
}

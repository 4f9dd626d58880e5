package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	accountUC "github.com/khoahotran/talent-forge/internal/application/usecase/account"
	authUC "github.com/khoahotran/talent-forge/internal/application/usecase/auth"
	"github.com/khoahotran/talent-forge/pkg/apperror"
)

// AccountHandler serves the signed-in user's own account and MFA settings.
type AccountHandler struct {
	overviewUC *accountUC.OverviewUseCase
	mfaUC      *authUC.MFAUseCase
}

func NewAccountHandler(overviewUC *accountUC.OverviewUseCase, mfaUC *authUC.MFAUseCase) *AccountHandler {
	return &AccountHandler{overviewUC: overviewUC, mfaUC: mfaUC}
}

func (h *AccountHandler) Me(c *gin.Context) {
	userID, ok := GetUserIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewUnauthorized("user not found in context", nil))
		return
	}

	out, err := h.overviewUC.Execute(c.Request.Context(), accountUC.OverviewInput{UserID: userID})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ToAccountDTO(out))
}

func (h *AccountHandler) MFAQRCode(c *gin.Context) {
	userID, ok := GetUserIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewUnauthorized("user not found in context", nil))
		return
	}

	out, err := h.mfaUC.ExecuteEnroll(c.Request.Context(), authUC.EnrollInput{UserID: userID})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, EnrollmentDTO{QRCode: out.QRCode, ProvisioningURI: out.ProvisioningURI, State: out.State.String()})
}

func (h *AccountHandler) MFAConfirm(c *gin.Context) {
	userID, ok := GetUserIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewUnauthorized("user not found in context", nil))
		return
	}

	var req confirmMFARequest
	if err := c.ShouldBind(&req); err != nil {
		c.Error(bindError(err))
		return
	}

	out, err := h.mfaUC.ExecuteConfirm(c.Request.Context(), authUC.ConfirmInput{UserID: userID, Code: req.OTPCode})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"mfa_enabled": out.MFAEnabled})
}

func (h *AccountHandler) MFADisable(c *gin.Context) {
	userID, ok := GetUserIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewUnauthorized("user not found in context", nil))
		return
	}

	out, err := h.mfaUC.ExecuteDisable(c.Request.Context(), authUC.DisableInput{UserID: userID})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"mfa_enabled": false, "changed": out.Changed})
}

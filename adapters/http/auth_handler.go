package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	authUC "github.com/khoahotran/talent-forge/internal/application/usecase/auth"
	"github.com/khoahotran/talent-forge/pkg/apperror"
	"github.com/khoahotran/talent-forge/pkg/logger"
)

const pendingCookie = "pending_token"

type AuthHandler struct {
	signupUC   *authUC.SignupUseCase
	loginUC    *authUC.LoginUseCase
	verifyUC   *authUC.VerifyOTPUseCase
	mfaUC      *authUC.MFAUseCase
	logoutUC   *authUC.LogoutUseCase
	pendingTTL time.Duration
	logger     logger.Logger
}

func NewAuthHandler(
	signupUC *authUC.SignupUseCase,
	loginUC *authUC.LoginUseCase,
	verifyUC *authUC.VerifyOTPUseCase,
	mfaUC *authUC.MFAUseCase,
	logoutUC *authUC.LogoutUseCase,
	pendingTTL time.Duration,
	log logger.Logger,
) *AuthHandler {
	return &AuthHandler{
		signupUC:   signupUC,
		loginUC:    loginUC,
		verifyUC:   verifyUC,
		mfaUC:      mfaUC,
		logoutUC:   logoutUC,
		pendingTTL: pendingTTL,
		logger:     log,
	}
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(bindError(err))
		return
	}

	out, err := h.signupUC.Execute(c.Request.Context(), authUC.SignupInput{
		Email:           req.Email,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
		UserType:        req.UserType,
	})
	if err != nil {
		c.Error(err)
		return
	}

	h.setPendingCookie(c, out.PendingToken)
	c.JSON(http.StatusCreated, gin.H{
		"user_id":       out.UserID,
		"pending_token": out.PendingToken,
	})
}

// Login answers 200 with a token, or 202 when a second factor is still owed.
// With enrollment_required set the client opens /mfa/enroll before verifying.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(bindError(err))
		return
	}

	out, err := h.loginUC.Execute(c.Request.Context(), authUC.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		c.Error(err)
		return
	}

	if out.MFARequired {
		h.setPendingCookie(c, out.PendingToken)
		c.JSON(http.StatusAccepted, PendingDTO{
			MFARequired:        true,
			EnrollmentRequired: out.EnrollmentRequired,
			PendingToken:       out.PendingToken,
		})
		return
	}
	c.JSON(http.StatusOK, TokenDTO{AccessToken: out.AccessToken, TokenType: "Bearer", ExpiresAt: out.ExpiresAt})
}

// EnrollPending shows the QR code to an account that has signed up but not
// yet confirmed its first code.
func (h *AuthHandler) EnrollPending(c *gin.Context) {
	token := h.pendingToken(c, c.Query("pending_token"))

	out, err := h.mfaUC.ExecuteEnrollPending(c.Request.Context(), token)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, EnrollmentDTO{QRCode: out.QRCode, ProvisioningURI: out.ProvisioningURI, State: out.State.String()})
}

// VerifyOTP accepts JSON or form fields.
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req verifyOTPRequest
	if err := c.ShouldBind(&req); err != nil {
		c.Error(bindError(err))
		return
	}

	out, err := h.verifyUC.Execute(c.Request.Context(), authUC.VerifyOTPInput{
		PendingToken: h.pendingToken(c, req.PendingToken),
		UserID:       req.UserID,
		Code:         req.OTPCode,
	})
	if err != nil {
		c.Error(err)
		return
	}

	h.clearPendingCookie(c)
	c.JSON(http.StatusOK, gin.H{
		"access_token": out.AccessToken,
		"token_type":   "Bearer",
		"expires_at":   out.ExpiresAt,
		"user_id":      out.UserID,
		"mfa_enabled":  out.MFAEnabled,
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	sessionID, ok := GetSessionIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewUnauthorized("session not found in context", nil))
		return
	}
	if err := h.logoutUC.Execute(c.Request.Context(), authUC.LogoutInput{SessionID: sessionID}); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// pendingToken prefers the explicit value and falls back to the cookie set at
// signup or login.
func (h *AuthHandler) pendingToken(c *gin.Context, explicit string) string {
	if explicit != "" {
		return explicit
	}
	token, err := c.Cookie(pendingCookie)
	if err != nil {
		return ""
	}
	return token
}

func (h *AuthHandler) setPendingCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(pendingCookie, token, int(h.pendingTTL.Seconds()), "/api/auth", "", false, true)
}

func (h *AuthHandler) clearPendingCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(pendingCookie, "", -1, "/api/auth", "", false, true)
}

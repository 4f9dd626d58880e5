package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	employerUC "github.com/khoahotran/talent-forge/internal/application/usecase/employer"
	"github.com/khoahotran/talent-forge/pkg/apperror"
)

type EmployerHandler struct {
	profileUC *employerUC.ProfileUseCase
}

func NewEmployerHandler(profileUC *employerUC.ProfileUseCase) *EmployerHandler {
	return &EmployerHandler{profileUC: profileUC}
}

func (h *EmployerHandler) CreateProfile(c *gin.Context) {
	userID, ok := GetUserIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewUnauthorized("user not found in context", nil))
		return
	}
	userType, _ := GetUserTypeFromGinContext(c)

	var req createEmployerProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(bindError(err))
		return
	}

	input := req.toInput()
	input.UserID = userID
	input.UserType = userType
	out, err := h.profileUC.ExecuteCreateProfile(c.Request.Context(), input)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "employer profile created", "profile_id": out.ProfileID})
}

func (h *EmployerHandler) GetProfile(c *gin.Context) {
	userID, ok := GetUserIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewUnauthorized("user not found in context", nil))
		return
	}

	out, err := h.profileUC.ExecuteGetProfile(c.Request.Context(), employerUC.GetProfileInput{UserID: userID})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ToEmployerProfileDTO(out.Profile))
}

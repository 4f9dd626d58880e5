package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	jobseekerUC "github.com/khoahotran/talent-forge/internal/application/usecase/jobseeker"
	skillUC "github.com/khoahotran/talent-forge/internal/application/usecase/skill"
	"github.com/khoahotran/talent-forge/pkg/apperror"
)

type JobSeekerHandler struct {
	createUC *jobseekerUC.CreateProfileUseCase
	getUC    *jobseekerUC.GetProfileUseCase
}

func NewJobSeekerHandler(createUC *jobseekerUC.CreateProfileUseCase, getUC *jobseekerUC.GetProfileUseCase) *JobSeekerHandler {
	return &JobSeekerHandler{createUC: createUC, getUC: getUC}
}

func (h *JobSeekerHandler) CreateProfile(c *gin.Context) {
	userID, ok := GetUserIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewUnauthorized("user not found in context", nil))
		return
	}
	userType, _ := GetUserTypeFromGinContext(c)

	var req createJobSeekerProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(bindError(err))
		return
	}

	input := req.toInput()
	input.UserID = userID
	input.UserType = userType
	out, err := h.createUC.Execute(c.Request.Context(), input)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "job seeker profile created", "profile_id": out.ProfileID})
}

func (h *JobSeekerHandler) GetProfile(c *gin.Context) {
	userID, ok := GetUserIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewUnauthorized("user not found in context", nil))
		return
	}

	out, err := h.getUC.Execute(c.Request.Context(), jobseekerUC.GetProfileInput{UserID: userID})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ToJobSeekerProfileDTO(out.Profile))
}

type SkillHandler struct {
	listUC *skillUC.ListSkillsUseCase
}

func NewSkillHandler(listUC *skillUC.ListSkillsUseCase) *SkillHandler {
	return &SkillHandler{listUC: listUC}
}

func (h *SkillHandler) List(c *gin.Context) {
	out, err := h.listUC.Execute(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	items := make([]SkillDTO, len(out.Skills))
	for i, s := range out.Skills {
		items[i] = SkillDTO{ID: s.ID.String(), Name: s.Name}
	}
	c.JSON(http.StatusOK, gin.H{"data": items})
}

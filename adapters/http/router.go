package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/khoahotran/talent-forge/internal/domain/asset"
	"github.com/khoahotran/talent-forge/internal/domain/user"
	"github.com/khoahotran/talent-forge/pkg/logger"
)

type Handlers struct {
	Auth      *AuthHandler
	Account   *AccountHandler
	Employer  *EmployerHandler
	JobSeeker *JobSeekerHandler
	Skill     *SkillHandler
	Asset     *AssetHandler
}

type RouterOptions struct {
	// ServiceName enables request spans when set.
	ServiceName string

	// AuthRateLimit and AuthRateBurst throttle /api/auth per client IP.
	AuthRateLimit float64
	AuthRateBurst int
}

// NewRouter wires every route. authMW must reject requests without a live
// session.
func NewRouter(h Handlers, authMW gin.HandlerFunc, opts RouterOptions, log logger.Logger) (*gin.Engine, error) {
	if err := RegisterValidators(); err != nil {
		return nil, err
	}

	router := gin.New()
	router.MaxMultipartMemory = maxAssetSize
	router.Use(gin.Recovery())
	if opts.ServiceName != "" {
		router.Use(otelgin.Middleware(opts.ServiceName))
	}
	router.Use(RequestLogger(log))
	router.Use(ErrorMiddleware(log))

	api := router.Group("/api")
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP"})
	})
	api.GET("/skills", h.Skill.List)

	authGroup := api.Group("/auth", RateLimit(opts.AuthRateLimit, opts.AuthRateBurst))
	{
		authGroup.POST("/signup", h.Auth.Signup)
		authGroup.POST("/login", h.Auth.Login)
		authGroup.GET("/mfa/enroll", h.Auth.EnrollPending)
		authGroup.POST("/mfa/verify", h.Auth.VerifyOTP)
		authGroup.POST("/logout", authMW, h.Auth.Logout)
	}

	private := api.Group("/")
	private.Use(authMW)
	{
		private.GET("/me", h.Account.Me)
		private.GET("/me/mfa/qrcode", h.Account.MFAQRCode)
		private.POST("/me/mfa/confirm", h.Account.MFAConfirm)
		private.POST("/me/mfa/disable", h.Account.MFADisable)

		employerGroup := private.Group("/employer", RequireUserType(user.TypeEmployer))
		{
			employerGroup.POST("/profile", h.Employer.CreateProfile)
			employerGroup.GET("/profile", h.Employer.GetProfile)
			employerGroup.POST("/profile/logo", h.Asset.Upload(asset.KindLogo))
		}

		seekerGroup := private.Group("/jobseeker", RequireUserType(user.TypeJobSeeker))
		{
			seekerGroup.POST("/profile", h.JobSeeker.CreateProfile)
			seekerGroup.GET("/profile", h.JobSeeker.GetProfile)
			seekerGroup.POST("/profile/picture", h.Asset.Upload(asset.KindPicture))
			seekerGroup.POST("/profile/resume", h.Asset.Upload(asset.KindResume))
		}
	}

	return router, nil
}

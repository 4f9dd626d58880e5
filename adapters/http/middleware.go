package http

import (
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/khoahotran/talent-forge/internal/domain/session"
	"github.com/khoahotran/talent-forge/internal/domain/user"
	"github.com/khoahotran/talent-forge/pkg/apperror"
	"github.com/khoahotran/talent-forge/pkg/auth"
	"github.com/khoahotran/talent-forge/pkg/logger"
)

const (
	GinContextKeyUserID    = "userID"
	GinContextKeyUserType  = "userType"
	GinContextKeySessionID = "sessionID"
	GinContextKeyRequestID = "request_id"
)

// AuthMiddleware accepts a bearer token only while its session is still
// registered, so logout takes effect before the token expires.
func AuthMiddleware(jwtSvc *auth.JWTService, sessions session.Store, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token format"})
			return
		}

		claims, err := jwtSvc.ValidateToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		live, err := sessions.Exists(c.Request.Context(), claims.SessionID())
		if err != nil {
			log.Error("Failed to check session", err, zap.String("user_id", claims.UserID.String()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
		if !live {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Session has ended"})
			return
		}

		c.Set(GinContextKeyUserID, claims.UserID)
		c.Set(GinContextKeyUserType, user.Type(claims.UserType))
		c.Set(GinContextKeySessionID, claims.SessionID())

		c.Next()
	}
}

// RequireUserType rejects callers whose account type is not listed.
func RequireUserType(types ...user.Type) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, _ := GetUserTypeFromGinContext(c)
		if !slices.Contains(types, t) {
			c.Error(apperror.NewPermissionDenied("this endpoint is not available for your account type"))
			c.Abort()
			return
		}
		c.Next()
	}
}

func GetUserIDFromGinContext(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(GinContextKeyUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

func GetUserTypeFromGinContext(c *gin.Context) (user.Type, bool) {
	v, ok := c.Get(GinContextKeyUserType)
	if !ok {
		return "", false
	}
	t, ok := v.(user.Type)
	return t, ok
}

func GetSessionIDFromGinContext(c *gin.Context) (string, bool) {
	id := c.GetString(GinContextKeySessionID)
	return id, id != ""
}

// ErrorMiddleware renders the last error a handler attached with c.Error.
func ErrorMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		var appErr *apperror.AppError
		if !errors.As(err, &appErr) {
			appErr = apperror.NewInternal("unexpected error", err)
		}

		status := apperror.ToHTTPStatus(appErr)
		if status >= http.StatusInternalServerError {
			log.Error("Request failed", appErr.Cause(),
				zap.String("path", c.FullPath()),
				zap.String("details", appErr.Details),
				zap.String("request_id", c.GetString(GinContextKeyRequestID)),
			)
		}

		if c.Writer.Written() {
			return
		}
		c.AbortWithStatusJSON(status, appErr.ToJSON())
	}
}

// RequestLogger tags each request with an id and logs it once finished.
func RequestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		reqID := c.GetHeader("X-Request-Id")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Header("X-Request-Id", reqID)
		c.Set(GinContextKeyRequestID, reqID)

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("request_id", reqID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", status),
			zap.Int64("latency_ms", time.Since(start).Milliseconds()),
			zap.String("ip", c.ClientIP()),
		}
		if id, ok := GetUserIDFromGinContext(c); ok {
			fields = append(fields, zap.String("user_id", id.String()))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case status >= 500:
			log.Error("request", nil, fields...)
		case status >= 400:
			log.Warn("request", fields...)
		default:
			log.Info("request", fields...)
		}
	}
}

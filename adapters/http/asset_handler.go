package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	assetUC "github.com/khoahotran/talent-forge/internal/application/usecase/asset"
	"github.com/khoahotran/talent-forge/internal/domain/asset"
	"github.com/khoahotran/talent-forge/pkg/apperror"
	"github.com/khoahotran/talent-forge/pkg/logger"
)

// maxAssetSize caps a single upload.
const maxAssetSize = 10 << 20

type AssetHandler struct {
	uploadUC *assetUC.UploadAssetUseCase
	logger   logger.Logger
}

func NewAssetHandler(uploadUC *assetUC.UploadAssetUseCase, log logger.Logger) *AssetHandler {
	return &AssetHandler{uploadUC: uploadUC, logger: log}
}

// Upload returns a handler that stores the multipart "file" field as the
// given asset kind of the caller's profile.
func (h *AssetHandler) Upload(kind asset.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := GetUserIDFromGinContext(c)
		if !ok {
			c.Error(apperror.NewUnauthorized("user not found in context", nil))
			return
		}
		userType, _ := GetUserTypeFromGinContext(c)

		fileHeader, err := c.FormFile("file")
		if err != nil {
			c.Error(apperror.NewInvalidInput("'file' is required", err))
			return
		}
		if fileHeader.Size > maxAssetSize {
			c.Error(apperror.NewInvalidInput("'file' must be at most 10MB", nil))
			return
		}
		file, err := fileHeader.Open()
		if err != nil {
			c.Error(apperror.NewInternal("failed to open file", err))
			return
		}
		defer file.Close()

		out, err := h.uploadUC.Execute(c.Request.Context(), assetUC.UploadAssetInput{
			UserID:   userID,
			UserType: userType,
			Kind:     string(kind),
			File:     file,
		})
		if err != nil {
			c.Error(err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"kind":      kind,
			"url":       out.URL,
			"public_id": out.PublicID,
		})
	}
}

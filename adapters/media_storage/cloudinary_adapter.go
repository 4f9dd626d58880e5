package media_storage

import (
	"context"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/khoahotran/talent-forge/internal/application/service"
	"github.com/khoahotran/talent-forge/internal/config"
	"github.com/khoahotran/talent-forge/pkg/logger"
)

// ThumbnailTransformation crops logos and pictures to a square around the
// detected subject.
const ThumbnailTransformation = "c_fill,g_auto,w_200,h_200"

type cloudinaryAdapter struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinaryAdapter(cfg config.Config, log logger.Logger) (service.Uploader, error) {
	if cfg.Cloudinary.CloudName == "" {
		return nil, fmt.Errorf("cloudinary cloud_name has not config")
	}

	cld, err := cloudinary.NewFromParams(
		cfg.Cloudinary.CloudName,
		cfg.Cloudinary.ApiKey,
		cfg.Cloudinary.ApiSecret,
	)
	if err != nil {
		return nil, fmt.Errorf("cannot init cloudinary: %w", err)
	}

	log.Info("Connect Cloudinary successfully.")
	return &cloudinaryAdapter{cld: cld}, nil
}

// Upload lets Cloudinary detect the resource type so resumes (PDF) and images
// share one path.
func (a *cloudinaryAdapter) Upload(ctx context.Context, file io.Reader, folder string, publicID string) (string, error) {
	uploadParams := uploader.UploadParams{
		PublicID:     publicID,
		Folder:       folder,
		ResourceType: "auto",
	}
	result, err := a.cld.Upload.Upload(ctx, file, uploadParams)
	if err != nil {
		return "", fmt.Errorf("failed to upload cloudinary: %w", err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("cloudinary rejected upload: %s", result.Error.Message)
	}
	return result.SecureURL, nil
}

func (a *cloudinaryAdapter) Delete(ctx context.Context, publicID string) error {
	_, err := a.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID: publicID,
	})
	if err != nil {
		return fmt.Errorf("failed to delete cloudinary: %w", err)
	}
	return nil
}

func (a *cloudinaryAdapter) ThumbnailURL(publicID string) (string, error) {
	if publicID == "" {
		return "", fmt.Errorf("public id is required")
	}
	img, err := a.cld.Image(publicID)
	if err != nil {
		return "", fmt.Errorf("failed to create cloudinary asset: %w", err)
	}
	img.Transformation = ThumbnailTransformation

	url, err := img.String()
	if err != nil {
		return "", fmt.Errorf("failed to build thumbnail URL: %w", err)
	}
	return url, nil
}

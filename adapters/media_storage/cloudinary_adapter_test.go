package media_storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/talent-forge/internal/config"
	"github.com/khoahotran/talent-forge/pkg/logger"
)

func TestNewCloudinaryAdapter_RequiresCloudName(t *testing.T) {
	_, err := NewCloudinaryAdapter(config.Config{}, logger.NewNop())
	assert.Error(t, err)
}

func TestThumbnailURL(t *testing.T) {
	var cfg config.Config
	cfg.Cloudinary.CloudName = "demo"
	cfg.Cloudinary.ApiKey = "key"
	cfg.Cloudinary.ApiSecret = "secret"

	up, err := NewCloudinaryAdapter(cfg, logger.NewNop())
	require.NoError(t, err)

	url, err := up.ThumbnailURL("users/42/logo/abc")
	require.NoError(t, err)
	assert.Contains(t, url, "https://res.cloudinary.com/demo/image/upload/")
	assert.Contains(t, url, ThumbnailTransformation+"/")
	assert.Contains(t, url, "users/42/logo/abc")

	_, err = up.ThumbnailURL("")
	assert.Error(t, err)
}

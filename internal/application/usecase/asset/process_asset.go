package asset

import (
	"context"

	"go.uber.org/zap"

	"github.com/khoahotran/talent-forge/adapters/event"
	"github.com/khoahotran/talent-forge/internal/application/service"
	"github.com/khoahotran/talent-forge/internal/domain/asset"
	"github.com/khoahotran/talent-forge/internal/domain/employer"
	"github.com/khoahotran/talent-forge/internal/domain/jobseeker"
	"github.com/khoahotran/talent-forge/pkg/apperror"
	"github.com/khoahotran/talent-forge/pkg/logger"
)

// ProcessAssetUseCase runs in the worker: it derives thumbnails for uploaded
// images. Replaying an event rewrites the same URL.
type ProcessAssetUseCase struct {
	owners   owners
	uploader service.Uploader
	logger   logger.Logger
}

func NewProcessAssetUseCase(
	employers employer.Repository,
	jobSeekers jobseeker.Repository,
	u service.Uploader,
	log logger.Logger,
) *ProcessAssetUseCase {
	return &ProcessAssetUseCase{owners: owners{employers: employers, jobSeekers: jobSeekers}, uploader: u, logger: log}
}

func (uc *ProcessAssetUseCase) Execute(ctx context.Context, payload event.ProfileEventPayload) error {
	l := uc.logger.With(zap.String("user_id", payload.UserID.String()), zap.String("event_type", string(payload.EventType)))

	if payload.EventType != event.ProfileEventAssetUploaded {
		l.Debug("Ignoring profile event")
		return nil
	}

	kind, err := asset.ParseKind(payload.AssetKind)
	if err != nil {
		l.Warn("Unknown asset kind, skipping event", zap.String("asset_kind", payload.AssetKind))
		return nil
	}
	if !kind.IsImage() {
		l.Info("Asset is not an image, no thumbnail needed", zap.String("asset_kind", string(kind)))
		return nil
	}

	thumbURL, err := uc.uploader.ThumbnailURL(payload.PublicID)
	if err != nil {
		return apperror.NewInternal("failed to build thumbnail URL", err)
	}

	store, _ := uc.owners.forKind(kind)
	if err := store.SetThumbnailURL(ctx, payload.UserID, kind, thumbURL); err != nil {
		if isProfileNotFound(err) {
			l.Warn("Profile not found, skipping event")
			return nil
		}
		return apperror.NewInternal("failed to store thumbnail URL", err)
	}

	l.Info("Stored asset thumbnail", zap.String("asset_kind", string(kind)))
	return nil
}

package asset

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/khoahotran/talent-forge/adapters/event"
	"github.com/khoahotran/talent-forge/internal/application/service"
	"github.com/khoahotran/talent-forge/internal/domain/asset"
	"github.com/khoahotran/talent-forge/internal/domain/employer"
	"github.com/khoahotran/talent-forge/internal/domain/jobseeker"
	"github.com/khoahotran/talent-forge/internal/domain/user"
	"github.com/khoahotran/talent-forge/pkg/apperror"
	"github.com/khoahotran/talent-forge/pkg/logger"
)

var tracer = otel.Tracer("asset_usecase")

// owners resolves which profile table holds an asset kind.
type owners struct {
	employers  employer.Repository
	jobSeekers jobseeker.Repository
}

type owner interface {
	asset.Store
	ExistsForUser(ctx context.Context, userID uuid.UUID) (bool, error)
}

func (o owners) forKind(kind asset.Kind) (owner, user.Type) {
	if kind == asset.KindLogo {
		return o.employers, user.TypeEmployer
	}
	return o.jobSeekers, user.TypeJobSeeker
}

func isProfileNotFound(err error) bool {
	return errors.Is(err, employer.ErrProfileNotFound) || errors.Is(err, jobseeker.ErrProfileNotFound)
}

type UploadAssetUseCase struct {
	owners    owners
	uploader  service.Uploader
	publisher service.EventPublisher
	logger    logger.Logger
}

func NewUploadAssetUseCase(
	employers employer.Repository,
	jobSeekers jobseeker.Repository,
	u service.Uploader,
	publisher service.EventPublisher,
	log logger.Logger,
) *UploadAssetUseCase {
	return &UploadAssetUseCase{
		owners:    owners{employers: employers, jobSeekers: jobSeekers},
		uploader:  u,
		publisher: publisher,
		logger:    log,
	}
}

type UploadAssetInput struct {
	UserID   uuid.UUID
	UserType user.Type
	Kind     string
	File     io.Reader
}

type UploadAssetOutput struct {
	URL      string
	PublicID string
}

func (uc *UploadAssetUseCase) Execute(ctx context.Context, input UploadAssetInput) (*UploadAssetOutput, error) {
	ctx, span := tracer.Start(ctx, "UploadAsset")
	defer span.End()

	kind, err := asset.ParseKind(input.Kind)
	if err != nil {
		return nil, apperror.NewInvalidInput(err.Error(), err)
	}
	if input.File == nil {
		return nil, apperror.NewInvalidInput("file is required", nil)
	}
	span.SetAttributes(attribute.String("user_id", input.UserID.String()), attribute.String("asset_kind", string(kind)))

	store, ownerType := uc.owners.forKind(kind)
	if input.UserType != ownerType {
		return nil, apperror.NewPermissionDenied(fmt.Sprintf("%s uploads are limited to %s accounts", kind, ownerType))
	}

	// Checked before uploading so a missing profile does not leave an orphan file.
	exists, err := store.ExistsForUser(ctx, input.UserID)
	if err != nil {
		return nil, apperror.NewInternal("failed to check profile", err)
	}
	if !exists {
		return nil, apperror.NewNotFound(string(ownerType)+" profile", input.UserID.String())
	}

	folder := fmt.Sprintf("users/%s/%s", input.UserID.String(), kind)
	name := uuid.NewString()
	publicID := folder + "/" + name

	url, err := uc.uploader.Upload(ctx, input.File, folder, name)
	if err != nil {
		return nil, apperror.NewInternal("failed to upload file", err)
	}

	if err := store.SetAssetURL(ctx, input.UserID, kind, url); err != nil {
		go uc.uploader.Delete(context.Background(), publicID)
		if isProfileNotFound(err) {
			return nil, apperror.NewNotFound(string(ownerType)+" profile", input.UserID.String())
		}
		uc.logger.Error("Failed to store asset url", err, zap.String("user_id", input.UserID.String()))
		return nil, apperror.NewInternal("failed to store asset url", err)
	}

	service.PublishProfileEvent(uc.publisher, uc.logger, event.ProfileEventPayload{
		EventType:   event.ProfileEventAssetUploaded,
		UserID:      input.UserID,
		ProfileType: string(ownerType),
		AssetKind:   string(kind),
		PublicID:    publicID,
	})

	return &UploadAssetOutput{URL: url, PublicID: publicID}, nil
}

package asset

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/talent-forge/adapters/event"
	"github.com/khoahotran/talent-forge/internal/domain/employer"
	"github.com/khoahotran/talent-forge/internal/domain/jobseeker"
	"github.com/khoahotran/talent-forge/internal/domain/user"
	"github.com/khoahotran/talent-forge/internal/testutil/memstore"
	"github.com/khoahotran/talent-forge/pkg/apperror"
	"github.com/khoahotran/talent-forge/pkg/logger"
)

type fixture struct {
	db       *memstore.DB
	uploader *memstore.Uploader
	pub      *memstore.Publisher
	upload   *UploadAssetUseCase
	process  *ProcessAssetUseCase
}

func newFixture() *fixture {
	db := memstore.New()
	up := memstore.NewUploader()
	pub := &memstore.Publisher{}
	return &fixture{
		db:       db,
		uploader: up,
		pub:      pub,
		upload:   NewUploadAssetUseCase(db.Employers(), db.JobSeekers(), up, pub, logger.NewNop()),
		process:  NewProcessAssetUseCase(db.Employers(), db.JobSeekers(), up, logger.NewNop()),
	}
}

func (f *fixture) employer(t *testing.T) uuid.UUID {
	id := uuid.New()
	require.NoError(t, f.db.Employers().Create(context.Background(), &employer.Profile{ID: uuid.New(), UserID: id, Name: "Acme"}))
	return id
}

func (f *fixture) jobSeeker(t *testing.T) uuid.UUID {
	id := uuid.New()
	require.NoError(t, f.db.JobSeekers().Create(context.Background(), &jobseeker.Profile{ID: uuid.New(), UserID: id, FirstName: "Ann"}))
	return id
}

func TestUploadThenProcessLogo(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	userID := f.employer(t)

	out, err := f.upload.Execute(ctx, UploadAssetInput{
		UserID:   userID,
		UserType: user.TypeEmployer,
		Kind:     "logo",
		File:     strings.NewReader("png-bytes"),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out.PublicID, "users/"+userID.String()+"/logo/"))
	assert.Equal(t, []byte("png-bytes"), f.uploader.Files[out.PublicID])

	p, err := f.db.Employers().FindByUserID(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, p.LogoURL)
	assert.Equal(t, out.URL, *p.LogoURL)

	require.Eventually(t, func() bool { return len(f.pub.ProfileEvents()) == 1 }, time.Second, 10*time.Millisecond)
	evt := f.pub.ProfileEvents()[0]
	assert.Equal(t, event.ProfileEventAssetUploaded, evt.EventType)

	require.NoError(t, f.process.Execute(ctx, evt))
	p, err = f.db.Employers().FindByUserID(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, p.LogoThumbnailURL)
	assert.Contains(t, *p.LogoThumbnailURL, "c_fill,g_auto,w_200,h_200/"+out.PublicID)

	require.NoError(t, f.process.Execute(ctx, evt), "replay is harmless")
}

func TestUploadResumeSkipsThumbnail(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	userID := f.jobSeeker(t)

	out, err := f.upload.Execute(ctx, UploadAssetInput{
		UserID:   userID,
		UserType: user.TypeJobSeeker,
		Kind:     "resume",
		File:     strings.NewReader("%PDF"),
	})
	require.NoError(t, err)

	require.NoError(t, f.process.Execute(ctx, event.ProfileEventPayload{
		EventType: event.ProfileEventAssetUploaded,
		UserID:    userID,
		AssetKind: "resume",
		PublicID:  out.PublicID,
	}))

	p, err := f.db.JobSeekers().FindByUserID(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, p.ResumeURL)
	assert.Nil(t, p.PictureThumbnailURL)
}

func TestUploadRequiresProfileAndMatchingType(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.upload.Execute(ctx, UploadAssetInput{
		UserID: uuid.New(), UserType: user.TypeJobSeeker, Kind: "picture", File: strings.NewReader("x"),
	})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Empty(t, f.uploader.Files)

	_, err = f.upload.Execute(ctx, UploadAssetInput{
		UserID: f.jobSeeker(t), UserType: user.TypeJobSeeker, Kind: "logo", File: strings.NewReader("x"),
	})
	assert.ErrorIs(t, err, apperror.ErrPermission)

	_, err = f.upload.Execute(ctx, UploadAssetInput{
		UserID: uuid.New(), UserType: user.TypeEmployer, Kind: "banner", File: strings.NewReader("x"),
	})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestProcessSkipsMissingProfileAndOtherEvents(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	assert.NoError(t, f.process.Execute(ctx, event.ProfileEventPayload{
		EventType: event.ProfileEventAssetUploaded,
		UserID:    uuid.New(),
		AssetKind: "picture",
		PublicID:  "users/x/picture/y",
	}))
	assert.NoError(t, f.process.Execute(ctx, event.ProfileEventPayload{EventType: event.ProfileEventCreated, UserID: uuid.New()}))
}

package asset

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

type Kind string

const (
	KindLogo    Kind = "logo"
	KindPicture Kind = "picture"
	KindResume  Kind = "resume"
)

var ErrInvalidKind = errors.New("asset kind must be logo, picture or resume")

func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindLogo, KindPicture, KindResume:
		return Kind(s), nil
	}
	return "", ErrInvalidKind
}

// IsImage reports whether the asset gets a thumbnail.
func (k Kind) IsImage() bool {
	return k == KindLogo || k == KindPicture
}

// Store is implemented by every profile repository that owns uploaded assets.
// Both setters return the profile's not-found error when the user has no profile.
type Store interface {
	SetAssetURL(ctx context.Context, userID uuid.UUID, kind Kind, url string) error
	SetThumbnailURL(ctx context.Context, userID uuid.UUID, kind Kind, url string) error
}

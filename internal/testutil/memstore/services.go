package memstore

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/khoahotran/talent-forge/adapters/event"
	"github.com/khoahotran/talent-forge/internal/application/service"
)

// Publisher records published events.
type Publisher struct {
	mu       sync.Mutex
	accounts []event.AccountEventPayload
	profiles []event.ProfileEventPayload
	Err      error
}

var _ service.EventPublisher = (*Publisher)(nil)

func (p *Publisher) PublishAccountEvent(_ context.Context, payload event.AccountEventPayload) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.accounts = append(p.accounts, payload)
	return nil
}

func (p *Publisher) PublishProfileEvent(_ context.Context, payload event.ProfileEventPayload) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.profiles = append(p.profiles, payload)
	return nil
}

func (p *Publisher) AccountEvents() []event.AccountEventPayload {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]event.AccountEventPayload{}, p.accounts...)
}

func (p *Publisher) ProfileEvents() []event.ProfileEventPayload {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]event.ProfileEventPayload{}, p.profiles...)
}

// HasAccountEvent reports whether an event of typ was published.
func (p *Publisher) HasAccountEvent(typ event.AccountEventType) bool {
	for _, e := range p.AccountEvents() {
		if e.EventType == typ {
			return true
		}
	}
	return false
}

const cdnBase = "https://res.cloudinary.com/test/image/upload"

// Uploader keeps uploaded bytes in memory under folder/publicID.
type Uploader struct {
	mu      sync.Mutex
	Files   map[string][]byte
	Deleted []string
	Err     error
}

var _ service.Uploader = (*Uploader)(nil)

func NewUploader() *Uploader {
	return &Uploader{Files: map[string][]byte{}}
}

func (u *Uploader) Upload(_ context.Context, file io.Reader, folder string, publicID string) (string, error) {
	if u.Err != nil {
		return "", u.Err
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return "", err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	key := folder + "/" + publicID
	u.Files[key] = data
	return fmt.Sprintf("%s/%s", cdnBase, key), nil
}

func (u *Uploader) Delete(_ context.Context, publicID string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.Deleted = append(u.Deleted, publicID)
	return nil
}

func (u *Uploader) ThumbnailURL(publicID string) (string, error) {
	if publicID == "" {
		return "", fmt.Errorf("public id is required")
	}
	return fmt.Sprintf("%s/c_fill,g_auto,w_200,h_200/%s", cdnBase, publicID), nil
}

func (u *Uploader) DeletedIDs() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string{}, u.Deleted...)
}

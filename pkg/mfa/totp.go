// Package mfa implements the time-based one-time password engine used for
// two-factor login: secret generation, otpauth provisioning URIs, QR codes and
// code verification with a one step clock-skew allowance.
package mfa

import (
	"bytes"
	"encoding/base32"
	"encoding/base64"
	"errors"
	"fmt"
	"image/png"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	// SecretSize is the decoded length of every generated secret, in bytes.
	SecretSize = 20
	// SecretLength is the encoded (unpadded base32) length of a secret.
	SecretLength = 32
	Period       = 30
	Skew         = 1
)

var (
	ErrInvalidSecret = errors.New("mfa: secret is not a valid base32 string")
	ErrInvalidLabel  = errors.New("mfa: account label and issuer are required")
)

var b32NoPadding = base32.StdEncoding.WithPadding(base32.NoPadding)

type Engine struct {
	issuer string
	now    func() time.Time
}

type Option func(*Engine)

// WithClock overrides the time source used by Now-based helpers.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(issuer string, opts ...Option) *Engine {
	e := &Engine{issuer: issuer, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Issuer() string {
	return e.issuer
}

func (e *Engine) Now() time.Time {
	return e.now()
}

func validateOpts(skew uint) totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    Period,
		Skew:      skew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	}
}

// GenerateSecret returns a fresh random secret, base32 encoded without padding.
func (e *Engine) GenerateSecret() (string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      e.issuer,
		AccountName: "enrollment",
		Period:      Period,
		SecretSize:  SecretSize,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", fmt.Errorf("generate totp secret: %w", err)
	}
	return key.Secret(), nil
}

func decodeSecret(secret string) ([]byte, error) {
	raw, err := b32NoPadding.DecodeString(strings.ToUpper(strings.TrimRight(strings.TrimSpace(secret), "=")))
	if err != nil || len(raw) == 0 {
		return nil, ErrInvalidSecret
	}
	return raw, nil
}

func (e *Engine) key(secret, accountLabel, issuer string) (*otp.Key, error) {
	if accountLabel == "" || issuer == "" {
		return nil, ErrInvalidLabel
	}
	raw, err := decodeSecret(secret)
	if err != nil {
		return nil, err
	}
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: accountLabel,
		Period:      Period,
		Secret:      raw,
		SecretSize:  uint(len(raw)),
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, fmt.Errorf("build totp key: %w", err)
	}
	return key, nil
}

// ProvisioningURI builds the otpauth://totp/<issuer>:<label>?secret=...&issuer=...
// URI understood by authenticator apps.
func (e *Engine) ProvisioningURI(secret, accountLabel, issuer string) (string, error) {
	key, err := e.key(secret, accountLabel, issuer)
	if err != nil {
		return "", err
	}
	return key.URL(), nil
}

// QRCodePNG renders uri as a size x size PNG.
func (e *Engine) QRCodePNG(uri string, size int) ([]byte, error) {
	key, err := otp.NewKeyFromURL(uri)
	if err != nil {
		return nil, fmt.Errorf("parse provisioning uri: %w", err)
	}
	img, err := key.Image(size, size)
	if err != nil {
		return nil, fmt.Errorf("render qr code: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode qr png: %w", err)
	}
	return buf.Bytes(), nil
}

// QRCodeDataURI is QRCodePNG ready to drop into an <img src>.
func (e *Engine) QRCodeDataURI(uri string, size int) (string, error) {
	img, err := e.QRCodePNG(uri, size)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(img), nil
}

// CurrentCode returns the 6 digit code for the 30s step containing t.
func (e *Engine) CurrentCode(secret string, t time.Time) (string, error) {
	if _, err := decodeSecret(secret); err != nil {
		return "", err
	}
	return totp.GenerateCodeCustom(secret, t, validateOpts(0))
}

// Verify accepts code for the step containing t or either neighbouring step.
func (e *Engine) Verify(secret, code string, t time.Time) bool {
	if _, err := decodeSecret(secret); err != nil {
		return false
	}
	ok, err := totp.ValidateCustom(strings.TrimSpace(code), secret, t.UTC(), validateOpts(Skew))
	return err == nil && ok
}

// VerifyNow is Verify against the engine clock.
func (e *Engine) VerifyNow(secret, code string) bool {
	return e.Verify(secret, code, e.now())
}

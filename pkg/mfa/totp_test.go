package mfa

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixedSecret = "JBSWY3DPEHPK3PXPJBSWY3DPEHPK3PXP"

func TestGenerateSecret_FixedLengthAndUnique(t *testing.T) {
	e := NewEngine("Employment Placement App")

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		s, err := e.GenerateSecret()
		require.NoError(t, err)
		assert.Len(t, s, SecretLength)

		raw, err := decodeSecret(s)
		require.NoError(t, err)
		assert.Len(t, raw, SecretSize)

		assert.False(t, seen[s], "secret generated twice")
		seen[s] = true
	}
}

func TestVerify_AcceptsCurrentCode(t *testing.T) {
	e := NewEngine("Employment Placement App")
	secret, err := e.GenerateSecret()
	require.NoError(t, err)

	for _, ts := range []int64{59, 1111111109, 1234567890, 2000000000} {
		at := time.Unix(ts, 0)
		code, err := e.CurrentCode(secret, at)
		require.NoError(t, err)
		assert.Len(t, code, 6)
		assert.True(t, e.Verify(secret, code, at), "t=%d", ts)
	}
}

func TestVerify_SkewWindow(t *testing.T) {
	e := NewEngine("Employment Placement App")
	at := time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)

	for _, d := range []time.Duration{-30 * time.Second, 30 * time.Second} {
		code, err := e.CurrentCode(fixedSecret, at.Add(d))
		require.NoError(t, err)
		assert.True(t, e.Verify(fixedSecret, code, at), "offset %s should be accepted", d)
	}

	for _, d := range []time.Duration{120 * time.Second, -120 * time.Second} {
		code, err := e.CurrentCode(fixedSecret, at.Add(d))
		require.NoError(t, err)
		assert.False(t, e.Verify(fixedSecret, code, at), "offset %s should be rejected", d)
	}
}

// RFC 6238 appendix B, SHA1, truncated to six digits.
func TestCurrentCode_RFC6238Vectors(t *testing.T) {
	e := NewEngine("x")
	secret := b32NoPadding.EncodeToString([]byte("12345678901234567890"))

	vectors := map[int64]string{
		59:         "287082",
		1111111109: "081804",
		1111111111: "050471",
		1234567890: "005924",
		2000000000: "279037",
	}
	for ts, want := range vectors {
		got, err := e.CurrentCode(secret, time.Unix(ts, 0))
		require.NoError(t, err)
		assert.Equal(t, want, got, "t=%d", ts)
	}
}

func TestVerify_RejectsGarbage(t *testing.T) {
	e := NewEngine("x")
	at := time.Unix(1234567890, 0)

	assert.False(t, e.Verify(fixedSecret, "", at))
	assert.False(t, e.Verify(fixedSecret, "12345", at))
	assert.False(t, e.Verify(fixedSecret, "abcdef", at))
	assert.False(t, e.Verify("not base32 !!", "123456", at))
}

func TestVerifyNow_UsesEngineClock(t *testing.T) {
	at := time.Unix(1700000000, 0)
	e := NewEngine("x", WithClock(func() time.Time { return at }))

	code, err := e.CurrentCode(fixedSecret, at)
	require.NoError(t, err)
	assert.True(t, e.VerifyNow(fixedSecret, code))
	assert.Equal(t, at, e.Now())
}

func TestProvisioningURI(t *testing.T) {
	e := NewEngine("Employment Placement App")

	uri, err := e.ProvisioningURI(fixedSecret, "a@x.com", "Employment Placement App")
	require.NoError(t, err)

	u, err := url.Parse(uri)
	require.NoError(t, err)
	assert.Equal(t, "otpauth", u.Scheme)
	assert.Equal(t, "totp", u.Host)
	assert.Equal(t, "/Employment Placement App:a@x.com", u.Path)
	assert.Equal(t, fixedSecret, u.Query().Get("secret"))
	assert.Equal(t, "Employment Placement App", u.Query().Get("issuer"))

	again, err := e.ProvisioningURI(strings.ToLower(fixedSecret), "a@x.com", "Employment Placement App")
	require.NoError(t, err)
	assert.Equal(t, uri, again)

	_, err = e.ProvisioningURI(fixedSecret, "", "issuer")
	assert.ErrorIs(t, err, ErrInvalidLabel)
	_, err = e.ProvisioningURI("###", "a@x.com", "issuer")
	assert.ErrorIs(t, err, ErrInvalidSecret)
}

func TestQRCodeDataURI_IsPNG(t *testing.T) {
	e := NewEngine("Employment Placement App")
	uri, err := e.ProvisioningURI(fixedSecret, "a@x.com", e.Issuer())
	require.NoError(t, err)

	dataURI, err := e.QRCodeDataURI(uri, 128)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(dataURI, "data:image/png;base64,"))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(dataURI, "data:image/png;base64,"))
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 128, img.Bounds().Dx())
}

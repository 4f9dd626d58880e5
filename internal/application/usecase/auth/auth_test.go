package auth

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/khoahotran/talent-forge/internal/domain/user"
	"github.com/khoahotran/talent-forge/internal/testutil/memstore"
	"github.com/khoahotran/talent-forge/pkg/apperror"
	"github.com/khoahotran/talent-forge/pkg/auth"
	"github.com/khoahotran/talent-forge/pkg/logger"
	"github.com/khoahotran/talent-forge/pkg/mfa"
)

const (
	testPassword = "Secret123!"
	pendingTTL   = 5 * time.Minute
)

type AuthUseCaseSuite struct {
	suite.Suite

	ctx       context.Context
	clock     time.Time
	db        *memstore.DB
	pending   *memstore.Pending
	sessions  *memstore.Sessions
	publisher *memstore.Publisher
	jwtSvc    *auth.JWTService
	engine    *mfa.Engine

	signup *SignupUseCase
	login  *LoginUseCase
	verify *VerifyOTPUseCase
	mfa    *MFAUseCase
	logout *LogoutUseCase
}

func TestAuthUseCaseSuite(t *testing.T) {
	suite.Run(t, new(AuthUseCaseSuite))
}

func (s *AuthUseCaseSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s.db = memstore.New()
	s.pending = memstore.NewPending()
	s.sessions = memstore.NewSessions()
	s.publisher = &memstore.Publisher{}
	s.jwtSvc = auth.NewJWTService("test-secret", time.Hour)
	s.engine = mfa.NewEngine("Employment Placement App", mfa.WithClock(func() time.Time { return s.clock }))

	log := logger.NewNop()
	users := s.db.Users()
	issuer := NewSessionIssuer(s.jwtSvc, s.sessions)

	s.signup = NewSignupUseCase(users, s.pending, pendingTTL, s.publisher, log)
	s.login = NewLoginUseCase(users, s.pending, issuer, pendingTTL, s.publisher, log)
	s.verify = NewVerifyOTPUseCase(users, s.pending, issuer, s.engine, s.publisher, log)
	s.mfa = NewMFAUseCase(users, s.pending, s.engine, 128, s.publisher, log)
	s.logout = NewLogoutUseCase(s.sessions)
}

func (s *AuthUseCaseSuite) signupUser(email string) *SignupOutput {
	out, err := s.signup.Execute(s.ctx, SignupInput{
		Email:           email,
		Password:        testPassword,
		PasswordConfirm: testPassword,
		UserType:        "job_seeker",
	})
	s.Require().NoError(err)
	return out
}

func (s *AuthUseCaseSuite) secretOf(id uuid.UUID) string {
	u, err := s.db.Users().FindByID(s.ctx, id)
	s.Require().NoError(err)
	s.Require().True(u.HasSecret())
	return *u.MFASecret
}

func (s *AuthUseCaseSuite) codeAt(secret string, t time.Time) string {
	code, err := s.engine.CurrentCode(secret, t)
	s.Require().NoError(err)
	return code
}

// enrolledUser signs up and completes enrollment, returning the user id.
func (s *AuthUseCaseSuite) enrolledUser(email string) uuid.UUID {
	out := s.signupUser(email)
	_, err := s.mfa.ExecuteEnrollPending(s.ctx, out.PendingToken)
	s.Require().NoError(err)
	_, err = s.verify.Execute(s.ctx, VerifyOTPInput{
		PendingToken: out.PendingToken,
		Code:         s.codeAt(s.secretOf(out.UserID), s.clock),
	})
	s.Require().NoError(err)
	return out.UserID
}

func (s *AuthUseCaseSuite) TestSignupEnrollVerifyScenario() {
	out := s.signupUser("a@x.com")

	u, err := s.db.Users().FindByID(s.ctx, out.UserID)
	s.Require().NoError(err)
	s.False(u.MFAEnabled)
	s.False(u.HasSecret())
	s.Equal(user.StateNoSecret, u.EnrollmentState())

	enroll, err := s.mfa.ExecuteEnrollPending(s.ctx, out.PendingToken)
	s.Require().NoError(err)
	s.Equal(user.StateSecretIssued, enroll.State)
	s.Contains(enroll.QRCode, "data:image/png;base64,")

	secret := s.secretOf(out.UserID)
	parsed, err := url.Parse(enroll.ProvisioningURI)
	s.Require().NoError(err)
	s.Equal(secret, parsed.Query().Get("secret"))
	s.Equal("Employment Placement App", parsed.Query().Get("issuer"))

	res, err := s.verify.Execute(s.ctx, VerifyOTPInput{
		PendingToken: out.PendingToken,
		UserID:       out.UserID.String(),
		Code:         s.codeAt(secret, s.clock),
	})
	s.Require().NoError(err)
	s.True(res.MFAEnabled)
	s.NotEmpty(res.AccessToken)

	u, err = s.db.Users().FindByID(s.ctx, out.UserID)
	s.Require().NoError(err)
	s.True(u.MFAEnabled)
	s.Equal(user.StateEnrolled, u.EnrollmentState())

	claims, err := s.jwtSvc.ValidateToken(res.AccessToken)
	s.Require().NoError(err)
	s.Equal(out.UserID, claims.UserID)
	live, err := s.sessions.Exists(s.ctx, claims.SessionID())
	s.Require().NoError(err)
	s.True(live)

	s.Zero(s.pending.Len(), "pending reference is consumed")
	s.Eventually(func() bool {
		return s.publisher.HasAccountEvent("user.registered") && s.publisher.HasAccountEvent("mfa.enabled")
	}, time.Second, 10*time.Millisecond)
}

func (s *AuthUseCaseSuite) TestSignupValidation() {
	_, err := s.signup.Execute(s.ctx, SignupInput{
		Email:           "not-an-email",
		Password:        "short",
		PasswordConfirm: "different",
		UserType:        "admin",
	})
	s.Require().ErrorIs(err, apperror.ErrInvalidInput)

	fields := apperror.FieldsOf(err)
	s.Contains(fields, "email")
	s.Contains(fields, "password")
	s.Contains(fields, "password_confirm")
	s.Contains(fields, "user_type")
	s.Zero(s.db.Counts().Users)
}

func (s *AuthUseCaseSuite) TestSignupPasswordByteLimit() {
	long := strings.Repeat("é", 40)
	_, err := s.signup.Execute(s.ctx, SignupInput{
		Email:           "long@x.com",
		Password:        long,
		PasswordConfirm: long,
		UserType:        "job_seeker",
	})
	s.Require().ErrorIs(err, apperror.ErrInvalidInput)
	s.Equal(map[string]string{"password": "must be at most 72 bytes"}, apperror.FieldsOf(err))
}

func (s *AuthUseCaseSuite) TestSignupAcceptsLegacyUserType() {
	out, err := s.signup.Execute(s.ctx, SignupInput{
		Email:           "  Legacy@X.com ",
		Password:        testPassword,
		PasswordConfirm: testPassword,
		UserType:        " 2 ",
	})
	s.Require().NoError(err)

	u, err := s.db.Users().FindByID(s.ctx, out.UserID)
	s.Require().NoError(err)
	s.Equal("legacy@x.com", u.Email)
	s.Equal(user.TypeEmployer, u.Type)
}

func (s *AuthUseCaseSuite) TestSignupDuplicateEmailIsCaseInsensitive() {
	s.signupUser("dup@x.com")

	_, err := s.signup.Execute(s.ctx, SignupInput{
		Email:           "DUP@X.com",
		Password:        testPassword,
		PasswordConfirm: testPassword,
		UserType:        "employer",
	})
	s.ErrorIs(err, apperror.ErrConflict)
	s.Equal(1, s.db.Counts().Users)
}

func (s *AuthUseCaseSuite) TestLoginDoesNotRevealWhichCredentialFailed() {
	id := s.enrolledUser("known@x.com")

	_, errUnknown := s.login.Execute(s.ctx, LoginInput{Email: "nobody@x.com", Password: testPassword})
	_, errWrong := s.login.Execute(s.ctx, LoginInput{Email: "known@x.com", Password: "wrong-password"})

	s.Require().ErrorIs(errUnknown, apperror.ErrUnauthorized)
	s.Require().ErrorIs(errWrong, apperror.ErrUnauthorized)
	s.Equal(errUnknown.Error(), errWrong.Error())

	out, err := s.login.Execute(s.ctx, LoginInput{Email: "known@x.com", Password: testPassword})
	s.Require().NoError(err)
	bad := s.codeAt(s.secretOf(id), s.clock.Add(120*time.Second))
	_, errCode := s.verify.Execute(s.ctx, VerifyOTPInput{PendingToken: out.PendingToken, Code: bad})
	s.Require().ErrorIs(errCode, apperror.ErrUnauthorized)
	s.Equal(errWrong.Error(), errCode.Error(), "a wrong code reads like a wrong password")
}

func (s *AuthUseCaseSuite) TestLoginBeforeFirstConfirmationRequiresEnrollment() {
	s.signupUser("plain@x.com")

	out, err := s.login.Execute(s.ctx, LoginInput{Email: " Plain@X.com ", Password: testPassword})
	s.Require().NoError(err)
	s.True(out.MFARequired)
	s.True(out.EnrollmentRequired)
	s.Empty(out.AccessToken)
	s.Zero(s.sessions.Len(), "no session before the first code is confirmed")

	enroll, err := s.mfa.ExecuteEnrollPending(s.ctx, out.PendingToken)
	s.Require().NoError(err)
	s.Equal(user.StateSecretIssued, enroll.State)
}

func (s *AuthUseCaseSuite) TestLoginWithIssuedButUnconfirmedSecretRequiresEnrollment() {
	out := s.signupUser("halfway@x.com")
	_, err := s.mfa.ExecuteEnrollPending(s.ctx, out.PendingToken)
	s.Require().NoError(err)

	login, err := s.login.Execute(s.ctx, LoginInput{Email: "halfway@x.com", Password: testPassword})
	s.Require().NoError(err)
	s.True(login.EnrollmentRequired)
	s.Empty(login.AccessToken)

	res, err := s.verify.Execute(s.ctx, VerifyOTPInput{
		PendingToken: login.PendingToken,
		Code:         s.codeAt(s.secretOf(out.UserID), s.clock),
	})
	s.Require().NoError(err)
	s.True(res.MFAEnabled)
	s.NotEmpty(res.AccessToken)
}

func (s *AuthUseCaseSuite) TestLoginAfterDisableUsesPasswordOnly() {
	id := s.enrolledUser("optout@x.com")
	_, err := s.mfa.ExecuteDisable(s.ctx, DisableInput{UserID: id})
	s.Require().NoError(err)
	sessionsBefore := s.sessions.Len()

	out, err := s.login.Execute(s.ctx, LoginInput{Email: "optout@x.com", Password: testPassword})
	s.Require().NoError(err)
	s.False(out.MFARequired)
	s.NotEmpty(out.AccessToken)
	s.Equal(sessionsBefore+1, s.sessions.Len())
}

func (s *AuthUseCaseSuite) TestLoginWithMFARequiresOTP() {
	id := s.enrolledUser("mfa@x.com")
	secret := s.secretOf(id)
	sessionsBefore := s.sessions.Len()

	out, err := s.login.Execute(s.ctx, LoginInput{Email: "mfa@x.com", Password: testPassword})
	s.Require().NoError(err)
	s.True(out.MFARequired)
	s.False(out.EnrollmentRequired)
	s.Empty(out.AccessToken)
	s.Require().NotEmpty(out.PendingToken)
	s.Equal(sessionsBefore, s.sessions.Len())

	_, err = s.verify.Execute(s.ctx, VerifyOTPInput{PendingToken: out.PendingToken, Code: "000000"})
	s.Require().ErrorIs(err, apperror.ErrUnauthorized)
	s.Equal(1, s.pending.Len(), "wrong code keeps the pending reference")

	res, err := s.verify.Execute(s.ctx, VerifyOTPInput{
		PendingToken: out.PendingToken,
		Code:         s.codeAt(secret, s.clock.Add(-30*time.Second)),
	})
	s.Require().NoError(err)
	s.NotEmpty(res.AccessToken)
	s.Zero(s.pending.Len())
}

func (s *AuthUseCaseSuite) TestVerifyRejectsMissingOrMismatchedPending() {
	_, err := s.verify.Execute(s.ctx, VerifyOTPInput{Code: "123456"})
	s.ErrorIs(err, apperror.ErrInvalidInput)

	_, err = s.verify.Execute(s.ctx, VerifyOTPInput{PendingToken: uuid.NewString(), Code: "123456"})
	s.ErrorIs(err, apperror.ErrInvalidInput)

	out := s.signupUser("m@x.com")
	_, err = s.mfa.ExecuteEnrollPending(s.ctx, out.PendingToken)
	s.Require().NoError(err)

	_, err = s.verify.Execute(s.ctx, VerifyOTPInput{
		PendingToken: out.PendingToken,
		UserID:       uuid.NewString(),
		Code:         s.codeAt(s.secretOf(out.UserID), s.clock),
	})
	s.ErrorIs(err, apperror.ErrInvalidInput)
}

func (s *AuthUseCaseSuite) TestVerifyBeforeSecretIssued() {
	out := s.signupUser("early@x.com")

	_, err := s.verify.Execute(s.ctx, VerifyOTPInput{PendingToken: out.PendingToken, Code: "123456"})
	s.ErrorIs(err, apperror.ErrInvalidInput)
}

func (s *AuthUseCaseSuite) TestPendingReferenceExpires() {
	id := s.enrolledUser("exp@x.com")
	out, err := s.login.Execute(s.ctx, LoginInput{Email: "exp@x.com", Password: testPassword})
	s.Require().NoError(err)

	s.pending.Now = func() time.Time { return time.Now().Add(pendingTTL + time.Second) }
	_, err = s.verify.Execute(s.ctx, VerifyOTPInput{
		PendingToken: out.PendingToken,
		Code:         s.codeAt(s.secretOf(id), s.clock),
	})
	s.ErrorIs(err, apperror.ErrInvalidInput)
}

// Codes are not tracked after use, so two logins racing with the same code in
// one time step both get a session.
func (s *AuthUseCaseSuite) TestConcurrentCorrectSubmissionsBothSucceed() {
	id := s.enrolledUser("race@x.com")
	code := s.codeAt(s.secretOf(id), s.clock)

	tokens := make([]string, 2)
	for i := range tokens {
		out, err := s.login.Execute(s.ctx, LoginInput{Email: "race@x.com", Password: testPassword})
		s.Require().NoError(err)
		tokens[i] = out.PendingToken
	}

	var wg sync.WaitGroup
	errs := make([]error, len(tokens))
	for i, token := range tokens {
		wg.Add(1)
		go func(i int, token string) {
			defer wg.Done()
			_, errs[i] = s.verify.Execute(s.ctx, VerifyOTPInput{PendingToken: token, Code: code})
		}(i, token)
	}
	wg.Wait()

	for _, err := range errs {
		s.NoError(err)
	}
}

func (s *AuthUseCaseSuite) TestEnrollDisableReenrollKeepsSecret() {
	id := s.enrolledUser("keep@x.com")

	first, err := s.mfa.ExecuteEnroll(s.ctx, EnrollInput{UserID: id})
	s.Require().NoError(err)
	s.Equal(user.StateEnrolled, first.State)

	disabled, err := s.mfa.ExecuteDisable(s.ctx, DisableInput{UserID: id})
	s.Require().NoError(err)
	s.True(disabled.Changed)

	again, err := s.mfa.ExecuteDisable(s.ctx, DisableInput{UserID: id})
	s.Require().NoError(err)
	s.False(again.Changed)

	second, err := s.mfa.ExecuteEnroll(s.ctx, EnrollInput{UserID: id})
	s.Require().NoError(err)
	s.Equal(first.ProvisioningURI, second.ProvisioningURI)
	s.Equal(user.StateSecretIssued, second.State)

	_, err = s.mfa.ExecuteConfirm(s.ctx, ConfirmInput{UserID: id, Code: s.codeAt(s.secretOf(id), s.clock)})
	s.Require().NoError(err)
	u, err := s.db.Users().FindByID(s.ctx, id)
	s.Require().NoError(err)
	s.True(u.MFAEnabled)
}

func (s *AuthUseCaseSuite) TestConfirmRequiresSecretAndValidCode() {
	out := s.signupUser("confirm@x.com")

	_, err := s.mfa.ExecuteConfirm(s.ctx, ConfirmInput{UserID: out.UserID, Code: "123456"})
	s.ErrorIs(err, apperror.ErrInvalidInput)

	_, err = s.mfa.ExecuteEnroll(s.ctx, EnrollInput{UserID: out.UserID})
	s.Require().NoError(err)

	bad := s.codeAt(s.secretOf(out.UserID), s.clock.Add(120*time.Second))
	_, err = s.mfa.ExecuteConfirm(s.ctx, ConfirmInput{UserID: out.UserID, Code: bad})
	s.ErrorIs(err, apperror.ErrUnauthorized)

	u, err := s.db.Users().FindByID(s.ctx, out.UserID)
	s.Require().NoError(err)
	s.False(u.MFAEnabled)
}

func (s *AuthUseCaseSuite) TestEnrollPendingRejectsLoginReference() {
	s.enrolledUser("leak@x.com")
	out, err := s.login.Execute(s.ctx, LoginInput{Email: "leak@x.com", Password: testPassword})
	s.Require().NoError(err)

	_, err = s.mfa.ExecuteEnrollPending(s.ctx, out.PendingToken)
	s.ErrorIs(err, apperror.ErrInvalidInput)
}

func (s *AuthUseCaseSuite) TestEnrollUnknownUser() {
	_, err := s.mfa.ExecuteEnroll(s.ctx, EnrollInput{UserID: uuid.New()})
	s.ErrorIs(err, apperror.ErrNotFound)
}

func (s *AuthUseCaseSuite) TestLogoutRevokesSession() {
	id := s.enrolledUser("bye@x.com")
	_, err := s.mfa.ExecuteDisable(s.ctx, DisableInput{UserID: id})
	s.Require().NoError(err)
	out, err := s.login.Execute(s.ctx, LoginInput{Email: "bye@x.com", Password: testPassword})
	s.Require().NoError(err)

	claims, err := s.jwtSvc.ValidateToken(out.AccessToken)
	s.Require().NoError(err)

	s.Require().NoError(s.logout.Execute(s.ctx, LogoutInput{SessionID: claims.SessionID()}))
	live, err := s.sessions.Exists(s.ctx, claims.SessionID())
	s.Require().NoError(err)
	s.False(live)

	s.NoError(s.logout.Execute(s.ctx, LogoutInput{SessionID: claims.SessionID()}), "logout is idempotent")
	s.ErrorIs(s.logout.Execute(s.ctx, LogoutInput{}), apperror.ErrInvalidInput)
}

package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	accountUC "github.com/khoahotran/talent-forge/internal/application/usecase/account"
	assetUC "github.com/khoahotran/talent-forge/internal/application/usecase/asset"
	authUC "github.com/khoahotran/talent-forge/internal/application/usecase/auth"
	employerUC "github.com/khoahotran/talent-forge/internal/application/usecase/employer"
	jobseekerUC "github.com/khoahotran/talent-forge/internal/application/usecase/jobseeker"
	skillUC "github.com/khoahotran/talent-forge/internal/application/usecase/skill"
	"github.com/khoahotran/talent-forge/internal/testutil/memstore"
	"github.com/khoahotran/talent-forge/pkg/auth"
	"github.com/khoahotran/talent-forge/pkg/logger"
	"github.com/khoahotran/talent-forge/pkg/mfa"
)

const testPassword = "Secret123!"

type RouterSuite struct {
	suite.Suite

	clock    time.Time
	db       *memstore.DB
	sessions *memstore.Sessions
	uploader *memstore.Uploader
	engine   *mfa.Engine
	router   *gin.Engine
}

func TestRouterSuite(t *testing.T) {
	gin.SetMode(gin.TestMode)
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	s.clock = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s.db = memstore.New()
	s.sessions = memstore.NewSessions()
	s.uploader = memstore.NewUploader()
	s.engine = mfa.NewEngine("Employment Placement App", mfa.WithClock(func() time.Time { return s.clock }))

	log := logger.NewNop()
	pending := memstore.NewPending()
	publisher := &memstore.Publisher{}
	jwtSvc := auth.NewJWTService("test-secret", time.Hour)
	issuer := authUC.NewSessionIssuer(jwtSvc, s.sessions)
	users := s.db.Users()
	employers := s.db.Employers()
	jobSeekers := s.db.JobSeekers()

	mfaUC := authUC.NewMFAUseCase(users, pending, s.engine, 128, publisher, log)
	handlers := Handlers{
		Auth: NewAuthHandler(
			authUC.NewSignupUseCase(users, pending, 5*time.Minute, publisher, log),
			authUC.NewLoginUseCase(users, pending, issuer, 5*time.Minute, publisher, log),
			authUC.NewVerifyOTPUseCase(users, pending, issuer, s.engine, publisher, log),
			mfaUC,
			authUC.NewLogoutUseCase(s.sessions),
			5*time.Minute,
			log,
		),
		Account:   NewAccountHandler(accountUC.NewOverviewUseCase(users, employers, jobSeekers), mfaUC),
		Employer:  NewEmployerHandler(employerUC.NewProfileUseCase(employers, publisher, log)),
		JobSeeker: NewJobSeekerHandler(jobseekerUC.NewCreateProfileUseCase(s.db, publisher, log), jobseekerUC.NewGetProfileUseCase(jobSeekers)),
		Skill:     NewSkillHandler(skillUC.NewListSkillsUseCase(s.db.Skills())),
		Asset:     NewAssetHandler(assetUC.NewUploadAssetUseCase(employers, jobSeekers, s.uploader, publisher, log), log),
	}

	router, err := NewRouter(handlers, AuthMiddleware(jwtSvc, s.sessions, log), RouterOptions{}, log)
	s.Require().NoError(err)
	s.router = router
}

func (s *RouterSuite) do(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func (s *RouterSuite) doJSON(method, path string, body any, token string) *httptest.ResponseRecorder {
	raw, err := json.Marshal(body)
	s.Require().NoError(err)
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return s.do(req, token)
}

func (s *RouterSuite) decode(rr *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

func (s *RouterSuite) code(userID string) string {
	id, err := uuid.Parse(userID)
	s.Require().NoError(err)
	u, err := s.db.Users().FindByID(context.Background(), id)
	s.Require().NoError(err)
	s.Require().True(u.HasSecret())
	c, err := s.engine.CurrentCode(*u.MFASecret, s.clock)
	s.Require().NoError(err)
	return c
}

// wrongCode returns a six digit code outside the accepted skew window.
func (s *RouterSuite) wrongCode(userID string) string {
	id, err := uuid.Parse(userID)
	s.Require().NoError(err)
	u, err := s.db.Users().FindByID(context.Background(), id)
	s.Require().NoError(err)
	for i := 0; ; i++ {
		candidate := fmt.Sprintf("%06d", i)
		if !s.engine.Verify(*u.MFASecret, candidate, s.clock) {
			return candidate
		}
	}
}

func (s *RouterSuite) verifyForm(pendingToken, otp string) *httptest.ResponseRecorder {
	form := url.Values{"pending_token": {pendingToken}, "otp_code": {otp}}
	req := httptest.NewRequest(http.MethodPost, "/api/auth/mfa/verify", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return s.do(req, "")
}

// register signs up, enrolls and returns the user id and an access token.
func (s *RouterSuite) register(email, userType string) (string, string) {
	rr := s.doJSON(http.MethodPost, "/api/auth/signup", gin.H{
		"email": email, "password": testPassword, "password_confirm": testPassword, "user_type": userType,
	}, "")
	s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())
	body := s.decode(rr)
	userID := body["user_id"].(string)
	pendingToken := body["pending_token"].(string)

	rr = s.do(httptest.NewRequest(http.MethodGet, "/api/auth/mfa/enroll?pending_token="+pendingToken, nil), "")
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
	s.Contains(s.decode(rr)["qr_code"], "data:image/png;base64,")

	rr = s.verifyForm(pendingToken, s.code(userID))
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
	body = s.decode(rr)
	s.Equal(true, body["mfa_enabled"])
	return userID, body["access_token"].(string)
}

func (s *RouterSuite) TestHealth() {
	rr := s.do(httptest.NewRequest(http.MethodGet, "/api/health", nil), "")
	s.Equal(http.StatusOK, rr.Code)
	s.Equal("UP", s.decode(rr)["status"])
}

func (s *RouterSuite) TestSignupEnrollAndOverview() {
	_, token := s.register("seeker@example.com", "job_seeker")

	rr := s.do(httptest.NewRequest(http.MethodGet, "/api/me", nil), token)
	s.Require().Equal(http.StatusOK, rr.Code)
	body := s.decode(rr)
	s.Equal("seeker@example.com", body["email"])
	s.Equal(false, body["has_profile"])
	s.Equal("create_job_seeker_profile", body["next_step"])
}

func (s *RouterSuite) TestSignupValidation() {
	rr := s.doJSON(http.MethodPost, "/api/auth/signup", gin.H{
		"email": "x@example.com", "password": testPassword, "password_confirm": testPassword, "user_type": "admin",
	}, "")
	s.Equal(http.StatusBadRequest, rr.Code)
	s.Contains(s.decode(rr)["fields"], "user_type")

	rr = s.doJSON(http.MethodPost, "/api/auth/signup", gin.H{
		"email": "x@example.com", "password": testPassword, "password_confirm": "different1", "user_type": "employer",
	}, "")
	s.Equal(http.StatusBadRequest, rr.Code)
	s.Contains(s.decode(rr)["fields"], "password_confirm")
}

func (s *RouterSuite) TestLoginRequiresSecondFactor() {
	userID, _ := s.register("emp@example.com", "employer")

	rr := s.doJSON(http.MethodPost, "/api/auth/login", gin.H{"email": "emp@example.com", "password": "wrong-pass"}, "")
	s.Equal(http.StatusUnauthorized, rr.Code)
	wrongPassword := rr.Body.String()
	rr = s.doJSON(http.MethodPost, "/api/auth/login", gin.H{"email": "nobody@example.com", "password": "wrong-pass"}, "")
	s.Equal(http.StatusUnauthorized, rr.Code)
	s.Equal(wrongPassword, rr.Body.String())

	rr = s.doJSON(http.MethodPost, "/api/auth/login", gin.H{"email": "EMP@example.com", "password": testPassword}, "")
	s.Require().Equal(http.StatusAccepted, rr.Code, rr.Body.String())
	body := s.decode(rr)
	s.Equal(true, body["mfa_required"])
	s.Equal(false, body["enrollment_required"])
	pendingToken := body["pending_token"].(string)

	rr = s.verifyForm(pendingToken, s.wrongCode(userID))
	s.Equal(http.StatusUnauthorized, rr.Code)
	s.Equal(wrongPassword, rr.Body.String(), "a wrong code and a wrong password look the same")

	rr = s.verifyForm("", "123456")
	s.Equal(http.StatusBadRequest, rr.Code)

	rr = s.verifyForm(pendingToken, "12ab")
	s.Equal(http.StatusBadRequest, rr.Code)
	s.Contains(s.decode(rr)["fields"], "otp_code")
}

func (s *RouterSuite) TestLoginBeforeEnrollmentIsSentToEnroll() {
	rr := s.doJSON(http.MethodPost, "/api/auth/signup", gin.H{
		"email": "late@example.com", "password": testPassword, "password_confirm": testPassword, "user_type": "job_seeker",
	}, "")
	s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())
	userID := s.decode(rr)["user_id"].(string)

	rr = s.doJSON(http.MethodPost, "/api/auth/login", gin.H{"email": "late@example.com", "password": testPassword}, "")
	s.Require().Equal(http.StatusAccepted, rr.Code, rr.Body.String())
	body := s.decode(rr)
	s.Equal(true, body["enrollment_required"])
	s.Nil(body["access_token"])
	pendingToken := body["pending_token"].(string)

	rr = s.do(httptest.NewRequest(http.MethodGet, "/api/auth/mfa/enroll?pending_token="+pendingToken, nil), "")
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())

	rr = s.verifyForm(pendingToken, s.code(userID))
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
	body = s.decode(rr)
	s.Equal(true, body["mfa_enabled"])

	rr = s.do(httptest.NewRequest(http.MethodGet, "/api/me", nil), body["access_token"].(string))
	s.Equal(http.StatusOK, rr.Code)
}

func (s *RouterSuite) TestLogoutEndsSession() {
	_, token := s.register("out@example.com", "employer")

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	s.Equal(http.StatusNoContent, s.do(req, token).Code)

	rr := s.do(httptest.NewRequest(http.MethodGet, "/api/me", nil), token)
	s.Equal(http.StatusUnauthorized, rr.Code)
}

func (s *RouterSuite) TestPrivateRoutesRequireToken() {
	rr := s.do(httptest.NewRequest(http.MethodGet, "/api/me", nil), "")
	s.Equal(http.StatusUnauthorized, rr.Code)
	rr = s.do(httptest.NewRequest(http.MethodGet, "/api/me", nil), "not-a-jwt")
	s.Equal(http.StatusUnauthorized, rr.Code)
}

func (s *RouterSuite) TestJobSeekerProfile() {
	_, token := s.register("js@example.com", "job_seeker")

	bad := gin.H{
		"first_name": "Ann", "last_name": "Lee", "location": "Austin", "role": "Engineer", "industry": "Software", "phone_number": "+15125550100",
		"educations": []gin.H{{"institution": "MIT", "degree": "BSc", "field_of_study": "CS", "start_date": "2015/09/01"}},
	}
	rr := s.doJSON(http.MethodPost, "/api/jobseeker/profile", bad, token)
	s.Require().Equal(http.StatusBadRequest, rr.Code)
	s.Contains(s.decode(rr)["fields"], "educations[0].start_date")
	s.Zero(s.db.Counts().JobSeekers)

	good := gin.H{
		"first_name": "Ann", "last_name": "Lee", "location": "Austin", "role": "Engineer", "industry": "Software", "phone_number": "+15125550100",
		"educations":          []gin.H{{"institution": "MIT", "degree": "BSc", "field_of_study": "CS", "start_date": "2015-09-01", "end_date": "2019-06-01"}},
		"job_experiences":     []gin.H{{"company_name": "Acme", "position": "Dev", "start_date": "2019-07-01", "location": "Remote"}},
		"skills":              []string{"Go", "SQL"},
		"skill_proficiencies": gin.H{"Go": "Expert"},
	}
	rr = s.doJSON(http.MethodPost, "/api/jobseeker/profile", good, token)
	s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())

	rr = s.doJSON(http.MethodPost, "/api/jobseeker/profile", good, token)
	s.Equal(http.StatusConflict, rr.Code)

	rr = s.do(httptest.NewRequest(http.MethodGet, "/api/jobseeker/profile", nil), token)
	s.Require().Equal(http.StatusOK, rr.Code)
	var profile JobSeekerProfileDTO
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &profile))
	s.Equal("Ann", profile.FirstName)
	s.Require().Len(profile.Educations, 1)
	s.Equal("2015-09-01", profile.Educations[0].StartDate)
	s.Require().NotNil(profile.Educations[0].EndDate)
	s.Equal("2019-06-01", *profile.Educations[0].EndDate)
	s.Require().Len(profile.Experiences, 1)
	s.Nil(profile.Experiences[0].EndDate)
	s.Len(profile.Skills, 2)

	rr = s.do(httptest.NewRequest(http.MethodGet, "/api/skills", nil), "")
	s.Equal(http.StatusOK, rr.Code)
	s.Len(s.decode(rr)["data"], 2)

	rr = s.do(httptest.NewRequest(http.MethodGet, "/api/me", nil), token)
	s.Equal("dashboard", s.decode(rr)["next_step"])
}

func (s *RouterSuite) TestJobSeekerProfileReportsEveryInvalidField() {
	_, token := s.register("partial@example.com", "job_seeker")

	rr := s.doJSON(http.MethodPost, "/api/jobseeker/profile", gin.H{
		"last_name":  "Lee",
		"educations": []gin.H{{"degree": "BSc", "start_date": "2015/09/01"}},
	}, token)
	s.Require().Equal(http.StatusBadRequest, rr.Code, rr.Body.String())

	fields, ok := s.decode(rr)["fields"].(map[string]any)
	s.Require().True(ok, rr.Body.String())
	s.Equal("must be a date (YYYY-MM-DD)", fields["educations[0].start_date"])
	for _, key := range []string{
		"first_name", "location", "role", "phone_number", "industry", "educations[0].institution",
	} {
		s.Equal("is required", fields[key], key)
	}
	s.NotContains(fields, "last_name")
	s.Zero(s.db.Counts().JobSeekers)
}

func (s *RouterSuite) TestEmployerRoutesRejectJobSeekers() {
	_, token := s.register("js2@example.com", "job_seeker")

	rr := s.doJSON(http.MethodPost, "/api/employer/profile", gin.H{"name": "Acme"}, token)
	s.Equal(http.StatusForbidden, rr.Code)
}

func (s *RouterSuite) TestEmployerProfileAndLogo() {
	_, token := s.register("boss@example.com", "employer")

	rr := s.do(httptest.NewRequest(http.MethodGet, "/api/employer/profile", nil), token)
	s.Equal(http.StatusNotFound, rr.Code)

	rr = s.doJSON(http.MethodPost, "/api/employer/profile", gin.H{
		"name": "Acme", "email": "hr@acme.io", "industry": "Retail", "location": "Berlin",
		"company_website": "https://acme.io", "number_employees": 40,
	}, token)
	s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "logo.png")
	s.Require().NoError(err)
	_, err = fw.Write([]byte("png-bytes"))
	s.Require().NoError(err)
	s.Require().NoError(mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/employer/profile/logo", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr = s.do(req, token)
	s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())
	body := s.decode(rr)
	s.Equal("logo", body["kind"])
	s.Contains(body["public_id"], "/logo/")

	rr = s.do(httptest.NewRequest(http.MethodGet, "/api/employer/profile", nil), token)
	s.Require().Equal(http.StatusOK, rr.Code)
	var profile EmployerProfileDTO
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &profile))
	s.Require().NotNil(profile.LogoURL)
	s.Equal(body["url"], *profile.LogoURL)
}

func (s *RouterSuite) TestUploadRequiresFile() {
	_, token := s.register("nofile@example.com", "job_seeker")

	req := httptest.NewRequest(http.MethodPost, "/api/jobseeker/profile/resume", nil)
	s.Equal(http.StatusBadRequest, s.do(req, token).Code)
}

func (s *RouterSuite) TestMFADisableAndConfirm() {
	userID, token := s.register("mfa@example.com", "employer")

	rr := s.do(httptest.NewRequest(http.MethodPost, "/api/me/mfa/disable", nil), token)
	s.Require().Equal(http.StatusOK, rr.Code)
	s.Equal(true, s.decode(rr)["changed"])

	rr = s.do(httptest.NewRequest(http.MethodGet, "/api/me/mfa/qrcode", nil), token)
	s.Require().Equal(http.StatusOK, rr.Code)
	s.Equal("secret_issued", s.decode(rr)["state"])

	rr = s.doJSON(http.MethodPost, "/api/me/mfa/confirm", gin.H{"otp_code": s.code(userID)}, token)
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
	s.Equal(true, s.decode(rr)["mfa_enabled"])
}

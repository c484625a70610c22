package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"marketauth/internal/dto"
	"marketauth/internal/entity"
	"marketauth/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// memStore is a minimal in-memory PrincipalRepository for handler tests.
type memStore struct {
	tables map[entity.PrincipalType]map[uuid.UUID]*entity.Principal
}

func newMemStore() *memStore {
	return &memStore{tables: map[entity.PrincipalType]map[uuid.UUID]*entity.Principal{
		entity.PrincipalBuyer:  {},
		entity.PrincipalVendor: {},
	}}
}

func (s *memStore) Create(ctx context.Context, typ entity.PrincipalType, p *entity.Principal) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	copied := *p
	s.tables[typ][p.ID] = &copied
	return nil
}

func (s *memStore) FindByID(ctx context.Context, typ entity.PrincipalType, id uuid.UUID) (*entity.Principal, error) {
	if p, ok := s.tables[typ][id]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, nil
}

func (s *memStore) FindByEmail(ctx context.Context, typ entity.PrincipalType, email string) (*entity.Principal, error) {
	for _, p := range s.tables[typ] {
		if p.Email == email {
			copied := *p
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *memStore) FindByResetTokenHash(ctx context.Context, typ entity.PrincipalType, tokenHash string, now time.Time) (*entity.Principal, error) {
	for _, p := range s.tables[typ] {
		if p.ResetTokenHash != nil && *p.ResetTokenHash == tokenHash &&
			p.ResetTokenExpires != nil && p.ResetTokenExpires.After(now) {
			copied := *p
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *memStore) SetEmailToken(ctx context.Context, typ entity.PrincipalType, id uuid.UUID, token string, expires time.Time) error {
	if p, ok := s.tables[typ][id]; ok {
		p.EmailToken = &token
		p.EmailTokenExpires = &expires
		p.VerificationState = entity.StatePending
		p.Status = entity.StatusPending
	}
	return nil
}

func (s *memStore) ConsumeEmailToken(ctx context.Context, typ entity.PrincipalType, id uuid.UUID, token string, now time.Time) (bool, error) {
	p, ok := s.tables[typ][id]
	if !ok || p.EmailToken == nil || *p.EmailToken != token || p.EmailTokenExpires == nil || !p.EmailTokenExpires.After(now) {
		return false, nil
	}
	p.VerificationState = entity.StateVerified
	p.Status = entity.StatusCompleted
	verifiedAt := now
	p.VerifiedAt = &verifiedAt
	p.EmailToken = nil
	p.EmailTokenExpires = nil
	return true, nil
}

func (s *memStore) MarkVerified(ctx context.Context, typ entity.PrincipalType, id uuid.UUID, now time.Time) error {
	if p, ok := s.tables[typ][id]; ok {
		p.VerificationState = entity.StateVerified
		p.Status = entity.StatusCompleted
		verifiedAt := now
		p.VerifiedAt = &verifiedAt
		p.EmailToken = nil
		p.EmailTokenExpires = nil
	}
	return nil
}

func (s *memStore) SetResetOTP(ctx context.Context, typ entity.PrincipalType, id uuid.UUID, otpHash string, expires time.Time) error {
	if p, ok := s.tables[typ][id]; ok {
		p.ResetOTPHash = &otpHash
		p.ResetOTPExpires = &expires
	}
	return nil
}

func (s *memStore) ConsumeResetOTP(ctx context.Context, typ entity.PrincipalType, id uuid.UUID, otpHash string, tokenHash string, tokenExpires time.Time, now time.Time) (bool, error) {
	p, ok := s.tables[typ][id]
	if !ok || p.ResetOTPHash == nil || *p.ResetOTPHash != otpHash || p.ResetOTPExpires == nil || !p.ResetOTPExpires.After(now) {
		return false, nil
	}
	p.ResetOTPHash = nil
	p.ResetOTPExpires = nil
	p.ResetTokenHash = &tokenHash
	expires := tokenExpires
	p.ResetTokenExpires = &expires
	return true, nil
}

func (s *memStore) ConsumeResetToken(ctx context.Context, typ entity.PrincipalType, id uuid.UUID, tokenHash string, passwordHash string, now time.Time) (bool, error) {
	p, ok := s.tables[typ][id]
	if !ok || p.ResetTokenHash == nil || *p.ResetTokenHash != tokenHash || p.ResetTokenExpires == nil || !p.ResetTokenExpires.After(now) {
		return false, nil
	}
	p.PasswordHash = &passwordHash
	p.ResetTokenHash = nil
	p.ResetTokenExpires = nil
	return true, nil
}

func (s *memStore) UpdateLastLogin(ctx context.Context, typ entity.PrincipalType, id uuid.UUID, now time.Time) error {
	if p, ok := s.tables[typ][id]; ok {
		lastLogin := now
		p.LastLogin = &lastLogin
	}
	return nil
}

type nullEmailSender struct{}

func (nullEmailSender) SendVerificationEmail(ctx context.Context, email, name, otp string) error {
	return nil
}
func (nullEmailSender) SendPasswordResetEmail(ctx context.Context, email, name, otp string) error {
	return nil
}
func (nullEmailSender) SendPasswordChangedEmail(ctx context.Context, email, name string) error {
	return nil
}

type staticTokenIssuer struct{}

func (staticTokenIssuer) IssueSessionToken(p *entity.Principal, typ entity.PrincipalType) (string, time.Duration, error) {
	return "session-token", 24 * time.Hour, nil
}

func newTestHandler(t *testing.T) (*AuthHandler, *memStore, *echo.Echo) {
	t.Helper()
	store := newMemStore()
	svc := service.NewAuthService(
		store,
		nil,
		nullEmailSender{},
		service.BcryptPasswordHasher{Cost: bcrypt.MinCost},
		staticTokenIssuer{},
		service.RealClock{},
		nil,
		service.AuthConfig{},
	)
	h := NewAuthHandler(svc, validator.New(), nil)
	return h, store, echo.New()
}

func doRequest(t *testing.T, e *echo.Echo, h echo.HandlerFunc, method, target, body string, params map[string]string) (*httptest.ResponseRecorder, dto.Envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	for key, value := range params {
		c.SetParamNames(key)
		c.SetParamValues(value)
	}
	require.NoError(t, h(c))

	var envelope dto.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return rec, envelope
}

func seedVerifiedBuyer(t *testing.T, store *memStore, email, password string) {
	t.Helper()
	hashBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	hash := string(hashBytes)
	require.NoError(t, store.Create(context.Background(), entity.PrincipalBuyer, &entity.Principal{
		Name: "Ada Buyer", Email: email, PasswordHash: &hash,
		VerificationState: entity.StateVerified, Status: entity.StatusCompleted,
	}))
}

func TestSignupHandlerSuccessEnvelope(t *testing.T) {
	h, _, e := newTestHandler(t)

	rec, envelope := doRequest(t, e, h.Signup, http.MethodPost, "/api/auth/buyer/signup",
		`{"name":"Ada","email":"a@x.com","password":"Abc12345!"}`,
		map[string]string{"type": "buyer"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, envelope.Success)
	assert.Equal(t, "Verification code sent to your email", envelope.Message)
	assert.Equal(t, "SIGNUP_SUCCESS", envelope.Data["code"])
	assert.Equal(t, "a@x.com", envelope.Data["email"])
}

func TestSignupHandlerDuplicateEmail(t *testing.T) {
	h, store, e := newTestHandler(t)
	seedVerifiedBuyer(t, store, "a@x.com", "Abc12345!")

	rec, envelope := doRequest(t, e, h.Signup, http.MethodPost, "/api/auth/buyer/signup",
		`{"name":"Ada","email":"a@x.com","password":"Abc12345!"}`,
		map[string]string{"type": "buyer"})

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.False(t, envelope.Success)
	assert.NotEmpty(t, envelope.Message)
	assert.NotNil(t, envelope.Data)
}

func TestSignupHandlerWeakPassword(t *testing.T) {
	h, _, e := newTestHandler(t)

	rec, envelope := doRequest(t, e, h.Signup, http.MethodPost, "/api/auth/buyer/signup",
		`{"name":"Ada","email":"a@x.com","password":"abc12345!"}`,
		map[string]string{"type": "buyer"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, envelope.Success)
	assert.Contains(t, envelope.Message, "uppercase")
}

func TestSignupHandlerUnknownType(t *testing.T) {
	h, _, e := newTestHandler(t)

	rec, envelope := doRequest(t, e, h.Signup, http.MethodPost, "/api/auth/admin/signup",
		`{"name":"Ada","email":"a@x.com","password":"Abc12345!"}`,
		map[string]string{"type": "admin"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, envelope.Success)
}

func TestLoginHandlerInvalidCredentials(t *testing.T) {
	h, store, e := newTestHandler(t)
	seedVerifiedBuyer(t, store, "a@x.com", "Abc12345!")

	recUnknown, envUnknown := doRequest(t, e, h.Login, http.MethodPost, "/api/auth/login",
		`{"email":"ghost@x.com","password":"Abc12345!"}`, nil)
	recWrong, envWrong := doRequest(t, e, h.Login, http.MethodPost, "/api/auth/login",
		`{"email":"a@x.com","password":"Wrong123!"}`, nil)

	assert.Equal(t, http.StatusUnauthorized, recUnknown.Code)
	assert.Equal(t, http.StatusUnauthorized, recWrong.Code)
	// Unknown email and wrong password must be indistinguishable.
	assert.Equal(t, recUnknown.Body.String(), recWrong.Body.String())
	assert.False(t, envUnknown.Success)
	assert.False(t, envWrong.Success)
}

func TestLoginHandlerSuccess(t *testing.T) {
	h, store, e := newTestHandler(t)
	seedVerifiedBuyer(t, store, "a@x.com", "Abc12345!")

	rec, envelope := doRequest(t, e, h.Login, http.MethodPost, "/api/auth/login",
		`{"email":"a@x.com","password":"Abc12345!"}`, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, envelope.Success)
	assert.Equal(t, "Login successful", envelope.Message)
	assert.Equal(t, "session-token", envelope.Data["token"])

	user, ok := envelope.Data["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "a@x.com", user["email"])
	assert.Equal(t, "buyer", user["role"])
	assert.Equal(t, true, user["isVerified"])
	assert.NotContains(t, user, "password")
	assert.NotContains(t, user, "passwordHash")
}

func TestLoginHandlerVerificationRequired(t *testing.T) {
	h, store, e := newTestHandler(t)
	hashBytes, err := bcrypt.GenerateFromPassword([]byte("Abc12345!"), bcrypt.MinCost)
	require.NoError(t, err)
	hash := string(hashBytes)
	require.NoError(t, store.Create(context.Background(), entity.PrincipalVendor, &entity.Principal{
		Name: "Vera", Email: "v@x.com", PasswordHash: &hash,
		VerificationState: entity.StateUnverified, Status: entity.StatusPending,
	}))

	rec, envelope := doRequest(t, e, h.Login, http.MethodPost, "/api/auth/login",
		`{"email":"v@x.com","password":"Abc12345!"}`, nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, envelope.Success)
	assert.Equal(t, true, envelope.Data["requiresVerification"])
	assert.Equal(t, "v@x.com", envelope.Data["email"])
	assert.Equal(t, "vendor", envelope.Data["role"])
}

func TestForgotPasswordHandlerIdenticalResponses(t *testing.T) {
	h, store, e := newTestHandler(t)
	seedVerifiedBuyer(t, store, "a@x.com", "Abc12345!")

	recKnown, _ := doRequest(t, e, h.ForgotPassword, http.MethodPost, "/api/auth/forgot-password",
		`{"email":"a@x.com"}`, nil)
	recUnknown, _ := doRequest(t, e, h.ForgotPassword, http.MethodPost, "/api/auth/forgot-password",
		`{"email":"ghost@x.com"}`, nil)

	assert.Equal(t, http.StatusOK, recKnown.Code)
	assert.Equal(t, http.StatusOK, recUnknown.Code)
	assert.Equal(t, recKnown.Body.String(), recUnknown.Body.String())
}

func TestVerifyEmailHandlerValidation(t *testing.T) {
	h, _, e := newTestHandler(t)

	rec, envelope := doRequest(t, e, h.VerifyEmail, http.MethodPost, "/api/auth/buyer/verify-email",
		`{"email":"a@x.com","otp":"12"}`,
		map[string]string{"type": "buyer"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, envelope.Success)
}

func TestResetPasswordHandlerInvalidToken(t *testing.T) {
	h, _, e := newTestHandler(t)

	rec, envelope := doRequest(t, e, h.ResetPassword, http.MethodPost, "/api/auth/reset-password",
		`{"resetToken":"never-issued","newPassword":"NewPass99!"}`, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, envelope.Success)
	assert.NotEmpty(t, envelope.Message)
}

func TestMalformedBodyEnvelope(t *testing.T) {
	h, _, e := newTestHandler(t)

	rec, envelope := doRequest(t, e, h.Login, http.MethodPost, "/api/auth/login", `{not json`, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, envelope.Success)
	assert.Equal(t, "invalid request body", envelope.Message)
	assert.NotNil(t, envelope.Data)
}

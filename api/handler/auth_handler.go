package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"marketauth/api/middleware"
	"marketauth/internal/dto"
	"marketauth/internal/entity"
	"marketauth/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const (
	codeSignupSuccess     = "SIGNUP_SUCCESS"
	codeSignupEmailFailed = "SIGNUP_SUCCESS_EMAIL_FAILED"
)

// forgotPasswordMessage is returned whether or not the account exists; the
// two cases must stay byte-identical.
const forgotPasswordMessage = "If an account exists for that email, a password reset code has been sent"

type AuthHandler struct {
	Service     *service.AuthService
	Validate    *validator.Validate
	Logger      logrus.FieldLogger
	Development bool
}

func NewAuthHandler(svc *service.AuthService, validate *validator.Validate, logger logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{
		Service:  svc,
		Validate: validate,
		Logger:   logger,
	}
}

func (h *AuthHandler) Signup(c echo.Context) error {
	typ, ok := principalTypeParam(c)
	if !ok {
		return writeError(c, http.StatusBadRequest, "Unknown account type", nil)
	}
	var req dto.SignupRequest
	if err := h.bind(c, &req); err != nil {
		return writeError(c, http.StatusBadRequest, err.Error(), nil)
	}

	result, err := h.Service.Signup(c.Request().Context(), typ, service.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
		Country:  req.Country,
		State:    req.State,
		Address:  req.Address,
	})
	if err != nil {
		return h.writeServiceError(c, err)
	}

	message := "Verification code sent to your email"
	code := codeSignupSuccess
	if !result.EmailSent {
		message = "Account created, but failed to send verification email"
		code = codeSignupEmailFailed
	}
	return c.JSON(http.StatusCreated, dto.SuccessResponse(message, map[string]any{
		"email": result.Email,
		"code":  code,
	}))
}

func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	typ, ok := principalTypeParam(c)
	if !ok {
		return writeError(c, http.StatusBadRequest, "Unknown account type", nil)
	}
	var req dto.VerifyEmailRequest
	if err := h.bind(c, &req); err != nil {
		return writeError(c, http.StatusBadRequest, err.Error(), nil)
	}

	result, err := h.Service.VerifyEmail(c.Request().Context(), typ, req.Email, req.OTP)
	if err != nil {
		return h.writeServiceError(c, err)
	}
	if result.AlreadyVerified {
		return c.JSON(http.StatusOK, dto.SuccessResponse(
			"Your account is already verified. You can proceed to login.",
			map[string]any{"isVerified": true, "code": "ALREADY_VERIFIED"},
		))
	}
	return c.JSON(http.StatusOK, dto.SuccessResponse(
		"Email verified successfully! You can now log in to your account.", nil,
	))
}

func (h *AuthHandler) ResendVerification(c echo.Context) error {
	typ, ok := principalTypeParam(c)
	if !ok {
		return writeError(c, http.StatusBadRequest, "Unknown account type", nil)
	}
	var req dto.ResendVerificationRequest
	if err := h.bind(c, &req); err != nil {
		return writeError(c, http.StatusBadRequest, err.Error(), nil)
	}

	result, err := h.Service.ResendVerification(c.Request().Context(), typ, req.Email)
	if err != nil {
		return h.writeServiceError(c, err)
	}
	message := "A new verification code has been sent to your email"
	if !result.EmailSent {
		message = "Verification code regenerated, but the email could not be sent"
	}
	return c.JSON(http.StatusOK, dto.SuccessResponse(message, map[string]any{"email": result.Email}))
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req dto.LoginRequest
	if err := h.bind(c, &req); err != nil {
		return writeError(c, http.StatusBadRequest, err.Error(), nil)
	}

	result, err := h.Service.Login(c.Request().Context(), service.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		IPAddress: stringPtr(c.RealIP()),
	})
	if err != nil {
		return h.writeServiceError(c, err)
	}

	principal := dto.PrincipalResponseFromProfile(&result.Principal)
	return c.JSON(http.StatusOK, dto.SuccessResponse("Login successful", map[string]any{
		"token":     result.Token,
		"expiresIn": result.ExpiresIn,
		"user":      principal,
	}))
}

func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req dto.ForgotPasswordRequest
	if err := h.bind(c, &req); err != nil {
		return writeError(c, http.StatusBadRequest, err.Error(), nil)
	}

	if err := h.Service.ForgotPassword(c.Request().Context(), req.Email); err != nil {
		return h.writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.SuccessResponse(forgotPasswordMessage, nil))
}

func (h *AuthHandler) VerifyResetOTP(c echo.Context) error {
	var req dto.VerifyResetOTPRequest
	if err := h.bind(c, &req); err != nil {
		return writeError(c, http.StatusBadRequest, err.Error(), nil)
	}

	result, err := h.Service.VerifyResetOTP(c.Request().Context(), req.Email, req.OTP)
	if err != nil {
		return h.writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.SuccessResponse("Code verified. Use the reset token to set a new password.", map[string]any{
		"resetToken": result.ResetToken,
		"expiresIn":  result.ExpiresIn,
	}))
}

func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req dto.ResetPasswordRequest
	if err := h.bind(c, &req); err != nil {
		return writeError(c, http.StatusBadRequest, err.Error(), nil)
	}

	result, err := h.Service.ResetPassword(c.Request().Context(), req.ResetToken, req.NewPassword)
	if err != nil {
		return h.writeServiceError(c, err)
	}
	message := "Password reset successfully. You can now log in with your new password."
	if !result.EmailSent {
		message = "Password reset successfully, but the confirmation email could not be sent."
	}
	return c.JSON(http.StatusOK, dto.SuccessResponse(message, nil))
}

func (h *AuthHandler) Me(c echo.Context) error {
	principalID, ok := middleware.PrincipalIDFromContext(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, "Authentication required. Please login.", nil)
	}
	profile, err := h.Service.GetPrincipal(c.Request().Context(), principalID)
	if err != nil {
		return h.writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.SuccessResponse("OK", map[string]any{
		"user": dto.PrincipalResponseFromProfile(profile),
	}))
}

func (h *AuthHandler) bind(c echo.Context, target any) error {
	decoder := json.NewDecoder(c.Request().Body)
	if err := decoder.Decode(target); err != nil {
		return errors.New("invalid request body")
	}
	if h.Validate == nil {
		return nil
	}
	return h.Validate.Struct(target)
}

func (h *AuthHandler) writeServiceError(c echo.Context, err error) error {
	var vre *service.VerificationRequiredError
	if errors.As(err, &vre) {
		return writeError(c, http.StatusForbidden, vre.Error(), map[string]any{
			"requiresVerification": true,
			"email":                vre.Email,
			"role":                 string(vre.PrincipalType),
		})
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrWeakPassword),
		errors.Is(err, service.ErrNoPendingToken),
		errors.Is(err, service.ErrCodeMismatch),
		errors.Is(err, service.ErrCodeExpired),
		errors.Is(err, service.ErrAlreadyVerified),
		errors.Is(err, service.ErrInvalidResetReq),
		errors.Is(err, service.ErrInvalidOrExpired),
		errors.Is(err, service.ErrInvalidResetToken):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrDuplicateEmail):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		if h.Logger != nil {
			h.Logger.WithError(err).Error("unhandled service error")
		}
		message := "An unexpected error occurred"
		var data map[string]any
		if h.Development {
			data = map[string]any{"error": err.Error()}
		}
		return writeError(c, status, message, data)
	}
	return writeError(c, status, err.Error(), nil)
}

func writeError(c echo.Context, status int, message string, data map[string]any) error {
	return c.JSON(status, dto.ErrorResponse(message, data))
}

func principalTypeParam(c echo.Context) (entity.PrincipalType, bool) {
	switch c.Param("type") {
	case "buyer":
		return entity.PrincipalBuyer, true
	case "vendor", "seller":
		return entity.PrincipalVendor, true
	}
	return "", false
}

func stringPtr(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

package routes

import (
	"time"

	"marketauth/api/handler"
	"marketauth/api/middleware"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

type Router struct {
	Echo           *echo.Echo
	Auth           *handler.AuthHandler
	AuthMiddleware middleware.AuthMiddleware
	SignupRate     *middleware.RateLimiter
	LoginRate      *middleware.RateLimiter
}

func NewRouter(e *echo.Echo, authHandler *handler.AuthHandler, authMiddleware middleware.AuthMiddleware) *Router {
	return &Router{
		Echo:           e,
		Auth:           authHandler,
		AuthMiddleware: authMiddleware,
		SignupRate:     middleware.NewRateLimiter(rate.Limit(5), 10, 5*time.Minute),
		LoginRate:      middleware.NewRateLimiter(rate.Limit(2), 4, 10*time.Minute),
	}
}

func (r *Router) RegisterRoutes() {
	e := r.Echo

	auth := e.Group("/api/auth")
	auth.POST("/:type/signup", r.Auth.Signup, r.SignupRate.Middleware())
	auth.POST("/:type/verify-email", r.Auth.VerifyEmail, r.SignupRate.Middleware())
	auth.POST("/:type/resend-verification", r.Auth.ResendVerification, r.SignupRate.Middleware())
	auth.POST("/login", r.Auth.Login, r.LoginRate.Middleware())
	auth.POST("/forgot-password", r.Auth.ForgotPassword, r.LoginRate.Middleware())
	auth.POST("/verify-reset-otp", r.Auth.VerifyResetOTP, r.SignupRate.Middleware())
	auth.POST("/reset-password", r.Auth.ResetPassword, r.SignupRate.Middleware())

	auth.GET("/me", r.Auth.Me, r.AuthMiddleware.RequireSession)
}

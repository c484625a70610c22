package main

import (
	"net/http"
	"os"
	"time"

	"marketauth/api/handler"
	apiMiddleware "marketauth/api/middleware"
	"marketauth/api/routes"
	"marketauth/config"
	"marketauth/internal/repository"
	"marketauth/internal/service"
	"marketauth/internal/utils"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}

	db, err := config.ConnectionDb(cfg.DatabaseURL)
	if err != nil {
		logger.WithError(err).Fatal("error connect to database")
	}

	validate := validator.New()

	jwtManager := utils.JWTManager{
		Secret:          []byte(cfg.JWTSecret),
		Issuer:          cfg.JWTIssuer,
		SessionTokenTTL: cfg.SessionTokenTTL,
	}

	principalRepo := repository.NewPrincipalRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	emailSender := service.NewResendEmailSender(cfg.ResendAPIKey, cfg.EmailFrom)
	passwordHasher := service.BcryptPasswordHasher{Cost: cfg.BcryptCost}

	authService := service.NewAuthService(
		principalRepo,
		auditRepo,
		emailSender,
		passwordHasher,
		service.JWTSessionIssuer{Manager: &jwtManager},
		service.RealClock{},
		logger,
		service.AuthConfig{
			OTPTTL:          cfg.OTPTTL,
			ResetOTPTTL:     cfg.ResetOTPTTL,
			ResetTokenTTL:   cfg.ResetTokenTTL,
			SessionTokenTTL: cfg.SessionTokenTTL,
			BcryptCost:      cfg.BcryptCost,
		},
	)

	authHandler := handler.NewAuthHandler(authService, validate, logger)
	authHandler.Development = cfg.Development

	app := echo.New()
	app.HideBanner = true
	app.HidePort = true
	app.Use(echoMiddleware.Recover())
	app.Use(echoMiddleware.RequestLoggerWithConfig(echoMiddleware.RequestLoggerConfig{
		LogStatus:   true,
		LogMethod:   true,
		LogURI:      true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echoMiddleware.RequestLoggerValues) error {
			entry := logger.WithFields(logrus.Fields{
				"status": v.Status,
				"method": v.Method,
				"uri":    v.URI,
				"ip":     v.RemoteIP,
			})
			if v.Error != nil {
				entry.WithError(v.Error).Error("request")
				return nil
			}
			entry.Info("request")
			return nil
		},
	}))

	authMiddleware := apiMiddleware.AuthMiddleware{JWT: &jwtManager}
	router := routes.NewRouter(app, authHandler, authMiddleware)
	router.RegisterRoutes()

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.WithField("addr", cfg.HTTPAddr).Info("server started")
	if err := app.StartServer(server); err != nil {
		logger.WithError(err).Fatal("server stopped")
	}
}

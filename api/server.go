package api

import (
	"context"

	"github.com/brpaz/echozap"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/careplus/onboarding/accounts"
	"github.com/careplus/onboarding/clinical"
	"github.com/careplus/onboarding/conditions"
	"github.com/careplus/onboarding/enrollment"
	"github.com/careplus/onboarding/errors"
	"github.com/careplus/onboarding/healthdata"
	"github.com/careplus/onboarding/logger"
	"github.com/careplus/onboarding/profiles"
	"github.com/careplus/onboarding/store"
	"github.com/careplus/onboarding/verification"
)

var (
	ServerString = ":8080"
)

func Start(e *echo.Echo, log *zap.SugaredLogger, lifecycle fx.Lifecycle) {
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := e.Start(ServerString); err != nil {
					log.Infow("server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return e.Shutdown(ctx)
		},
	})
}

func SetReady(healthCheck *HealthCheck, db *mongo.Database, lifecycle fx.Lifecycle) {
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := db.Client().Ping(ctx, nil); err != nil {
				return err
			}

			// It's important this is set after mongo is initialized, which is ensured
			// by taking a dependency on mongo in the constructor, because lifecycle hooks
			// are executed in topological order
			healthCheck.SetReady(true)
			return nil
		},
		OnStop: nil,
	})
}

func NewServer(handler *Handler, healthCheck *HealthCheck, tokens accounts.TokenConfig, log *zap.Logger) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Recover())
	e.Use(echozap.ZapLogger(log))
	e.HTTPErrorHandler = errors.CustomHTTPErrorHandler

	e.GET("/ready", healthCheck.Ready)

	v1 := e.Group("/v1")
	v1.POST("/auth/register", handler.RegisterPatient)
	v1.POST("/auth/login", handler.Login)

	v1.GET("/enrollment", handler.GetEnrollment)
	v1.DELETE("/enrollment", handler.AbortEnrollment)
	v1.POST("/enrollment/resume", handler.ResumeEnrollment)
	v1.POST("/enrollment/verification/confirm", handler.ConfirmVerification)
	v1.POST("/enrollment/verification/cancel", handler.CancelVerification)

	profile := v1.Group("/profile", NewAuthMiddleware(tokens))
	profile.GET("", handler.GetProfile)
	profile.GET("/conditions", handler.ListConditions)
	profile.POST("/conditions", handler.AddCondition)
	profile.DELETE("/conditions/:name", handler.RemoveCondition)

	return e, nil
}

// Dependencies lists every constructor the service needs. The CLI reuses
// the storage subset, so the groups are split.
func Dependencies() []fx.Option {
	return []fx.Option{
		fx.Provide(
			logger.NewProductionLogger,
			logger.Sugar,
			store.NewConfig,
			store.NewClient,
			store.NewDatabase,
			store.NewRecords,
			accounts.NewTokenConfig,
			clinical.NewConfig,
			clinical.NewRules,
			verification.NewConfig,
			verification.NewClient,
			healthdata.NewConfig,
			healthdata.NewClient,
			healthdata.NewAnalysisConfig,
			healthdata.NewAnalyzer,
			profiles.NewService,
			conditions.NewService,
			enrollment.NewOrchestrator,
			NewHealthCheck,
			NewHandler,
			NewServer,
		),
	}
}

func MainLoop() {
	options := append(
		Dependencies(),
		fx.Invoke(SetReady),
		fx.Invoke(Start),
	)
	fx.New(options...).Run()
}

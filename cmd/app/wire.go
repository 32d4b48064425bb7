//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/workout-coach/internal/bootstrap"
	"github.com/yanqian/workout-coach/internal/domain/analysis"
	"github.com/yanqian/workout-coach/internal/domain/athlete"
	"github.com/yanqian/workout-coach/internal/domain/auth"
	"github.com/yanqian/workout-coach/internal/domain/usage"
	"github.com/yanqian/workout-coach/internal/infra/config"
	httpiface "github.com/yanqian/workout-coach/internal/interface/http"
	"github.com/yanqian/workout-coach/pkg/logger"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		bootstrap.NewClosers,
		provideBackends,
		provideAnalysisRepository,
		provideProfileRepository,
		provideUserRepository,
		provideUsageStore,
		provideLocker,
		provideUsageTracker,
		providePromptBuilder,
		provideGenerator,
		provideActivitySource,
		provideProfileSource,
		provideAnalysisConfig,
		provideAuthConfig,
		provideModelInfo,
		wire.Bind(new(analysis.Quota), new(*usage.Tracker)),
		athlete.NewService,
		auth.NewService,
		analysis.NewService,
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}

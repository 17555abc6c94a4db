package bootstrap

import (
	"time"

	"web-page-analyzer/internal/browser"
	"web-page-analyzer/internal/config"
	"web-page-analyzer/internal/console"
	"web-page-analyzer/internal/describe"
	"web-page-analyzer/internal/ports"
	"web-page-analyzer/internal/usecase"

	"go.uber.org/fx"
)

func NewApp() *fx.App {
	return fx.New(
		fx.Provide(
			config.GetConfig,
			newLogger,
			newTraceProvider,

			fx.Annotate(browser.NewSession, fx.As(new(ports.BrowserSession))),
			fx.Annotate(describe.NewClient, fx.As(new(ports.Describer))),

			usecase.NewUsecase,

			console.NewInterface,
		),

		fx.Invoke(
			runConsole,
		),

		fx.StartTimeout(60*time.Second),
	)
}

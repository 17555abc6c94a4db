package usecase

import (
	"web-page-analyzer/internal/config"
	"web-page-analyzer/internal/ports"
	"web-page-analyzer/internal/usecase/adapters"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Service struct {
	Analyzer adapters.AnalyzerService
	Recorder adapters.RecorderService
	Export   adapters.ExportService
}

type Params struct {
	fx.In

	Logger    *zap.Logger
	Config    *config.Config
	Session   ports.BrowserSession
	Describer ports.Describer
}

func NewUsecase(params Params) *Service {
	factory := newServiceFactory(params)

	return &Service{
		Analyzer: factory.CreateAnalyzerService(),
		Recorder: factory.CreateRecorderService(),
		Export:   factory.CreateExportService(),
	}
}

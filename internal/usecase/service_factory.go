package usecase

import (
	"web-page-analyzer/internal/usecase/adapters"
)

type serviceFactory struct {
	deps Params
}

func newServiceFactory(deps Params) *serviceFactory {
	return &serviceFactory{
		deps: deps,
	}
}

func (f *serviceFactory) CreateAnalyzerService() adapters.AnalyzerService {
	return NewAnalyzerService(AnalyzerServiceParams{
		Config:  f.deps.Config,
		Logger:  f.deps.Logger,
		Session: f.deps.Session,
	})
}

func (f *serviceFactory) CreateRecorderService() adapters.RecorderService {
	return NewRecorderService(RecorderServiceParams{
		Config:    f.deps.Config,
		Logger:    f.deps.Logger,
		Session:   f.deps.Session,
		Describer: f.deps.Describer,
	})
}

func (f *serviceFactory) CreateExportService() adapters.ExportService {
	return NewExportService(ExportServiceParams{
		Config: f.deps.Config,
		Logger: f.deps.Logger,
	})
}

package adapters

import (
	"context"

	"web-page-analyzer/internal/entity"
)

type AnalyzerService interface {
	Analyze(ctx context.Context, url string) (*entity.PageAnalysis, error)
}

type RecorderService interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) ([]entity.ActionRecord, error)
	Records() []entity.ActionRecord
	Results() <-chan entity.ActionRecord
	State() entity.RecorderState
}

type ExportService interface {
	SaveAnalysis(ctx context.Context, analysis *entity.PageAnalysis, path string) (string, error)
	SaveRecords(ctx context.Context, records []entity.ActionRecord, path string) (string, error)
	WriteScript(ctx context.Context, records []entity.ActionRecord, path string) (string, error)
	WriteReport(ctx context.Context, records []entity.ActionRecord, path string) (string, error)
}

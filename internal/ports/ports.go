package ports

import (
	"context"

	"web-page-analyzer/internal/analyzer"
	"web-page-analyzer/internal/entity"
)

// PageElement is a live element handle exposing both the locatable and
// classifiable capability sets.
type PageElement interface {
	analyzer.Element
	analyzer.Classifiable
}

// BrowserSession is the rendering collaborator. One session owns one
// live page; callers must serialize operations against it.
type BrowserSession interface {
	Launch(ctx context.Context) error
	Close(ctx context.Context) error
	Navigate(ctx context.Context, url string) error
	URL(ctx context.Context) (string, error)
	Title(ctx context.Context) (string, error)
	Document(ctx context.Context) (analyzer.Document, error)
	QueryAll(ctx context.Context, selector string) ([]PageElement, error)
	Screenshot(ctx context.Context, path string) error
	InjectRecorder(ctx context.Context, debounceMs int) error
	RecorderInjected(ctx context.Context) (bool, error)
	DrainEvents(ctx context.Context) ([]entity.RawEvent, error)
	EventTarget(ctx context.Context, ref string) (analyzer.Element, error)
	IsReady() bool
}

// Describer turns an action record into a human-readable sentence.
type Describer interface {
	Describe(ctx context.Context, record entity.ActionRecord) (string, error)
	Available() bool
}

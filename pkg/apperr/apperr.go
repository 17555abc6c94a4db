package apperr

import (
	"errors"
	"fmt"
)

const (
	MetaReason   = "reason"
	MetaStage    = "stage"
	MetaField    = "field"
	MetaSelector = "selector"
	MetaLocator  = "locator"
	MetaURL      = "url"
	MetaPath     = "path"
	MetaCategory = "category"

	StageBrowser    = "browser"
	StageNavigation = "navigation"
	StageAnalysis   = "analysis"
	StageStructure  = "structure"
	StageRecording  = "recording"
	StageDescribe   = "describe"
	StageExport     = "export"
	StageScreenshot = "screenshot"

	CodeInternal         = "internal"
	CodeInvalidArgument  = "invalid_argument"
	CodeNotFound         = "not_found"
	CodeTimeout          = "timeout"
	CodeRenderTimeout    = "render_timeout"
	CodeResolutionFailed = "resolution_failed"
	CodeSessionLost      = "session_lost"
	CodeBrowserNotReady  = "browser_not_ready"
	CodeRecorderBusy     = "recorder_busy"
	CodeExportFailed     = "export_failed"
	CodeDescribeFailed   = "describe_failed"
)

type Error struct {
	Op       string
	Code     string
	Err      error
	Metadata map[string]any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}

	return e.Op
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Wrap(op, code string, err error, metadata map[string]any) error {
	if metadata == nil {
		metadata = make(map[string]any)
	}

	return &Error{
		Op:       op,
		Code:     code,
		Err:      err,
		Metadata: metadata,
	}
}

func WrapWithReason(op, code string, err error, reason string) error {
	return Wrap(op, code, err, map[string]any{
		MetaReason: reason,
	})
}

func WrapErrorWithReason(op, code, reason string) error {
	return Wrap(op, code, errors.New(reason), map[string]any{
		MetaReason: reason,
	})
}

func InvalidReqError(op, field string, err error) error {
	return Wrap(op, CodeInvalidArgument, err, map[string]any{
		MetaField:  field,
		MetaReason: "invalid_request",
	})
}

func NotFoundError(op string, err error) error {
	return Wrap(op, CodeNotFound, err, map[string]any{
		MetaReason: "not_found",
	})
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code string) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}

	return false
}

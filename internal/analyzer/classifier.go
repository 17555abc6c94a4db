package analyzer

import (
	"time"

	"web-page-analyzer/internal/entity"
)

// DefaultProbeTimeout bounds the actionability wait. Clickability is a
// best-effort probe: a slow page yields false, never a hang.
const DefaultProbeTimeout = time.Second

// Classify computes the affordance flags for el. It never returns an
// error: any failing probe (detached node, lost session) degrades to
// the conservative false.
func Classify(el Classifiable, probeTimeout time.Duration) entity.Affordances {
	if probeTimeout <= 0 {
		probeTimeout = DefaultProbeTimeout
	}

	var a entity.Affordances

	displayed, err := el.Displayed()
	if err != nil || !displayed {
		return a
	}

	box, err := el.Box()
	if err != nil || box.Width <= 0 || box.Height <= 0 {
		return a
	}

	a.Visible = true

	if err := el.WaitClickable(probeTimeout); err == nil {
		a.Clickable = true
	}

	enabled, err := el.Enabled()
	a.Interactable = err == nil && enabled

	return a
}

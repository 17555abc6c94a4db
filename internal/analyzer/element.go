package analyzer

import (
	"time"

	"web-page-analyzer/internal/entity"
)

// Element is the capability set the locator generator and context
// extractor need from a rendered DOM node. Implementations wrap a live
// renderer handle; tests supply an in-memory tree.
//
// Parent and PrevSibling return (nil, nil) when no such node exists.
type Element interface {
	Tag() (string, error)
	Text() (string, error)
	Attributes() (map[string]string, error)
	Parent() (Element, error)
	PrevSibling() (Element, error)

	// SameTagOrdinal reports the 1-based position of the node among
	// siblings sharing its tag, and whether any such sibling exists.
	SameTagOrdinal() (ordinal int, indexed bool, err error)
}

// Classifiable is the capability set the element classifier needs.
// Every probe is advisory: failures map to false, never to errors.
type Classifiable interface {
	Displayed() (bool, error)
	Box() (entity.BoundingBox, error)
	Enabled() (bool, error)
	WaitClickable(timeout time.Duration) error
}

// Document gives the core bounded read access to the page as a whole.
type Document interface {
	// LabelForID resolves a <label for=id> association. Returns ""
	// when no such label exists.
	LabelForID(id string) (string, error)
	Count(selector string) (int, error)
	Forms() ([]entity.FormInfo, error)
}

package entity

import (
	"time"

	"github.com/google/uuid"
)

// ElementCategory is the closed set of semantic element categories an
// analysis run is allowed to report.
type ElementCategory string

const (
	CategoryButtons    ElementCategory = "buttons"
	CategoryInputs     ElementCategory = "inputs"
	CategoryCheckboxes ElementCategory = "checkboxes"
	CategoryLinks      ElementCategory = "links"
	CategoryForms      ElementCategory = "forms"
	CategoryMedia      ElementCategory = "media"
)

// Categories lists every category in discovery order.
func Categories() []ElementCategory {
	return []ElementCategory{
		CategoryButtons,
		CategoryInputs,
		CategoryCheckboxes,
		CategoryLinks,
		CategoryForms,
		CategoryMedia,
	}
}

type LocatorKind string

const (
	LocatorKindID       LocatorKind = "id"
	LocatorKindName     LocatorKind = "name"
	LocatorKindClass    LocatorKind = "class"
	LocatorKindText     LocatorKind = "text"
	LocatorKindPosition LocatorKind = "position"
)

type Locator struct {
	Kind LocatorKind `json:"kind"`
	Expr string      `json:"expr"`
}

type Affordances struct {
	Visible      bool `json:"visible"`
	Clickable    bool `json:"clickable"`
	Interactable bool `json:"interactable"`
}

type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Context map keys populated by the context extractor. A key is present
// only when the underlying value was actually discovered.
const (
	ContextLabel           = "label"
	ContextFormAction      = "form_action"
	ContextFormMethod      = "form_method"
	ContextFormID          = "form_id"
	ContextFormClass       = "form_class"
	ContextSurroundingText = "surrounding_text"
	ContextPlaceholder     = "placeholder"
	ContextTitle           = "title"
)

type ElementInfo struct {
	TagName      string            `json:"tag_name"`
	Category     ElementCategory   `json:"element_type"`
	Locator      string            `json:"locator"`
	LocatorKind  LocatorKind       `json:"locator_kind"`
	CSSSelector  string            `json:"css_selector"`
	Text         string            `json:"text_content"`
	Attributes   map[string]string `json:"attributes"`
	Visible      bool              `json:"is_visible"`
	Clickable    bool              `json:"is_clickable"`
	Interactable bool              `json:"is_interactable"`
	BoundingBox  BoundingBox       `json:"bounding_box"`
	Context      map[string]string `json:"context"`
}

type FormInfo struct {
	Action string `json:"action"`
	Method string `json:"method"`
	ID     string `json:"id,omitempty"`
	Class  string `json:"class,omitempty"`
}

type PageStructure struct {
	Forms      []FormInfo `json:"forms"`
	FormCount  int        `json:"form_count"`
	Navigation int        `json:"navigation_count"`
	Headers    int        `json:"header_count"`
	Footers    int        `json:"footer_count"`
	Mains      int        `json:"main_count"`
	Articles   int        `json:"article_count"`
	Sections   int        `json:"section_count"`
	Images     int        `json:"image_count"`
	Videos     int        `json:"video_count"`
}

type PageAnalysis struct {
	ID        uuid.UUID         `json:"id"`
	URL       string            `json:"url"`
	Title     string            `json:"title"`
	Elements  []ElementInfo     `json:"elements"`
	Structure *PageStructure    `json:"page_structure"`
	Metadata  map[string]any    `json:"metadata"`
	Timestamp time.Time         `json:"timestamp"`
}

type ActionKind string

const (
	ActionNavigate ActionKind = "navigate"
	ActionClick    ActionKind = "click"
	ActionInput    ActionKind = "input"
	ActionSubmit   ActionKind = "submit"
)

type ActionRecord struct {
	ID          uuid.UUID         `json:"id"`
	Timestamp   time.Time         `json:"timestamp"`
	Kind        ActionKind        `json:"action"`
	Locator     string            `json:"locator"`
	Text        string            `json:"element_text"`
	Value       string            `json:"value,omitempty"`
	Tag         string            `json:"element_tag"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	URL         string            `json:"page_url"`
	Description string            `json:"description"`
	Screenshot  string            `json:"screenshot,omitempty"`
}

// RawEvent is one entry drained from the in-page capture buffer, before
// deduplication and locator resolution.
type RawEvent struct {
	Key        string            `json:"key"`
	Ref        string            `json:"ref"`
	Kind       string            `json:"kind"`
	Locator    string            `json:"locator"`
	Tag        string            `json:"tag"`
	Text       string            `json:"text"`
	Value      string            `json:"value"`
	URL        string            `json:"url"`
	Attributes map[string]string `json:"attributes"`
}

type RecorderState string

const (
	RecorderIdle      RecorderState = "idle"
	RecorderRecording RecorderState = "recording"
)

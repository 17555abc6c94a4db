package describe

import (
	"fmt"
	"strings"

	"web-page-analyzer/internal/entity"
)

// Fallback produces a deterministic description from the record's own
// fields. Pure function; used whenever no describer is configured or a
// remote call fails.
func Fallback(record entity.ActionRecord) string {
	element := elementDescriptor(record)

	switch record.Kind {
	case entity.ActionNavigate:
		return fmt.Sprintf("Navigated to %s", record.URL)
	case entity.ActionClick:
		if text := strings.TrimSpace(record.Text); text != "" {
			return fmt.Sprintf("Clicked on %s with text '%s'", element, truncate(text, 30))
		}

		return fmt.Sprintf("Clicked on %s", element)
	case entity.ActionInput:
		return fmt.Sprintf("Entered text in %s", element)
	case entity.ActionSubmit:
		return fmt.Sprintf("Submitted form %s", element)
	default:
		return fmt.Sprintf("%s on %s", record.Kind, element)
	}
}

// elementDescriptor renders tag#id.class in the compact form the
// original capture log used.
func elementDescriptor(record entity.ActionRecord) string {
	descriptor := record.Tag
	if descriptor == "" {
		descriptor = "element"
	}

	if id := record.Attributes["id"]; id != "" {
		descriptor += "#" + id
	} else if class := record.Attributes["class"]; class != "" {
		descriptor += "." + strings.Join(strings.Fields(class), ".")
	}

	return descriptor
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}

	return string(runes[:limit]) + "..."
}

package analyzer

import (
	"strings"

	"web-page-analyzer/internal/entity"
)

const (
	// DefaultMaxSurroundingText bounds the parent-text capture.
	DefaultMaxSurroundingText = 200

	// Preceding-sibling text longer than this is prose, not a label.
	maxHeuristicLabelLen = 100
)

// ExtractContext gathers human-meaningful context for el: an associated
// label, enclosing form metadata, bounded surrounding text, and the
// placeholder/title attributes. Keys are set only when a value was
// actually found; every individual probe failure is swallowed so one
// bad fragment never aborts the element's analysis.
func ExtractContext(doc Document, el Element, maxSurrounding int) map[string]string {
	if maxSurrounding <= 0 {
		maxSurrounding = DefaultMaxSurroundingText
	}

	context := make(map[string]string)

	attrs, err := el.Attributes()
	if err != nil {
		attrs = map[string]string{}
	}

	wrappingLabel, form := scanAncestors(el)

	if label, ok := resolveLabel(doc, attrs, wrappingLabel, el); ok {
		context[entity.ContextLabel] = label
	}

	if form != nil {
		applyFormContext(context, form)
	}

	if text, ok := surroundingText(el, maxSurrounding); ok {
		context[entity.ContextSurroundingText] = text
	}

	if placeholder, ok := attrs["placeholder"]; ok {
		context[entity.ContextPlaceholder] = placeholder
	}

	if title, ok := attrs["title"]; ok {
		context[entity.ContextTitle] = title
	}

	return context
}

// resolveLabel applies the precedence order: explicit for-association,
// wrapping <label>, then nearest preceding sibling that looks like a
// short caption.
func resolveLabel(doc Document, attrs map[string]string, wrappingLabel Element, el Element) (string, bool) {
	if id := attrs["id"]; id != "" {
		if text, err := doc.LabelForID(id); err == nil {
			if text = strings.TrimSpace(text); text != "" {
				return text, true
			}
		}
	}

	if wrappingLabel != nil {
		if text, err := wrappingLabel.Text(); err == nil {
			if text = strings.TrimSpace(text); text != "" {
				return text, true
			}
		}
	}

	return precedingCaption(el)
}

// scanAncestors walks up once, collecting the nearest wrapping <label>
// and the enclosing <form>, whichever appear first.
func scanAncestors(el Element) (label Element, form Element) {
	current, err := el.Parent()
	if err != nil {
		return nil, nil
	}

	for depth := 0; current != nil && depth < maxPathDepth; depth++ {
		tag, err := current.Tag()
		if err != nil {
			return label, form
		}

		switch strings.ToLower(tag) {
		case "label":
			if label == nil {
				label = current
			}
		case "form":
			if form == nil {
				form = current
			}
		}

		if label != nil && form != nil {
			break
		}

		current, err = current.Parent()
		if err != nil {
			return label, form
		}
	}

	return label, form
}

func precedingCaption(el Element) (string, bool) {
	sibling, err := el.PrevSibling()
	if err != nil {
		return "", false
	}

	for depth := 0; sibling != nil && depth < maxPathDepth; depth++ {
		tag, err := sibling.Tag()
		if err != nil {
			return "", false
		}

		switch strings.ToLower(tag) {
		case "label", "span", "div":
			text, err := sibling.Text()
			if err == nil {
				text = strings.TrimSpace(text)
				if text != "" && len(text) < maxHeuristicLabelLen {
					return text, true
				}
			}
		}

		sibling, err = sibling.PrevSibling()
		if err != nil {
			return "", false
		}
	}

	return "", false
}

func applyFormContext(context map[string]string, form Element) {
	attrs, err := form.Attributes()
	if err != nil {
		return
	}

	if action, ok := attrs["action"]; ok {
		context[entity.ContextFormAction] = action
	}

	method := attrs["method"]
	if method == "" {
		method = "get"
	}
	context[entity.ContextFormMethod] = method

	if id := attrs["id"]; id != "" {
		context[entity.ContextFormID] = id
	}

	if class := attrs["class"]; class != "" {
		context[entity.ContextFormClass] = class
	}
}

func surroundingText(el Element, limit int) (string, bool) {
	parent, err := el.Parent()
	if err != nil || parent == nil {
		return "", false
	}

	text, err := parent.Text()
	if err != nil {
		return "", false
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}

	return truncate(text, limit), true
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}

	return string(runes[:limit]) + "..."
}

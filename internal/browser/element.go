package browser

import (
	"fmt"
	"time"

	"web-page-analyzer/internal/analyzer"
	"web-page-analyzer/internal/entity"

	"github.com/playwright-community/playwright-go"
)

// pageElement adapts a playwright handle to the analyzer capability
// interfaces. All DOM reads go through bounded JS evaluation; the
// adapter never mutates the page.
type pageElement struct {
	handle playwright.ElementHandle
}

func newPageElement(handle playwright.ElementHandle) *pageElement {
	return &pageElement{handle: handle}
}

func (e *pageElement) Tag() (string, error) {
	result, err := e.handle.Evaluate(`el => el.tagName.toLowerCase()`)
	if err != nil {
		return "", fmt.Errorf("read tag: %w", err)
	}

	tag, ok := result.(string)
	if !ok {
		return "", fmt.Errorf("unexpected tag result type %T", result)
	}

	return tag, nil
}

func (e *pageElement) Text() (string, error) {
	text, err := e.handle.TextContent()
	if err != nil {
		return "", fmt.Errorf("read text: %w", err)
	}

	return text, nil
}

// Attributes returns the element's full attribute set as one bounded
// enumeration instead of per-name probing.
func (e *pageElement) Attributes() (map[string]string, error) {
	result, err := e.handle.Evaluate(`el => {
		const out = {};
		for (const attr of el.attributes) {
			out[attr.name] = attr.value;
		}
		return out;
	}`)
	if err != nil {
		return nil, fmt.Errorf("enumerate attributes: %w", err)
	}

	attrs := make(map[string]string)

	if resultMap, ok := result.(map[string]interface{}); ok {
		for k, v := range resultMap {
			if s, ok := v.(string); ok {
				attrs[k] = s
			}
		}
	}

	return attrs, nil
}

func (e *pageElement) Parent() (analyzer.Element, error) {
	return e.relatedElement(`el => el.parentElement`)
}

func (e *pageElement) PrevSibling() (analyzer.Element, error) {
	return e.relatedElement(`el => el.previousElementSibling`)
}

func (e *pageElement) relatedElement(expression string) (analyzer.Element, error) {
	jsHandle, err := e.handle.EvaluateHandle(expression)
	if err != nil {
		return nil, fmt.Errorf("resolve related element: %w", err)
	}

	element := jsHandle.AsElement()
	if element == nil {
		return nil, nil
	}

	return newPageElement(element), nil
}

func (e *pageElement) SameTagOrdinal() (int, bool, error) {
	result, err := e.handle.Evaluate(`el => {
		const siblings = el.parentElement ? el.parentElement.children : [el];
		let ordinal = 0;
		let count = 0;
		for (const sibling of siblings) {
			if (sibling.tagName === el.tagName) {
				count++;
				if (sibling === el) {
					ordinal = count;
				}
			}
		}
		return { ordinal: ordinal, count: count };
	}`)
	if err != nil {
		return 0, false, fmt.Errorf("sibling ordinal: %w", err)
	}

	resultMap, ok := result.(map[string]interface{})
	if !ok {
		return 0, false, fmt.Errorf("unexpected ordinal result type %T", result)
	}

	ordinal := asInt(resultMap["ordinal"])
	count := asInt(resultMap["count"])

	if ordinal == 0 {
		return 0, false, fmt.Errorf("element not found among its siblings")
	}

	return ordinal, count > 1, nil
}

func (e *pageElement) Displayed() (bool, error) {
	return e.handle.IsVisible()
}

func (e *pageElement) Box() (entity.BoundingBox, error) {
	rect, err := e.handle.BoundingBox()
	if err != nil {
		return entity.BoundingBox{}, fmt.Errorf("bounding box: %w", err)
	}

	if rect == nil {
		return entity.BoundingBox{}, nil
	}

	return entity.BoundingBox{
		X:      rect.X,
		Y:      rect.Y,
		Width:  rect.Width,
		Height: rect.Height,
	}, nil
}

func (e *pageElement) Enabled() (bool, error) {
	return e.handle.IsEnabled()
}

// WaitClickable runs the renderer's actionability checks without
// performing the click (trial mode). Timeout maps to an error, which
// the classifier reads as not clickable.
func (e *pageElement) WaitClickable(timeout time.Duration) error {
	return e.handle.Click(playwright.ElementHandleClickOptions{
		Trial:   playwright.Bool(true),
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
}

func asInt(v interface{}) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return 0
	}
}

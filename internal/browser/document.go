package browser

import (
	"fmt"
	"strings"

	"web-page-analyzer/internal/entity"

	"github.com/playwright-community/playwright-go"
)

// document adapts a live page to the analyzer's Document interface.
// Constructed per call because the underlying page object survives
// navigations while its content does not.
type document struct {
	page playwright.Page
}

func (d *document) LabelForID(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `"\`) {
		return "", nil
	}

	handle, err := d.page.QuerySelector(fmt.Sprintf(`label[for="%s"]`, id))
	if err != nil {
		return "", fmt.Errorf("query label[for]: %w", err)
	}

	if handle == nil {
		return "", nil
	}

	text, err := handle.TextContent()
	if err != nil {
		return "", fmt.Errorf("label text: %w", err)
	}

	return text, nil
}

func (d *document) Count(selector string) (int, error) {
	handles, err := d.page.QuerySelectorAll(selector)
	if err != nil {
		return 0, fmt.Errorf("count %q: %w", selector, err)
	}

	return len(handles), nil
}

func (d *document) Forms() ([]entity.FormInfo, error) {
	result, err := d.page.Evaluate(`() => Array.from(document.querySelectorAll('form')).map(form => ({
		action: form.getAttribute('action') || '',
		method: form.getAttribute('method') || '',
		id: form.getAttribute('id') || '',
		class: form.getAttribute('class') || ''
	}))`)
	if err != nil {
		return nil, fmt.Errorf("enumerate forms: %w", err)
	}

	items, ok := result.([]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected forms result type %T", result)
	}

	forms := make([]entity.FormInfo, 0, len(items))

	for _, item := range items {
		formMap, ok := item.(map[string]interface{})
		if !ok {
			continue
		}

		form := entity.FormInfo{
			Action: getString(formMap, "action"),
			Method: getString(formMap, "method"),
			ID:     getString(formMap, "id"),
			Class:  getString(formMap, "class"),
		}

		if form.Method == "" {
			form.Method = "get"
		}

		forms = append(forms, form)
	}

	return forms, nil
}

package analyzer

import (
	"fmt"
	"regexp"
	"strings"

	"web-page-analyzer/internal/entity"
	"web-page-analyzer/pkg/apperr"
)

const (
	// Literal text above this length is too fragile to anchor a locator on.
	maxLiteralTextLen = 50
	containsTextLen   = 20

	// Guard against cyclic parent chains from a misbehaving renderer.
	maxPathDepth = 128
)

var cssIdentPattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*$`)

// GenerateLocator derives every applicable XPath candidate for el in
// priority order and selects the first as the primary locator.
//
// Strategy order: unique id, name attribute, class conjunction, literal
// text (links and buttons only), positional path. The positional path is
// the terminal fallback and is always appended, so a healthy element
// never resolves to an empty candidate list. Values containing a double
// quote are skipped by the attribute strategies because every literal is
// emitted double-quoted.
func GenerateLocator(el Element) (entity.Locator, []string, error) {
	const op = "GenerateLocator"

	tag, err := el.Tag()
	if err != nil || tag == "" {
		return entity.Locator{}, nil, apperr.Wrap(op, apperr.CodeResolutionFailed, err, map[string]any{
			apperr.MetaReason: "tag_unavailable",
		})
	}

	tag = strings.ToLower(tag)

	attrs, err := el.Attributes()
	if err != nil {
		attrs = map[string]string{}
	}

	candidates := make([]entity.Locator, 0, 4)

	if id := attrs["id"]; id != "" && !strings.Contains(id, `"`) {
		candidates = append(candidates, entity.Locator{
			Kind: entity.LocatorKindID,
			Expr: fmt.Sprintf(`//*[@id="%s"]`, id),
		})
	}

	if name := attrs["name"]; name != "" && !strings.Contains(name, `"`) {
		candidates = append(candidates, entity.Locator{
			Kind: entity.LocatorKindName,
			Expr: fmt.Sprintf(`//%s[@name="%s"]`, tag, name),
		})
	}

	if classExpr, ok := classLocator(tag, attrs["class"]); ok {
		candidates = append(candidates, entity.Locator{
			Kind: entity.LocatorKindClass,
			Expr: classExpr,
		})
	}

	if tag == "a" || tag == "button" {
		candidates = append(candidates, textLocators(el, tag)...)
	}

	positional, err := positionalPath(el)
	if err != nil {
		if len(candidates) == 0 {
			return entity.Locator{}, nil, apperr.Wrap(op, apperr.CodeResolutionFailed, err, map[string]any{
				apperr.MetaReason: "positional_walk_failed",
			})
		}
	} else {
		candidates = append(candidates, entity.Locator{
			Kind: entity.LocatorKindPosition,
			Expr: positional,
		})
	}

	exprs := make([]string, len(candidates))
	for i, c := range candidates {
		exprs[i] = c.Expr
	}

	return candidates[0], exprs, nil
}

// classLocator builds an exact match for a single class and a
// "contains" conjunction for multiple classes, which survives class
// reordering on re-render.
func classLocator(tag, class string) (string, bool) {
	if strings.Contains(class, `"`) {
		return "", false
	}

	classes := strings.Fields(class)
	if len(classes) == 0 {
		return "", false
	}

	if len(classes) == 1 {
		return fmt.Sprintf(`//%s[@class="%s"]`, tag, classes[0]), true
	}

	conds := make([]string, len(classes))
	for i, c := range classes {
		conds[i] = fmt.Sprintf(`contains(@class, "%s")`, c)
	}

	return fmt.Sprintf(`//%s[%s]`, tag, strings.Join(conds, " and ")), true
}

func textLocators(el Element, tag string) []entity.Locator {
	text, err := el.Text()
	if err != nil {
		return nil
	}

	text = strings.TrimSpace(text)
	if text == "" || len(text) >= maxLiteralTextLen || strings.Contains(text, `"`) {
		return nil
	}

	locators := []entity.Locator{{
		Kind: entity.LocatorKindText,
		Expr: fmt.Sprintf(`//%s[text()="%s"]`, tag, text),
	}}

	if len(text) > containsTextLen {
		locators = append(locators, entity.Locator{
			Kind: entity.LocatorKindText,
			Expr: fmt.Sprintf(`//%s[contains(text(), "%s")]`, tag, text[:containsTextLen]),
		})
	}

	return locators
}

// positionalPath walks from el to the document root, indexing each step
// among same-tag siblings. Brittle under sibling reordering, but always
// resolvable for an attached element.
func positionalPath(el Element) (string, error) {
	segments := make([]string, 0, 8)

	current := el
	for depth := 0; current != nil; depth++ {
		if depth >= maxPathDepth {
			return "", fmt.Errorf("ancestor chain exceeds %d levels", maxPathDepth)
		}

		tag, err := current.Tag()
		if err != nil {
			return "", fmt.Errorf("tag at depth %d: %w", depth, err)
		}

		if tag == "" {
			break
		}

		ordinal, indexed, err := current.SameTagOrdinal()
		if err != nil {
			return "", fmt.Errorf("sibling ordinal at depth %d: %w", depth, err)
		}

		segment := strings.ToLower(tag)
		if indexed {
			segment = fmt.Sprintf("%s[%d]", segment, ordinal)
		}

		segments = append(segments, segment)

		current, err = current.Parent()
		if err != nil {
			return "", fmt.Errorf("parent at depth %d: %w", depth, err)
		}
	}

	if len(segments) == 0 {
		return "", fmt.Errorf("element yielded no path segments")
	}

	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}

	return "/" + strings.Join(segments, "/"), nil
}

// GenerateCSS derives a best-effort CSS selector for diagnostics and
// replay tooling. Unlike GenerateLocator it never fails hard: an
// unresolvable element yields its bare tag name.
func GenerateCSS(el Element) string {
	tag, err := el.Tag()
	if err != nil || tag == "" {
		return ""
	}

	tag = strings.ToLower(tag)

	attrs, err := el.Attributes()
	if err != nil {
		return tag
	}

	if id := attrs["id"]; cssIdentPattern.MatchString(id) {
		return "#" + id
	}

	if name := attrs["name"]; name != "" && !strings.Contains(name, `"`) {
		switch tag {
		case "input", "select", "textarea", "button":
			return fmt.Sprintf(`%s[name="%s"]`, tag, name)
		}
	}

	if classes := usableClasses(attrs["class"]); len(classes) > 0 {
		return tag + "." + strings.Join(classes, ".")
	}

	if path, err := nthChildPath(el); err == nil && path != "" {
		return path
	}

	return tag
}

// usableClasses filters out generated class names (leading digits, hex
// hashes, very long tokens) the way the in-page selector builder did.
func usableClasses(class string) []string {
	hexHash := regexp.MustCompile(`^[a-f0-9]{8,}$`)

	usable := make([]string, 0, 2)
	for _, c := range strings.Fields(class) {
		if len(c) >= 40 || !cssIdentPattern.MatchString(c) || hexHash.MatchString(c) {
			continue
		}

		usable = append(usable, c)
		if len(usable) == 2 {
			break
		}
	}

	return usable
}

func nthChildPath(el Element) (string, error) {
	segments := make([]string, 0, 3)

	current := el
	for depth := 0; current != nil && depth < 3; depth++ {
		tag, err := current.Tag()
		if err != nil || tag == "" {
			return "", err
		}

		attrs, _ := current.Attributes()
		if id := attrs["id"]; cssIdentPattern.MatchString(id) {
			segments = append(segments, "#"+id)
			break
		}

		position := 1
		node := current
		for {
			prev, err := node.PrevSibling()
			if err != nil {
				return "", err
			}
			if prev == nil {
				break
			}
			position++
			node = prev
		}

		segments = append(segments, fmt.Sprintf("%s:nth-child(%d)", strings.ToLower(tag), position))

		current, err = current.Parent()
		if err != nil {
			return "", err
		}
	}

	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}

	return strings.Join(segments, " > "), nil
}

package analyzer

import (
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resolveXPath evaluates the subset of XPath the generator emits
// against a fakeNode tree: id anchors and absolute positional paths.
// It returns every matching node so tests can assert uniqueness.
func resolveXPath(root *fakeNode, expr string) []*fakeNode {
	if match := idAnchorExpr.FindStringSubmatch(expr); match != nil {
		return nodesWithID(root, match[1])
	}

	if strings.HasPrefix(expr, "//") || !strings.HasPrefix(expr, "/") {
		return nil
	}

	if node := walkPath(root, strings.Split(strings.TrimPrefix(expr, "/"), "/")); node != nil {
		return []*fakeNode{node}
	}

	return nil
}

var idAnchorExpr = regexp.MustCompile(`^//\*\[@id="([^"]+)"\]$`)

func nodesWithID(node *fakeNode, id string) []*fakeNode {
	var matches []*fakeNode

	if node.attrs["id"] == id {
		matches = append(matches, node)
	}

	for _, child := range node.children {
		matches = append(matches, nodesWithID(child, id)...)
	}

	return matches
}

func walkPath(root *fakeNode, segments []string) *fakeNode {
	tag, ordinal := splitSegment(segments[0])
	if root.tag != tag || ordinal > 1 {
		return nil
	}

	current := root

	for _, segment := range segments[1:] {
		tag, ordinal := splitSegment(segment)
		if ordinal == 0 {
			ordinal = 1
		}

		seen := 0
		var next *fakeNode

		for _, child := range current.children {
			if child.tag != tag {
				continue
			}

			seen++
			if seen == ordinal {
				next = child

				break
			}
		}

		if next == nil {
			return nil
		}

		current = next
	}

	return current
}

func splitSegment(segment string) (string, int) {
	open := strings.IndexByte(segment, '[')
	if open < 0 {
		return segment, 0
	}

	ordinal, _ := strconv.Atoi(strings.TrimSuffix(segment[open+1:], "]"))

	return segment[:open], ordinal
}

func rootOf(node *fakeNode) *fakeNode {
	for node.parent != nil {
		node = node.parent
	}

	return node
}

func TestGenerateLocatorIDRoundTrip(t *testing.T) {
	button := pageWith(newNode("button", map[string]string{"id": "login"}, "Sign in"))

	locator, _, err := GenerateLocator(button)
	require.NoError(t, err)

	matches := resolveXPath(rootOf(button), locator.Expr)
	require.Len(t, matches, 1)
	assert.Same(t, button, matches[0])
}

func TestGenerateLocatorPositionalRoundTrip(t *testing.T) {
	// No id, name, class, or usable text: only the positional path can
	// anchor this node, surrounded by same-tag siblings.
	target := newNode("div", nil, "")
	newNode("html", nil, "",
		newNode("body", nil, "",
			newNode("span", nil, ""),
			newNode("div", nil, ""),
			target,
			newNode("div", nil, "")))

	locator, _, err := GenerateLocator(target)
	require.NoError(t, err)

	matches := resolveXPath(rootOf(target), locator.Expr)
	require.Len(t, matches, 1)
	assert.Same(t, target, matches[0])
}

func TestGenerateLocatorSiblingRoundTripDistinct(t *testing.T) {
	first := newNode("button", nil, "")
	second := newNode("button", nil, "")
	root := newNode("html", nil, "",
		newNode("body", nil, "", first, second))

	firstLoc, _, err := GenerateLocator(first)
	require.NoError(t, err)

	secondLoc, _, err := GenerateLocator(second)
	require.NoError(t, err)

	assert.NotEqual(t, firstLoc.Expr, secondLoc.Expr)

	firstMatches := resolveXPath(root, firstLoc.Expr)
	require.Len(t, firstMatches, 1)
	assert.Same(t, first, firstMatches[0])

	secondMatches := resolveXPath(root, secondLoc.Expr)
	require.Len(t, secondMatches, 1)
	assert.Same(t, second, secondMatches[0])
}

package analyzer

import (
	"time"

	"web-page-analyzer/internal/entity"
)

// fakeNode is an in-memory DOM node implementing Element and
// Classifiable for tests.
type fakeNode struct {
	tag      string
	text     string
	attrs    map[string]string
	parent   *fakeNode
	children []*fakeNode

	displayed bool
	box       entity.BoundingBox
	enabled   bool

	tagErr       error
	textErr      error
	attrsErr     error
	displayedErr error
	boxErr       error
	enabledErr   error
	clickErr     error
}

func newNode(tag string, attrs map[string]string, text string, children ...*fakeNode) *fakeNode {
	node := &fakeNode{
		tag:      tag,
		attrs:    attrs,
		text:     text,
		children: children,

		displayed: true,
		box:       entity.BoundingBox{Width: 100, Height: 20},
		enabled:   true,
	}

	for _, child := range children {
		child.parent = node
	}

	return node
}

func (n *fakeNode) Tag() (string, error) {
	return n.tag, n.tagErr
}

func (n *fakeNode) Text() (string, error) {
	return n.text, n.textErr
}

func (n *fakeNode) Attributes() (map[string]string, error) {
	if n.attrsErr != nil {
		return nil, n.attrsErr
	}

	if n.attrs == nil {
		return map[string]string{}, nil
	}

	return n.attrs, nil
}

func (n *fakeNode) Parent() (Element, error) {
	if n.parent == nil {
		return nil, nil
	}

	return n.parent, nil
}

func (n *fakeNode) PrevSibling() (Element, error) {
	if n.parent == nil {
		return nil, nil
	}

	for i, sibling := range n.parent.children {
		if sibling == n {
			if i == 0 {
				return nil, nil
			}

			return n.parent.children[i-1], nil
		}
	}

	return nil, nil
}

func (n *fakeNode) SameTagOrdinal() (int, bool, error) {
	if n.parent == nil {
		return 1, false, nil
	}

	ordinal := 0
	total := 0

	for _, sibling := range n.parent.children {
		if sibling.tag == n.tag {
			total++
		}
		if sibling == n {
			ordinal = total
		}
	}

	return ordinal, total > 1, nil
}

func (n *fakeNode) Displayed() (bool, error) {
	return n.displayed, n.displayedErr
}

func (n *fakeNode) Box() (entity.BoundingBox, error) {
	return n.box, n.boxErr
}

func (n *fakeNode) Enabled() (bool, error) {
	return n.enabled, n.enabledErr
}

func (n *fakeNode) WaitClickable(time.Duration) error {
	return n.clickErr
}

// fakeDocument implements Document over static data.
type fakeDocument struct {
	labels   map[string]string
	counts   map[string]int
	forms    []entity.FormInfo
	formsErr error
	countErr error
}

func (d *fakeDocument) LabelForID(id string) (string, error) {
	return d.labels[id], nil
}

func (d *fakeDocument) Count(selector string) (int, error) {
	if d.countErr != nil {
		return 0, d.countErr
	}

	return d.counts[selector], nil
}

func (d *fakeDocument) Forms() ([]entity.FormInfo, error) {
	if d.formsErr != nil {
		return nil, d.formsErr
	}

	return d.forms, nil
}

// Package session defines the narrow browser abstraction the watcher drives.
// It defines interfaces for navigating a page, looking up elements and
// interacting with them.
package session

import (
	"errors"
	"fmt"
	"sync"
)

// ErrNotFound is returned when no element matches a selector.
var ErrNotFound = errors.New("element not found")

// SelectorKind is the lookup strategy of a Selector.
type SelectorKind int

const (
	// KindID matches an element id attribute.
	KindID SelectorKind = iota
	// KindName matches a name attribute.
	KindName
	// KindCSS is a CSS selector.
	KindCSS
	// KindXPath is an XPath expression.
	KindXPath
	// KindTag matches a tag name.
	KindTag
)

// String returns the kind name.
func (k SelectorKind) String() string {
	switch k {
	case KindID:
		return "id"
	case KindName:
		return "name"
	case KindCSS:
		return "css"
	case KindXPath:
		return "xpath"
	case KindTag:
		return "tag"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Selector locates elements on the page.
type Selector struct {
	Kind  SelectorKind
	Value string
}

// ByID selects by id attribute.
func ByID(id string) Selector { return Selector{Kind: KindID, Value: id} }

// ByName selects by name attribute.
func ByName(name string) Selector { return Selector{Kind: KindName, Value: name} }

// ByCSS selects with a CSS selector.
func ByCSS(css string) Selector { return Selector{Kind: KindCSS, Value: css} }

// ByXPath selects with an XPath expression.
func ByXPath(xpath string) Selector { return Selector{Kind: KindXPath, Value: xpath} }

// ByTag selects by tag name.
func ByTag(tag string) Selector { return Selector{Kind: KindTag, Value: tag} }

// Query renders the selector in the engine syntax understood by browser drivers:
// CSS for every kind except XPath, which gets the "xpath=" prefix.
func (s Selector) Query() string {
	switch s.Kind {
	case KindID:
		return "#" + s.Value
	case KindName:
		return fmt.Sprintf("[name=%q]", s.Value)
	case KindXPath:
		return "xpath=" + s.Value
	default:
		return s.Value
	}
}

// String returns a readable form for logs.
func (s Selector) String() string {
	return s.Kind.String() + ":" + s.Value
}

// Session is a controllable browsing context. Implementations are not safe for
// concurrent use; share one through a Guard.
type Session interface {
	// Navigate loads url in the current page.
	Navigate(url string) error
	// CurrentURL returns the URL of the current page.
	CurrentURL() (string, error)
	// Title returns the document title.
	Title() (string, error)
	// Find returns the first element matching sel, or ErrNotFound.
	Find(sel Selector) (Element, error)
	// FindAll returns every element matching sel; no match is an empty slice.
	FindAll(sel Selector) ([]Element, error)
	// Screenshot writes a PNG of the viewport to path.
	Screenshot(path string) error
}

// Element is a handle to a node on the current page. Handles are only valid
// until the page changes.
type Element interface {
	// Text returns the rendered text.
	Text() (string, error)
	// Attribute returns the attribute value, or "" when absent.
	Attribute(name string) (string, error)
	// Click performs a user click.
	Click() error
	// DispatchClick fires a click event without moving the pointer.
	DispatchClick() error
	// SendKeys types text into the element.
	SendKeys(text string) error
	// IsChecked reports the checked state of a checkbox.
	IsChecked() (bool, error)
	// Find returns the first descendant (or XPath-relative node) matching sel.
	Find(sel Selector) (Element, error)
	// FindAll returns every descendant matching sel.
	FindAll(sel Selector) ([]Element, error)
}

// Guard serializes access to a Session shared by the main loop and
// background tasks.
type Guard struct {
	mu   sync.Mutex
	sess Session
}

// NewGuard wraps sess.
func NewGuard(sess Session) *Guard {
	return &Guard{sess: sess}
}

// Do runs fn while holding exclusive access to the session.
func (g *Guard) Do(fn func(Session) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return fn(g.sess)
}

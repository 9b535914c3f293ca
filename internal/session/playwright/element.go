package playwright

import (
	"fmt"

	"github.com/cristianoliveira/messenger-mirror/internal/session"
	pw "github.com/playwright-community/playwright-go"
)

// element adapts a Playwright element handle.
type element struct {
	h pw.ElementHandle
}

// wrap turns a query result into an Element, mapping a missing handle to session.ErrNotFound.
func wrap(h pw.ElementHandle, err error, sel session.Selector) (session.Element, error) {
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", sel, err)
	}
	if h == nil {
		return nil, fmt.Errorf("%w: %s", session.ErrNotFound, sel)
	}
	return &element{h: h}, nil
}

func wrapAll(hs []pw.ElementHandle, err error, sel session.Selector) ([]session.Element, error) {
	if err != nil {
		return nil, fmt.Errorf("query all %s: %w", sel, err)
	}
	out := make([]session.Element, 0, len(hs))
	for _, h := range hs {
		if h != nil {
			out = append(out, &element{h: h})
		}
	}
	return out, nil
}

func (e *element) Text() (string, error) {
	return e.h.InnerText()
}

func (e *element) Attribute(name string) (string, error) {
	return e.h.GetAttribute(name)
}

func (e *element) Click() error {
	return e.h.Click()
}

func (e *element) DispatchClick() error {
	return e.h.DispatchEvent("click")
}

func (e *element) SendKeys(text string) error {
	return e.h.Fill(text)
}

func (e *element) IsChecked() (bool, error) {
	return e.h.IsChecked()
}

func (e *element) Find(sel session.Selector) (session.Element, error) {
	h, err := e.h.QuerySelector(sel.Query())
	return wrap(h, err, sel)
}

func (e *element) FindAll(sel session.Selector) ([]session.Element, error) {
	hs, err := e.h.QuerySelectorAll(sel.Query())
	return wrapAll(hs, err, sel)
}

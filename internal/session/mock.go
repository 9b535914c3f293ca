package session

import (
	"github.com/stretchr/testify/mock"
)

// MockSession is a mock implementation of Session for testing.
// It uses testify/mock to configure behavior and record calls.
//
// Example usage:
//
//	sess := new(MockSession)
//	sess.On("Title").Return("Messenger", nil)
//	sess.On("Find", ByID("email")).Return(nil, ErrNotFound)
//
//	title, err := sess.Title()
//	sess.AssertCalled(t, "Title")
type MockSession struct {
	mock.Mock
}

// Navigate records a navigation.
func (m *MockSession) Navigate(url string) error {
	args := m.Called(url)
	return args.Error(0)
}

// CurrentURL returns a mocked URL.
func (m *MockSession) CurrentURL() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

// Title returns a mocked title.
func (m *MockSession) Title() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

// Find returns a mocked element. A nil element may be returned with an error.
func (m *MockSession) Find(sel Selector) (Element, error) {
	args := m.Called(sel)
	el, _ := args.Get(0).(Element)
	return el, args.Error(1)
}

// FindAll returns mocked elements.
func (m *MockSession) FindAll(sel Selector) ([]Element, error) {
	args := m.Called(sel)
	els, _ := args.Get(0).([]Element)
	return els, args.Error(1)
}

// Screenshot records a screenshot request.
func (m *MockSession) Screenshot(path string) error {
	args := m.Called(path)
	return args.Error(0)
}

// MockElement is a mock implementation of Element for testing.
type MockElement struct {
	mock.Mock
}

// Text returns mocked text.
func (m *MockElement) Text() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

// Attribute returns a mocked attribute value.
func (m *MockElement) Attribute(name string) (string, error) {
	args := m.Called(name)
	return args.String(0), args.Error(1)
}

// Click records a click.
func (m *MockElement) Click() error {
	args := m.Called()
	return args.Error(0)
}

// DispatchClick records a dispatched click.
func (m *MockElement) DispatchClick() error {
	args := m.Called()
	return args.Error(0)
}

// SendKeys records typed text.
func (m *MockElement) SendKeys(text string) error {
	args := m.Called(text)
	return args.Error(0)
}

// IsChecked returns a mocked checked state.
func (m *MockElement) IsChecked() (bool, error) {
	args := m.Called()
	return args.Bool(0), args.Error(1)
}

// Find returns a mocked descendant.
func (m *MockElement) Find(sel Selector) (Element, error) {
	args := m.Called(sel)
	el, _ := args.Get(0).(Element)
	return el, args.Error(1)
}

// FindAll returns mocked descendants.
func (m *MockElement) FindAll(sel Selector) ([]Element, error) {
	args := m.Called(sel)
	els, _ := args.Get(0).([]Element)
	return els, args.Error(1)
}

// TextElement returns a MockElement whose Text returns text.
func TextElement(text string) *MockElement {
	el := new(MockElement)
	el.On("Text").Return(text, nil)
	return el
}

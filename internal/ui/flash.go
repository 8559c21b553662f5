package ui

import "sync"

// Flash is a dashboard session's Navigator and Notifier. The session
// controller records where the operator should go and what they should be
// told; the next request of that browser consumes it.
type Flash struct {
	mu       sync.Mutex
	redirect string
	message  string
}

// NewFlash returns an empty Flash.
func NewFlash() *Flash {
	return &Flash{}
}

// Navigate records a pending redirect.
func (f *Flash) Navigate(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.redirect = path
}

// Notify records a one-shot message for the login screen.
func (f *Flash) Notify(message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.message = message
}

// TakeRedirect returns and clears the pending redirect.
func (f *Flash) TakeRedirect() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	path := f.redirect
	f.redirect = ""
	return path
}

// TakeMessage returns and clears the pending message.
func (f *Flash) TakeMessage() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg := f.message
	f.message = ""
	return msg
}

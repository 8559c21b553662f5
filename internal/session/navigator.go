package session

// LoginPath is where the controller sends the operator when no session is held.
const LoginPath = "/login"

// Navigator moves the front end to another screen.
type Navigator interface {
	Navigate(path string)
}

// Notifier shows a blocking notice to the operator.
type Notifier interface {
	Notify(message string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(message string)

func (f NotifierFunc) Notify(message string) { f(message) }

type nopNavigator struct{}

func (nopNavigator) Navigate(string) {}

type nopNotifier struct{}

func (nopNotifier) Notify(string) {}

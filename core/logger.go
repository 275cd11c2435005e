package core

// Logger is implemented by every logging backend of the app.
// args may hold errors, map[string]interface{} fields and the acting identity.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Person identifies the user on whose behalf something was logged.
type Person struct {
	ID    string
	Name  string
	Email string
}

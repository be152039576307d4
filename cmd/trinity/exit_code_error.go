package main

// ExitCodeError wraps an error with a specific process exit code. Commands
// return plain errors for exit code 1; validate uses 2 so scripts can tell a
// rejected tool call from a usage error.
type ExitCodeError struct {
	Code int
	Err  error
}

func (e *ExitCodeError) Error() string {
	if e == nil || e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *ExitCodeError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

package cli

import "errors"

// reportedError marks an error the user has already been shown.
type reportedError struct {
	err error
}

func (e reportedError) Error() string { return e.err.Error() }

func (e reportedError) Unwrap() error { return e.err }

func reported(err error) error {
	if err == nil {
		return nil
	}
	return reportedError{err: err}
}

// AlreadyReported reports whether err was already printed as an alert.
func AlreadyReported(err error) bool {
	var r reportedError
	return errors.As(err, &r)
}

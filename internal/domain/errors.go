package domain

import "errors"

// Error kinds. Callers match with errors.Is.
var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrVerification       = errors.New("account verification failed")
	ErrRecipientCreation  = errors.New("recipient creation failed")
	ErrTransferInitiation = errors.New("transfer initiation failed")
	ErrTimeout            = errors.New("provider timed out")
	ErrSignatureMismatch  = errors.New("signature mismatch")
	ErrPersistence        = errors.New("persistence failed")
	ErrInconsistentState  = errors.New("inconsistent transfer state")
	ErrDuplicateReference = errors.New("duplicate transfer reference")
	ErrDuplicateAccount   = errors.New("account already linked")
	ErrRailUnavailable    = errors.New("rail unavailable")
)

// Error carries a kind, a message safe to show to clients and an optional cause.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Kind != nil {
		msg = e.Kind.Error()
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func Validation(msg string) error {
	return &Error{Kind: ErrValidation, Message: msg}
}

func NotFound(msg string) error {
	return &Error{Kind: ErrNotFound, Message: msg}
}

// Wrap attaches kind and a client message to err.
func Wrap(kind error, msg string, err error) error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// Message returns the client-facing message of err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return err.Error()
}

package domain

import "errors"

// Kind is the closed set of failure classes callers switch on.
type Kind int

const (
	KindUnclassified Kind = iota
	KindInvalidData
	KindAlreadyExists
	KindNotFound
)

type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func NewInvalidData(message string) *Error {
	return &Error{Kind: KindInvalidData, Message: message}
}

func NewAlreadyExists(message string) *Error {
	return &Error{Kind: KindAlreadyExists, Message: message}
}

func NewNotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func NewUnclassified(message string) *Error {
	return &Error{Kind: KindUnclassified, Message: message}
}

// KindOf classifies any error; non-domain errors are Unclassified.
func KindOf(err error) Kind {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Kind
	}
	return KindUnclassified
}

func IsInvalidData(err error) bool {
	return KindOf(err) == KindInvalidData
}

func IsAlreadyExists(err error) bool {
	return KindOf(err) == KindAlreadyExists
}

func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// Package provider wraps the external text-translation service behind a
// small capability interface.
package provider

import (
	"context"
	"errors"
	"fmt"
)

// Translator translates one run of human-readable text into targetLanguage.
// Implementations must not retry inline.
type Translator interface {
	Translate(ctx context.Context, text, targetLanguage string) (string, error)
}

// Func adapts a plain function to Translator.
type Func func(ctx context.Context, text, targetLanguage string) (string, error)

func (f Func) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	return f(ctx, text, targetLanguage)
}

// Kind classifies provider failures.
type Kind string

const (
	KindMissingCredential  Kind = "missing_credential"
	KindTransport          Kind = "transport_error"
	KindUnexpectedResponse Kind = "unexpected_response"
)

var (
	ErrMissingCredential  = &Error{Kind: KindMissingCredential}
	ErrTransport          = &Error{Kind: KindTransport}
	ErrUnexpectedResponse = &Error{Kind: KindUnexpectedResponse}
)

// Error is returned for every provider failure.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = defaultMessage(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind, so errors.Is(err, ErrTransport) works.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

func defaultMessage(k Kind) string {
	switch k {
	case KindMissingCredential:
		return "missing API key"
	case KindTransport:
		return "translation request failed"
	case KindUnexpectedResponse:
		return "unexpected API response"
	default:
		return "provider error"
	}
}

// MissingCredential builds a KindMissingCredential error.
func MissingCredential() error {
	return &Error{Kind: KindMissingCredential}
}

// Transport wraps a network-level failure.
func Transport(err error) error {
	return &Error{Kind: KindTransport, Err: err}
}

// UnexpectedResponse reports a response without a translated-text field.
func UnexpectedResponse(format string, args ...any) error {
	msg := defaultMessage(KindUnexpectedResponse)
	if format != "" {
		msg = msg + ": " + fmt.Sprintf(format, args...)
	}
	return &Error{Kind: KindUnexpectedResponse, Message: msg}
}

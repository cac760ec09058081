package llm

import (
	"errors"
	"fmt"
	"strings"

	genai "google.golang.org/genai"
)

// Kind is the closed classification of provider failures. Raw errors are
// mapped to a Kind once, at the client boundary, so the sessions above never
// string-match on provider messages.
type Kind int

const (
	KindUnknown Kind = iota
	KindMissingCredential
	KindInvalidCredential
	KindModelNotFound
	KindRateLimited
	KindOverloaded
	KindContentBlocked
	KindNoImage
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindMissingCredential:
		return "missing_credential"
	case KindInvalidCredential:
		return "invalid_credential"
	case KindModelNotFound:
		return "model_not_found"
	case KindRateLimited:
		return "rate_limited"
	case KindOverloaded:
		return "overloaded"
	case KindContentBlocked:
		return "content_blocked"
	case KindNoImage:
		return "no_image"
	case KindTransport:
		return "transport"
	default:
		return "unknown"
	}
}

// UserMessage is the short user-facing string stored in session state.
func (k Kind) UserMessage() string {
	switch k {
	case KindMissingCredential:
		return "AI service is not configured. Set the API credential and restart."
	case KindInvalidCredential:
		return "The API credential is invalid or expired. Please replace the key and try again."
	case KindModelNotFound:
		return "The requested model is unavailable. Please try again later."
	case KindRateLimited:
		return "The AI service quota has been exceeded. Please wait a moment and try again."
	case KindOverloaded:
		return "The AI service is overloaded right now. Please try again shortly."
	case KindContentBlocked:
		return "The request was declined by the content policy. Please adjust the description and try again."
	case KindNoImage:
		return "No image could be produced. Please change the request and try again."
	default:
		return "The AI service connection failed. Please try again in a moment."
	}
}

// Error carries the classification alongside the provider cause.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("llm: %s", e.Kind)
	}
	return fmt.Sprintf("llm: %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func NewError(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Err: cause}
}

// KindOf extracts the classification from any error in the chain.
// Unclassified errors report KindTransport.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindTransport
}

// Classify maps a raw provider error to a *Error. Already-classified errors
// pass through unchanged.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var already *Error
	if errors.As(err, &already) {
		return already
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return NewError(classifyAPIError(apiErr), err)
	}
	return NewError(classifyMessage(err.Error()), err)
}

func classifyAPIError(e genai.APIError) Kind {
	switch e.Code {
	case 400:
		// The provider reports expired keys as 400 INVALID_ARGUMENT.
		if containsAny(e.Message, "API key expired", "API key not valid", "API_KEY_INVALID") {
			return KindInvalidCredential
		}
		return KindTransport
	case 401, 403:
		return KindInvalidCredential
	case 404:
		return KindModelNotFound
	case 429:
		return KindRateLimited
	case 503:
		return KindOverloaded
	default:
		return KindTransport
	}
}

// classifyMessage is the fallback for transport errors that never reached the
// provider's structured error shape.
func classifyMessage(msg string) Kind {
	switch {
	case containsAny(msg, "API key expired", "API key not valid", "API_KEY_INVALID", "PERMISSION_DENIED", "UNAUTHENTICATED"):
		return KindInvalidCredential
	case containsAny(msg, "NOT_FOUND", "is not found"):
		return KindModelNotFound
	case containsAny(msg, "RESOURCE_EXHAUSTED", "quota", "rate limit"):
		return KindRateLimited
	case containsAny(msg, "UNAVAILABLE", "overloaded"):
		return KindOverloaded
	default:
		return KindTransport
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

package llm

import (
	"context"
	"errors"
)

// Disabled stands in for the provider when no API key is configured. Every
// call fails with a missing-credential error so the rest of the gateway can
// keep serving the non-AI screens.
type Disabled struct{}

func (Disabled) GenerateImage(_ context.Context, _ ImageRequest) (ImageResult, error) {
	return ImageResult{}, NewError(KindMissingCredential, errors.New("no API key configured"))
}

func (Disabled) StreamChat(_ context.Context, _ ChatRequest, _ func(string)) error {
	return NewError(KindMissingCredential, errors.New("no API key configured"))
}

func (Disabled) Name() string { return "disabled" }

func (Disabled) Close() error { return nil }

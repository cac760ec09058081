package llm

import "context"

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Part is one ordered piece of request content: either text or inline
// image bytes, never both.
type Part struct {
	Text     string
	Data     []byte
	MIMEType string
}

func TextPart(text string) Part { return Part{Text: text} }

func ImagePart(data []byte, mimeType string) Part {
	return Part{Data: data, MIMEType: mimeType}
}

// ImageRequest is a single image-generation call. ImageSize is empty unless
// the caller asks for the high-resolution output tier.
type ImageRequest struct {
	Model       string
	Parts       []Part
	AspectRatio string
	ImageSize   string
}

type ImageResult struct {
	Data     []byte
	MIMEType string
}

type Turn struct {
	Role Role
	Text string
}

// ChatRequest carries the full transcript, oldest first; the last turn is
// the new user message.
type ChatRequest struct {
	Model             string
	SystemInstruction string
	Turns             []Turn
}

// Client is the generative-service boundary. Implementations classify every
// provider failure into a *Error before returning it.
type Client interface {
	// GenerateImage returns exactly one inline image. A response without an
	// extractable image is a classified error (content blocked or no image),
	// not a success.
	GenerateImage(ctx context.Context, req ImageRequest) (ImageResult, error)

	// StreamChat invokes sink once per text fragment as it arrives. The
	// transcript must not be assumed to arrive atomically.
	StreamChat(ctx context.Context, req ChatRequest, sink func(chunk string)) error

	Name() string
	Close() error
}

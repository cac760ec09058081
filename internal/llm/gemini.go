package llm

import (
	"context"
	"strings"

	genai "google.golang.org/genai"
)

// Interior scenes get lenient thresholds: empty-room architectural content
// trips false positives at the default settings.
var defaultSafetySettings = []*genai.SafetySetting{
	{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdBlockOnlyHigh},
	{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdBlockOnlyHigh},
	{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockThresholdBlockOnlyHigh},
	{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdBlockOnlyHigh},
}

// GeminiClient is a thin wrapper around the official genai client. It only
// handles the API calls and error classification; prompt assembly and session
// state live with the callers.
type GeminiClient struct {
	cli *genai.Client
}

func NewGeminiClient(ctx context.Context, apiKey string) (*GeminiClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, NewError(KindMissingCredential, nil)
	}
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, Classify(err)
	}
	return &GeminiClient{cli: cli}, nil
}

func (g *GeminiClient) Name() string { return "gemini" }
func (g *GeminiClient) Close() error { return nil }

func (g *GeminiClient) GenerateImage(ctx context.Context, req ImageRequest) (ImageResult, error) {
	resp, err := g.cli.Models.GenerateContent(ctx, req.Model, contentsFromParts(req.Parts), imageGenConfig(req))
	if err != nil {
		return ImageResult{}, Classify(err)
	}
	return extractImage(resp)
}

func (g *GeminiClient) StreamChat(ctx context.Context, req ChatRequest, sink func(chunk string)) error {
	cfg := &genai.GenerateContentConfig{}
	if req.SystemInstruction != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.SystemInstruction}},
		}
	}

	contents := make([]*genai.Content, 0, len(req.Turns))
	for _, turn := range req.Turns {
		contents = append(contents, &genai.Content{
			Role:  string(turn.Role),
			Parts: []*genai.Part{{Text: turn.Text}},
		})
	}

	for resp, err := range g.cli.Models.GenerateContentStream(ctx, req.Model, contents, cfg) {
		if err != nil {
			return Classify(err)
		}
		if text := resp.Text(); text != "" && sink != nil {
			sink(text)
		}
	}
	return nil
}

// imageGenConfig maps the request's output parameters onto the provider
// config. ImageConfig is set only when a resolution or aspect ratio is asked
// for, so text-model calls stay untouched.
func imageGenConfig(req ImageRequest) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		SafetySettings: defaultSafetySettings,
	}
	if req.AspectRatio != "" || req.ImageSize != "" {
		cfg.ImageConfig = &genai.ImageConfig{
			AspectRatio: req.AspectRatio,
			ImageSize:   req.ImageSize,
		}
	}
	return cfg
}

func contentsFromParts(parts []Part) []*genai.Content {
	out := make([]*genai.Part, 0, len(parts))
	for _, p := range parts {
		if len(p.Data) > 0 {
			out = append(out, &genai.Part{
				InlineData: &genai.Blob{MIMEType: p.MIMEType, Data: p.Data},
			})
			continue
		}
		out = append(out, &genai.Part{Text: p.Text})
	}
	return []*genai.Content{{Role: string(RoleUser), Parts: out}}
}

// extractImage finds the first inline-image part. A response without one is a
// recoverable error: content-policy blocks are distinguished from generic
// no-output via the finish reason.
func extractImage(resp *genai.GenerateContentResponse) (ImageResult, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return ImageResult{}, NewError(KindNoImage, nil)
	}
	cand := resp.Candidates[0]
	if cand.Content != nil {
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return ImageResult{
					Data:     part.InlineData.Data,
					MIMEType: part.InlineData.MIMEType,
				}, nil
			}
		}
	}
	if isSafetyFinish(cand.FinishReason) {
		return ImageResult{}, NewError(KindContentBlocked, nil)
	}
	return ImageResult{}, NewError(KindNoImage, nil)
}

func isSafetyFinish(reason genai.FinishReason) bool {
	switch reason {
	case genai.FinishReasonSafety,
		genai.FinishReasonImageSafety,
		genai.FinishReasonProhibitedContent:
		return true
	default:
		return false
	}
}

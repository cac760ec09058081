package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	genai "google.golang.org/genai"
)

func TestImageGenConfigCarriesOutputParameters(t *testing.T) {
	cfg := imageGenConfig(ImageRequest{AspectRatio: "1:1", ImageSize: "2K"})
	require.NotNil(t, cfg.ImageConfig)
	assert.Equal(t, "1:1", cfg.ImageConfig.AspectRatio)
	assert.Equal(t, "2K", cfg.ImageConfig.ImageSize)
	assert.Equal(t, defaultSafetySettings, cfg.SafetySettings)
}

func TestImageGenConfigOmitsImageConfigWhenUnset(t *testing.T) {
	cfg := imageGenConfig(ImageRequest{})
	assert.Nil(t, cfg.ImageConfig)
	assert.Equal(t, defaultSafetySettings, cfg.SafetySettings)
}

func TestSafetyFinishReasons(t *testing.T) {
	assert.True(t, isSafetyFinish(genai.FinishReasonSafety))
	assert.True(t, isSafetyFinish(genai.FinishReasonImageSafety))
	assert.True(t, isSafetyFinish(genai.FinishReasonProhibitedContent))
	assert.False(t, isSafetyFinish(genai.FinishReasonStop))
}

func TestExtractImagePicksInlineData(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{
				{Text: "here is your render"},
				{InlineData: &genai.Blob{MIMEType: "image/png", Data: []byte{1, 2}}},
			}},
		}},
	}
	res, err := extractImage(resp)
	require.NoError(t, err)
	assert.Equal(t, "image/png", res.MIMEType)
	assert.Equal(t, []byte{1, 2}, res.Data)
}

func TestExtractImageClassifiesSafetyBlock(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			FinishReason: genai.FinishReasonImageSafety,
		}},
	}
	_, err := extractImage(resp)
	assert.Equal(t, KindContentBlocked, KindOf(err))

	_, err = extractImage(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonStop}},
	})
	assert.Equal(t, KindNoImage, KindOf(err))
}

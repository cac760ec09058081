package preview

import (
	"fmt"
	"strings"

	"ucraft/internal/assets"
	"ucraft/internal/llm"
)

// safetyQualifier is appended to every composed prompt to keep generations
// inside architectural content and away from content-policy rejections.
const safetyQualifier = "No people, empty room, architectural and interior content only."

const (
	generatePreamble = "High-end interior architecture. Create a photorealistic interior view."
	refinePreamble   = "Modify the provided interior image while keeping its overall composition."
)

// Facets are the selectable generation parameters. RoomID may be empty; the
// rest must come from the catalogs.
type Facets struct {
	StyleID string `json:"styleId"`
	ToneID  string `json:"toneId"`
	AngleID string `json:"angleId"`
	RoomID  string `json:"roomId,omitempty"`
	Tier    Tier   `json:"tier"`
}

func (f Facets) Validate() error {
	if _, ok := StyleByID(f.StyleID); !ok {
		return fmt.Errorf("preview: unknown style %q", f.StyleID)
	}
	if _, ok := ColorToneByID(f.ToneID); !ok {
		return fmt.Errorf("preview: unknown color tone %q", f.ToneID)
	}
	if _, ok := ViewAngleByID(f.AngleID); !ok {
		return fmt.Errorf("preview: unknown view angle %q", f.AngleID)
	}
	if f.RoomID != "" {
		if _, ok := RoomTemplateByID(f.RoomID); !ok {
			return fmt.Errorf("preview: unknown room template %q", f.RoomID)
		}
	}
	if !f.Tier.Valid() {
		return fmt.Errorf("preview: unknown quality tier %q", f.Tier)
	}
	return nil
}

// BuildInput is everything one generation call needs. Exactly one of the two
// request shapes is active: fresh generation (optional Reference) or
// refinement (Previous conditions the output, Reference is ignored).
type BuildInput struct {
	Facets    Facets
	Prompt    string
	Refining  bool
	Reference *assets.Image
	Previous  *llm.ImageResult
}

// Build assembles the provider request from the facet selections.
func Build(in BuildInput) (llm.ImageRequest, error) {
	if err := in.Facets.Validate(); err != nil {
		return llm.ImageRequest{}, err
	}
	if in.Refining && in.Previous == nil {
		return llm.ImageRequest{}, fmt.Errorf("preview: refinement without a previous result")
	}

	req := llm.ImageRequest{
		Model:       in.Facets.Tier.Model(),
		AspectRatio: aspectRatio,
		ImageSize:   in.Facets.Tier.ImageSize(),
	}

	if in.Refining {
		req.Parts = append(req.Parts, llm.ImagePart(in.Previous.Data, in.Previous.MIMEType))
	} else if in.Reference != nil {
		req.Parts = append(req.Parts, llm.ImagePart(in.Reference.Data, in.Reference.MIMEType))
	}
	req.Parts = append(req.Parts, llm.TextPart(ComposePrompt(in)))
	return req, nil
}

// ComposePrompt concatenates the task preamble, facet descriptions, user text,
// quality suffix and the safety qualifier. The view angle only applies to
// fresh generations; a refinement keeps the angle of the image it conditions on.
func ComposePrompt(in BuildInput) string {
	style, _ := StyleByID(in.Facets.StyleID)
	tone, _ := ColorToneByID(in.Facets.ToneID)

	var b strings.Builder
	if in.Refining {
		b.WriteString(refinePreamble)
	} else {
		b.WriteString(generatePreamble)
	}
	fmt.Fprintf(&b, " Style: %s (%s). Main tone: %s.", style.ID, style.Description, tone.ID)

	if !in.Refining {
		if angle, ok := ViewAngleByID(in.Facets.AngleID); ok {
			fmt.Fprintf(&b, " View: %s.", angle.Description)
		}
	}
	if room, ok := RoomTemplateByID(in.Facets.RoomID); ok {
		fmt.Fprintf(&b, " Room: %s.", room.Description)
	}
	if text := strings.TrimSpace(in.Prompt); text != "" {
		if in.Refining {
			fmt.Fprintf(&b, " Request: %s.", text)
		} else {
			fmt.Fprintf(&b, " Details: %s.", text)
		}
	}
	fmt.Fprintf(&b, " %s. %s", in.Facets.Tier.PromptSuffix(), safetyQualifier)
	return b.String()
}

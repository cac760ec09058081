package preview

// Option catalogs for the preview facets. IDs are the stable wire values the
// client submits; labels are the display strings of the Korean UI. All sets
// are closed: the builder rejects IDs outside of them.

type Style struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

type ColorTone struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Swatch string `json:"swatch"`
}

type ViewAngle struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

type RoomTemplate struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

type Tier string

const (
	TierStandard Tier = "Standard"
	TierHigh     Tier = "High"
	TierUltra    Tier = "Ultra"
)

const (
	modelStandard = "gemini-2.5-flash-image"
	modelUltra    = "gemini-3-pro-image-preview"

	aspectRatio    = "1:1"
	ultraImageSize = "2K"
)

var Styles = []Style{
	{ID: "Modern", Label: "모던", Description: "clean straight lines, sleek surfaces, minimal ornamentation"},
	{ID: "Minimalist", Label: "미니멀", Description: "uncluttered open space, hidden storage, restrained palette"},
	{ID: "Wood & Cozy", Label: "우드/코지", Description: "warm wood textures, soft indirect lighting, inviting atmosphere"},
	{ID: "Nordic", Label: "북유럽", Description: "bright scandinavian interior, light woods, natural fabrics"},
}

var ColorTones = []ColorTone{
	{ID: "White & Cream", Label: "화이트/크림", Swatch: "#FDFBF7"},
	{ID: "Beige & Wood", Label: "베이지/우드", Swatch: "#E8DCC4"},
	{ID: "Light Grey", Label: "라이트 그레이", Swatch: "#E5E7EB"},
	{ID: "Black & Chic", Label: "블랙/시크", Swatch: "#565A63"},
}

var ViewAngles = []ViewAngle{
	{ID: "eye_level", Label: "아이레벨", Description: "eye-level wide angle view"},
	{ID: "corner", Label: "코너 뷰", Description: "corner perspective showing two walls"},
	{ID: "top_down", Label: "탑다운", Description: "top-down floor plan perspective"},
}

var RoomTemplates = []RoomTemplate{
	{ID: "living_room", Label: "거실", Description: "spacious living room"},
	{ID: "bedroom", Label: "침실", Description: "restful bedroom"},
	{ID: "kitchen", Label: "주방", Description: "functional kitchen with island"},
	{ID: "bathroom", Label: "욕실", Description: "spa-like bathroom"},
}

type QualityOption struct {
	ID    Tier   `json:"id"`
	Label string `json:"label"`
	Desc  string `json:"desc"`
}

var QualityOptions = []QualityOption{
	{ID: TierStandard, Label: "표준 생성", Desc: "빠르고 안정적 (Free)"},
	{ID: TierHigh, Label: "고품질 생성", Desc: "선명한 디테일"},
	{ID: TierUltra, Label: "초고화질", Desc: "고급 디테일 (Pro)"},
}

func StyleByID(id string) (Style, bool) {
	for _, s := range Styles {
		if s.ID == id {
			return s, true
		}
	}
	return Style{}, false
}

func ColorToneByID(id string) (ColorTone, bool) {
	for _, t := range ColorTones {
		if t.ID == id {
			return t, true
		}
	}
	return ColorTone{}, false
}

func ViewAngleByID(id string) (ViewAngle, bool) {
	for _, a := range ViewAngles {
		if a.ID == id {
			return a, true
		}
	}
	return ViewAngle{}, false
}

func RoomTemplateByID(id string) (RoomTemplate, bool) {
	for _, r := range RoomTemplates {
		if r.ID == id {
			return r, true
		}
	}
	return RoomTemplate{}, false
}

func (t Tier) Valid() bool {
	return t == TierStandard || t == TierHigh || t == TierUltra
}

// Model returns the backing model for the tier. Ultra is served by a distinct
// high-resolution model; Standard and High share the default one.
func (t Tier) Model() string {
	if t == TierUltra {
		return modelUltra
	}
	return modelStandard
}

// ImageSize is the output-resolution parameter, set only for Ultra.
func (t Tier) ImageSize() string {
	if t == TierUltra {
		return ultraImageSize
	}
	return ""
}

// PromptSuffix is the quality modifier appended to the composed prompt.
func (t Tier) PromptSuffix() string {
	switch t {
	case TierUltra:
		return "photorealistic, 8k, ultra-detailed materials, professional architectural photography"
	case TierHigh:
		return "photorealistic, 8k, professional lighting, high detail"
	default:
		return "photorealistic, professional lighting"
	}
}

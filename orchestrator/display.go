package orchestrator

// Variant is the panel a front-end shows below the input area.
type Variant string

const (
	VariantLoading   Variant = "loading"
	VariantError     Variant = "error"
	VariantContent   Variant = "content"
	VariantImageOnly Variant = "image_only"
	VariantWelcome   Variant = "welcome"
)

// View is the display derived from a State.
type View struct {
	Variant Variant           `json:"variant"`
	Loading *LoadingMessage   `json:"loading,omitempty"`
	Banner  string            `json:"banner,omitempty"`
	Content *GeneratedContent `json:"content,omitempty"`
	Prompt  string            `json:"prompt,omitempty"`
	Image   string            `json:"image,omitempty"`
}

// Derive computes the view with the English catalogue.
func Derive(s State) View {
	return DeriveWith(s, English)
}

// DeriveWith computes the view for s. It depends on nothing but its arguments.
//
// The error banner is not exclusive: when a result is still present it is
// rendered beneath the banner.
func DeriveWith(s State, m Messages) View {
	v := View{Banner: s.Error}
	switch {
	case s.PromptLoading:
		v.Variant = VariantLoading
		v.Loading = &LoadingMessage{Message: m.LoadingPrompt.Message, Detail: m.LoadingPrompt.Detail}
	case s.ImageLoading:
		v.Variant = VariantLoading
		v.Loading = &LoadingMessage{Message: m.LoadingImage.Message, Detail: m.LoadingImage.Detail}
	case s.ContentLoading:
		v.Variant = VariantLoading
		v.Loading = &LoadingMessage{Message: m.LoadingContent.Message, Detail: m.LoadingContent.Detail}
	case s.Content != nil:
		c := *s.Content
		v.Variant = VariantContent
		v.Content = &c
		v.Prompt = c.ImagePrompt
		v.Image = c.GeneratedImage
	case s.PromptOnlyImage != "" || s.CurrentPrompt != "":
		v.Variant = VariantImageOnly
		v.Prompt = s.CurrentPrompt
		v.Image = s.PromptOnlyImage
	case s.Error != "":
		v.Variant = VariantError
	default:
		v.Variant = VariantWelcome
	}
	return v
}

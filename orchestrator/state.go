// Package orchestrator sequences generation service calls for the three input
// flows and keeps the loading/error/result state a front-end renders.
//
// State changes only through Reduce. The Orchestrator is the asynchronous
// driver: it issues remote calls and feeds their outcomes back as actions.
package orchestrator

// GeneratedContent is published as a whole once both the text and the image
// step of a content flow succeed. It is never mutated afterwards.
type GeneratedContent struct {
	BlogPost         string `json:"blogPost"`
	BriefingDocument string `json:"briefingDocument"`
	ImagePrompt      string `json:"imagePrompt"`
	GeneratedImage   string `json:"generatedImage,omitempty"`
}

// State is the orchestration record. An empty Error or PromptOnlyImage means
// "not set".
type State struct {
	ContentLoading  bool              `json:"contentLoading"`
	PromptLoading   bool              `json:"promptLoading"`
	ImageLoading    bool              `json:"imageLoading"`
	Error           string            `json:"error,omitempty"`
	Content         *GeneratedContent `json:"content,omitempty"`
	CurrentPrompt   string            `json:"currentPrompt"`
	PromptOnlyImage string            `json:"promptOnlyImage,omitempty"`
}

// Flag identifies one loading indicator.
type Flag uint8

const (
	FlagContent Flag = 1 << iota
	FlagPrompt
	FlagImage
)

// Loading returns the set of raised loading flags.
func (s State) Loading() Flag {
	var f Flag
	if s.ContentLoading {
		f |= FlagContent
	}
	if s.PromptLoading {
		f |= FlagPrompt
	}
	if s.ImageLoading {
		f |= FlagImage
	}
	return f
}

// Operation names a user-triggered flow.
type Operation string

const (
	OpContent       Operation = "content"
	OpTextToPrompt  Operation = "image_prompt"
	OpPromptToImage Operation = "image"
)

// CanStart reports whether the trigger for op should be enabled. Callers gate
// their controls on it; the orchestrator itself does not refuse work.
func (s State) CanStart(op Operation) bool {
	switch op {
	case OpContent:
		return s.Loading() == 0
	case OpTextToPrompt:
		return !s.PromptLoading && !s.ImageLoading
	case OpPromptToImage:
		return !s.ImageLoading
	default:
		return false
	}
}

func (s State) clone() State {
	if s.Content != nil {
		c := *s.Content
		s.Content = &c
	}
	return s
}

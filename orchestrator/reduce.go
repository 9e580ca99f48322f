package orchestrator

// Action is an input to Reduce.
type Action interface {
	action()
}

type (
	// ValidationFailed records a rejected submission. Nothing else changes.
	ValidationFailed struct{ Message string }

	// ContentStarted raises ContentLoading and clears every result.
	ContentStarted struct{}

	// ContentPromptReady shares the content flow's image prompt with the
	// prompt/image panel.
	ContentPromptReady struct{ Prompt string }

	// ContentReady publishes the combined content.
	ContentReady struct{ Content GeneratedContent }

	// PromptStarted raises PromptLoading and clears previous results.
	PromptStarted struct{}

	// PromptReady stores a generated image prompt.
	PromptReady struct{ Prompt string }

	// ImageStarted raises ImageLoading. ClearResults is set when the image
	// flow is the start of a user action rather than a chained step.
	ImageStarted struct{ ClearResults bool }

	// ImageReady stores a prompt-only image.
	ImageReady struct{ Image string }

	// Failed records a service failure.
	Failed struct{ Err *ServiceError }

	// LoadingReleased lowers all given flags in one transition.
	LoadingReleased struct{ Flags Flag }
)

func (ValidationFailed) action()   {}
func (ContentStarted) action()     {}
func (ContentPromptReady) action() {}
func (ContentReady) action()       {}
func (PromptStarted) action()      {}
func (PromptReady) action()        {}
func (ImageStarted) action()       {}
func (ImageReady) action()         {}
func (Failed) action()             {}
func (LoadingReleased) action()    {}

// Reduce is the pure transition function. It never mutates s.
func Reduce(s State, a Action) State {
	s = s.clone()
	switch a := a.(type) {
	case ValidationFailed:
		s.Error = a.Message
	case ContentStarted:
		s.ContentLoading = true
		s.Error = ""
		s.Content = nil
		s.CurrentPrompt = ""
		s.PromptOnlyImage = ""
	case ContentPromptReady:
		s.CurrentPrompt = a.Prompt
	case ContentReady:
		c := a.Content
		s.Content = &c
	case PromptStarted:
		s.PromptLoading = true
		s.Error = ""
		s.Content = nil
		s.PromptOnlyImage = ""
	case PromptReady:
		s.CurrentPrompt = a.Prompt
	case ImageStarted:
		s.ImageLoading = true
		if a.ClearResults {
			s.Error = ""
			s.Content = nil
			s.PromptOnlyImage = ""
		}
	case ImageReady:
		s.PromptOnlyImage = a.Image
	case Failed:
		if a.Err != nil {
			s.Error = a.Err.Error()
		}
	case LoadingReleased:
		if a.Flags&FlagContent != 0 {
			s.ContentLoading = false
		}
		if a.Flags&FlagPrompt != 0 {
			s.PromptLoading = false
		}
		if a.Flags&FlagImage != 0 {
			s.ImageLoading = false
		}
	}
	return s
}

package orchestrator

import "fmt"

// Stage identifies the flow a service error belongs to.
type Stage string

const (
	StageContent Stage = "content"
	StagePrompt  Stage = "prompt"
	StageImage   Stage = "image"
)

// ValidationError is returned for an empty or malformed submission. No remote
// call was made and no loading flag was raised.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ServiceError wraps a generation service failure with its stage label.
type ServiceError struct {
	Stage Stage
	Label string
	Err   error
}

func (e *ServiceError) Error() string {
	label := e.Label
	if label == "" {
		label = English.label(e.Stage)
	}
	if e.Err == nil {
		return label
	}
	return fmt.Sprintf("%s: %s", label, e.Err.Error())
}

func (e *ServiceError) Unwrap() error { return e.Err }

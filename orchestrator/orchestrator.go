package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"ccreator/generator"
)

// Service is the generation service the orchestrator drives.
type Service interface {
	GenerateContent(ctx context.Context, kind generator.InputType, value string) (generator.TextContent, error)
	GenerateImagePromptFromText(ctx context.Context, text string) (string, error)
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

// Listener observes every transition, after it has been applied.
type Listener func(a Action, next State)

var (
	// ErrFlowRerun is returned when a Flow is run a second time.
	ErrFlowRerun = errors.New("flow already ran")
	// ErrFlowPanicked is the cause recorded when a service call panics.
	ErrFlowPanicked = errors.New("generation service panicked")
)

// Flow is the remote part of a started operation. It must be run exactly once;
// it releases its loading flags when it returns.
type Flow func(ctx context.Context) error

// Orchestrator owns one State and runs the three user flows against a Service.
type Orchestrator struct {
	svc    Service
	logger *slog.Logger
	msgs   Messages

	mu        sync.Mutex
	state     State
	listeners []Listener
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger; slog.Default() otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMessages sets the user-facing string catalogue.
func WithMessages(m Messages) Option {
	return func(o *Orchestrator) { o.msgs = m }
}

// WithListener registers a transition observer.
func WithListener(fn Listener) Option {
	return func(o *Orchestrator) {
		if fn != nil {
			o.listeners = append(o.listeners, fn)
		}
	}
}

func New(svc Service, opts ...Option) (*Orchestrator, error) {
	if svc == nil {
		return nil, errors.New("generation service is required")
	}
	o := &Orchestrator{svc: svc, logger: slog.Default(), msgs: English}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// State returns a snapshot of the current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.clone()
}

// Snapshot returns the state and its view from the same instant.
func (o *Orchestrator) Snapshot() (State, View) {
	s := o.State()
	return s, DeriveWith(s, o.msgs)
}

func (o *Orchestrator) dispatch(a Action) {
	o.mu.Lock()
	o.state = Reduce(o.state, a)
	next := o.state.clone()
	listeners := o.listeners
	o.mu.Unlock()

	for _, fn := range listeners {
		fn(a, next)
	}
}

func (o *Orchestrator) reject(msg string) error {
	o.dispatch(ValidationFailed{Message: msg})
	return &ValidationError{Message: msg}
}

func (o *Orchestrator) fail(ctx context.Context, stage Stage, err error) error {
	se := &ServiceError{Stage: stage, Label: o.msgs.label(stage), Err: err}
	o.logger.ErrorContext(ctx, "generation flow failed",
		"stage", string(stage),
		"error", err)
	o.dispatch(Failed{Err: se})
	return se
}

// recoverFlow turns a panic in a flow into a recorded service failure. It must
// be deferred after the lease release so the failure lands before the flags drop.
func (o *Orchestrator) recoverFlow(ctx context.Context, stage Stage, err *error) {
	if r := recover(); r != nil {
		*err = o.fail(ctx, stage, fmt.Errorf("%w: %v", ErrFlowPanicked, r))
	}
}

func once(run Flow) Flow {
	var ran atomic.Bool
	return func(ctx context.Context) error {
		if !ran.CompareAndSwap(false, true) {
			return ErrFlowRerun
		}
		return run(ctx)
	}
}

// StartContent validates the submission and enters the loading state. The
// returned Flow generates the articles and then the image.
func (o *Orchestrator) StartContent(kind generator.InputType, value string) (Flow, error) {
	if strings.TrimSpace(value) == "" {
		return nil, o.reject(o.msgs.EmptyContent)
	}
	if _, err := generator.ParseInputType(string(kind)); err != nil {
		return nil, o.reject(o.msgs.UnsupportedInput)
	}

	l := o.newLease()
	l.hold(ContentStarted{}, FlagContent)

	return once(func(ctx context.Context) (err error) {
		defer l.release()
		defer o.recoverFlow(ctx, StageContent, &err)

		o.logger.InfoContext(ctx, "content flow started", "input_type", string(kind), "input_length", len(value))
		text, err := o.svc.GenerateContent(ctx, kind, value)
		if err != nil {
			return o.fail(ctx, StageContent, err)
		}
		o.dispatch(ContentPromptReady{Prompt: text.ImagePrompt})

		img, err := o.svc.GenerateImage(ctx, text.ImagePrompt)
		if err != nil {
			return o.fail(ctx, StageContent, err)
		}
		o.dispatch(ContentReady{Content: GeneratedContent{
			BlogPost:         text.BlogPost,
			BriefingDocument: text.BriefingDocument,
			ImagePrompt:      text.ImagePrompt,
			GeneratedImage:   img,
		}})
		o.logger.InfoContext(ctx, "content flow finished")
		return nil
	}), nil
}

// StartTextToImagePrompt validates text and enters the prompt loading state.
// The returned Flow generates a prompt and immediately an image from it.
func (o *Orchestrator) StartTextToImagePrompt(text string) (Flow, error) {
	if strings.TrimSpace(text) == "" {
		return nil, o.reject(o.msgs.EmptyText)
	}

	l := o.newLease()
	l.hold(PromptStarted{}, FlagPrompt)

	return once(func(ctx context.Context) (err error) {
		// 两个 loading 标志在最后一起复位，不论哪一步失败。
		defer l.release()
		defer o.recoverFlow(ctx, StagePrompt, &err)

		o.logger.InfoContext(ctx, "image prompt flow started", "input_length", len(text))
		prompt, err := o.svc.GenerateImagePromptFromText(ctx, text)
		if err != nil {
			return o.fail(ctx, StagePrompt, err)
		}
		o.dispatch(PromptReady{Prompt: prompt})

		l.hold(ImageStarted{}, FlagImage)
		img, err := o.svc.GenerateImage(ctx, prompt)
		if err != nil {
			return o.fail(ctx, StagePrompt, err)
		}
		o.dispatch(ImageReady{Image: img})
		o.logger.InfoContext(ctx, "image prompt flow finished")
		return nil
	}), nil
}

// StartPromptToImage validates prompt and enters the image loading state.
func (o *Orchestrator) StartPromptToImage(prompt string) (Flow, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, o.reject(o.msgs.EmptyPrompt)
	}

	l := o.newLease()
	l.hold(ImageStarted{ClearResults: true}, FlagImage)

	return once(func(ctx context.Context) (err error) {
		defer l.release()
		defer o.recoverFlow(ctx, StageImage, &err)

		o.logger.InfoContext(ctx, "image flow started", "prompt_length", len(prompt))
		img, err := o.svc.GenerateImage(ctx, prompt)
		if err != nil {
			return o.fail(ctx, StageImage, err)
		}
		o.dispatch(ImageReady{Image: img})
		o.logger.InfoContext(ctx, "image flow finished")
		return nil
	}), nil
}

// SubmitContent runs the url/text -> articles + image flow to completion.
func (o *Orchestrator) SubmitContent(ctx context.Context, kind generator.InputType, value string) error {
	run, err := o.StartContent(kind, value)
	if err != nil {
		return err
	}
	return run(ctx)
}

// SubmitTextToImagePrompt runs the text -> prompt -> image flow to completion.
func (o *Orchestrator) SubmitTextToImagePrompt(ctx context.Context, text string) error {
	run, err := o.StartTextToImagePrompt(text)
	if err != nil {
		return err
	}
	return run(ctx)
}

// SubmitPromptToImage runs the prompt -> image flow to completion.
func (o *Orchestrator) SubmitPromptToImage(ctx context.Context, prompt string) error {
	run, err := o.StartPromptToImage(prompt)
	if err != nil {
		return err
	}
	return run(ctx)
}

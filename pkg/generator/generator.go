// Package generator defines where concept trees come from. The viewer never
// builds trees itself: it asks a Generator for a topic and treats the
// result as an immutable payload.
package generator

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/Dicklesworthstone/mindmap_viewer/pkg/model"
)

// ErrEmptyTopic is returned when a generator is asked for a blank topic.
var ErrEmptyTopic = errors.New("topic cannot be empty")

// Generator produces a concept tree for a topic. Implementations must honor
// ctx cancellation.
type Generator interface {
	Generate(ctx context.Context, topic string) (model.Concept, error)
}

// Func adapts a function to the Generator interface.
type Func func(ctx context.Context, topic string) (model.Concept, error)

// Generate calls f.
func (f Func) Generate(ctx context.Context, topic string) (model.Concept, error) {
	return f(ctx, topic)
}

// Static always returns the same concept, whatever the topic.
type Static struct {
	Concept model.Concept
}

// Generate returns a copy of the static concept.
func (s Static) Generate(ctx context.Context, _ string) (model.Concept, error) {
	if err := ctx.Err(); err != nil {
		return model.Concept{}, err
	}
	return s.Concept.Clone(), nil
}

// GenerationError records which topic and phase failed.
type GenerationError struct {
	Topic string
	Phase string // "generate", "decode", "index"
	Cause error
	Time  time.Time
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generating %q: %s failed: %v", e.Topic, e.Phase, e.Cause)
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// Build runs g for topic and indexes the result with limits. Panics inside
// the generator are recovered and reported as a GenerationError so a
// misbehaving collaborator cannot take the viewer down.
func Build(ctx context.Context, g Generator, topic string, limits model.Limits) (*model.Tree, error) {
	var concept model.Concept
	if err := safeCompute(topic, "generate", func() error {
		var err error
		concept, err = g.Generate(ctx, topic)
		return err
	}); err != nil {
		return nil, err
	}

	tree, err := model.NewTree(concept, limits)
	if err != nil {
		return nil, &GenerationError{Topic: topic, Phase: "index", Cause: err, Time: time.Now()}
	}
	return tree, nil
}

// safeCompute executes fn and recovers from any panics.
func safeCompute(topic, phase string, fn func() error) error {
	var result error
	func() {
		defer func() {
			if r := recover(); r != nil {
				result = &GenerationError{
					Topic: topic,
					Phase: phase,
					Cause: fmt.Errorf("panic: %v\n%s", r, debug.Stack()),
					Time:  time.Now(),
				}
			}
		}()
		if err := fn(); err != nil {
			var gerr *GenerationError
			if errors.As(err, &gerr) {
				result = err
				return
			}
			result = &GenerationError{Topic: topic, Phase: phase, Cause: err, Time: time.Now()}
		}
	}()
	return result
}

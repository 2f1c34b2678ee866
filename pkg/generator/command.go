package generator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/Dicklesworthstone/mindmap_viewer/pkg/model"
)

// TopicPlaceholder is replaced by the topic in every command argument.
const TopicPlaceholder = "{{topic}}"

// maxStderr caps how much stderr is quoted in an error.
const maxStderr = 2048

// CommandGenerator runs an external program that prints a concept tree as
// JSON on stdout. The topic is substituted into Args; if no argument holds
// the placeholder the topic is passed on stdin instead.
type CommandGenerator struct {
	Args    []string // program followed by its arguments
	Timeout time.Duration
	Dir     string // working directory; empty means the current one
	Env     []string
}

// NewCommandGenerator returns a generator for args with the given timeout.
func NewCommandGenerator(args []string, timeout time.Duration) *CommandGenerator {
	return &CommandGenerator{Args: args, Timeout: timeout}
}

// Generate runs the command and decodes its output.
func (g *CommandGenerator) Generate(ctx context.Context, topic string) (model.Concept, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return model.Concept{}, ErrEmptyTopic
	}
	if len(g.Args) == 0 {
		return model.Concept{}, errors.New("no generator command configured")
	}
	if g.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.Timeout)
		defer cancel()
	}

	args, substituted := expandArgs(g.Args, topic)
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = g.Dir
	if len(g.Env) > 0 {
		cmd.Env = append(cmd.Environ(), g.Env...)
	}
	if !substituted {
		cmd.Stdin = strings.NewReader(topic + "\n")
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return model.Concept{}, fmt.Errorf("%s: %w", args[0], ctx.Err())
		}
		if msg := tail(stderr.String(), maxStderr); msg != "" {
			return model.Concept{}, fmt.Errorf("%s: %w: %s", args[0], err, msg)
		}
		return model.Concept{}, fmt.Errorf("%s: %w", args[0], err)
	}

	c, err := model.Decode(&stdout)
	if err != nil {
		return model.Concept{}, &GenerationError{Topic: topic, Phase: "decode", Cause: err, Time: time.Now()}
	}
	return c, nil
}

func expandArgs(args []string, topic string) ([]string, bool) {
	out := make([]string, len(args))
	substituted := false
	for i, a := range args {
		if strings.Contains(a, TopicPlaceholder) {
			substituted = true
			a = strings.ReplaceAll(a, TopicPlaceholder, topic)
		}
		out[i] = a
	}
	return out, substituted
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}

package feed

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"forcify/pkg/forcify"
)

//go:embed script.schema.json
var scriptSchemaJSON []byte

// ErrInvalidScript is returned for scripts that fail schema or ordering
// checks.
var ErrInvalidScript = errors.New("feed: invalid script")

// Duration is a script offset. It accepts Go duration strings ("150ms",
// "1.5s") or bare integers meaning milliseconds.
type Duration time.Duration

// D returns d as a time.Duration.
func (d Duration) D() time.Duration { return time.Duration(d) }

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	v, err := parseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = v
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

func parseDuration(s string) (Duration, error) {
	s = strings.TrimSpace(s)
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Duration(time.Duration(ms) * time.Millisecond), nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return Duration(v), nil
}

// Step is one raw event at an offset from the start of playback.
type Step struct {
	At    Duration          `yaml:"at"`
	Type  forcify.EventType `yaml:"type"`
	Touch int               `yaml:"touch,omitempty"`
	Force *float64          `yaml:"force,omitempty"`
}

// Event builds the raw event for s at time t.
func (s Step) Event(t time.Time) forcify.RawEvent {
	ev := forcify.RawEvent{
		Type:    s.Type,
		Time:    t,
		TouchID: s.Touch,
	}
	if s.Force != nil {
		ev.Force = *s.Force
		ev.HasForce = true
	}
	return ev
}

// Script is a recorded or hand-written gesture sequence. YAML and JSON are
// both accepted.
type Script struct {
	Name string `yaml:"name,omitempty"`

	// Platform selects the dialect registry, as a user-agent string or GOOS
	// name. Empty means the running platform.
	Platform string `yaml:"platform,omitempty"`

	// Hold keeps the clock running after the last step so ramps can finish.
	Hold Duration `yaml:"hold,omitempty"`

	Steps []Step `yaml:"steps"`
}

var (
	scriptSchema     *jsonschema.Schema
	scriptSchemaErr  error
	scriptSchemaOnce sync.Once
)

func compiledScriptSchema() (*jsonschema.Schema, error) {
	scriptSchemaOnce.Do(func() {
		const url = "script.schema.json"
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(url, bytes.NewReader(scriptSchemaJSON)); err != nil {
			scriptSchemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		scriptSchema, scriptSchemaErr = compiler.Compile(url)
	})
	return scriptSchema, scriptSchemaErr
}

// ParseScript decodes and validates a YAML or JSON script.
func ParseScript(data []byte) (*Script, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode script: %w", err)
	}

	schema, err := compiledScriptSchema()
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("normalize script: %w", err)
	}
	var instance any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return nil, fmt.Errorf("normalize script: %w", err)
	}
	if err := schema.Validate(instance); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScript, err)
	}

	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode script: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadScript reads a script file.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	s, err := ParseScript(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Validate checks that step offsets are non-negative and in order.
func (s *Script) Validate() error {
	var prev Duration
	for i, step := range s.Steps {
		if step.At < 0 {
			return fmt.Errorf("%w: step %d: negative offset", ErrInvalidScript, i)
		}
		if step.At < prev {
			return fmt.Errorf("%w: step %d: offset %v before previous step", ErrInvalidScript, i, step.At.D())
		}
		prev = step.At
	}
	if s.Hold < 0 {
		return fmt.Errorf("%w: negative hold", ErrInvalidScript)
	}
	return nil
}

// Length is the offset of the last step plus Hold.
func (s *Script) Length() time.Duration {
	var last Duration
	if n := len(s.Steps); n > 0 {
		last = s.Steps[n-1].At
	}
	return last.D() + s.Hold.D()
}

// Play dispatches every step to sink at its offset from the current clock
// time. A *forcify.FakeClock is advanced instead of slept on, so playback
// against one is instant and deterministic.
func (s *Script) Play(ctx context.Context, sink Sink, clock forcify.Clock) error {
	if clock == nil {
		clock = forcify.RealClock()
	}
	start := clock.Now()

	for _, step := range s.Steps {
		if err := waitUntil(ctx, clock, start.Add(step.At.D())); err != nil {
			return err
		}
		sink.Dispatch(step.Event(clock.Now()))
	}
	return waitUntil(ctx, clock, start.Add(s.Length()))
}

func waitUntil(ctx context.Context, clock forcify.Clock, t time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d := t.Sub(clock.Now())
	if d <= 0 {
		return nil
	}

	if fc, ok := clock.(*forcify.FakeClock); ok {
		fc.Advance(d)
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

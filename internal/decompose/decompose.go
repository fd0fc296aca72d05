// Package decompose turns a goal's free text into an ordered list of short
// subtasks with one model call, falling back to a fixed plan whenever the
// call or its response is unusable.
package decompose

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ShayCichocki/mentor/internal/api"
	"github.com/ShayCichocki/mentor/internal/graph"
	"github.com/ShayCichocki/mentor/internal/logging"
)

// ErrNoCredential is returned by Run when no API credential was supplied.
var ErrNoCredential = errors.New("missing API credential")

// NodeDecompose is the name of the model-call node.
const NodeDecompose = "decompose"

// Generator produces model text for a system and user prompt.
// *api.Runner satisfies it.
type Generator interface {
	RunWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// usageReporter is implemented by generators that count tokens.
// *api.Runner satisfies it.
type usageReporter interface {
	Client() *api.Client
}

// State flows through the decomposition workflow.
type State struct {
	// RunID correlates log lines of one decomposition.
	RunID string
	// Goal is the text being decomposed.
	Goal string
	// Items are the subtasks produced so far.
	Items []string
	// Fallback is set when Items came from FallbackItems.
	Fallback bool
}

// Stage is an extra workflow step run after the model call.
type Stage struct {
	Name string
	Fn   graph.NodeFunc[*State]
}

// DropBlank removes empty and whitespace-only items.
var DropBlank = Stage{Name: "drop_blank", Fn: dropBlank}

func dropBlank(_ context.Context, s *State) (*State, error) {
	kept := s.Items[:0]
	for _, item := range s.Items {
		if strings.TrimSpace(item) != "" {
			kept = append(kept, item)
		}
	}
	s.Items = kept
	return s, nil
}

// FallbackItems is the fixed plan used when decomposition fails.
func FallbackItems(goal string) []string {
	return []string{
		"Define scope for: " + goal,
		"List 5 actions",
		"Do the smallest action",
	}
}

type settings struct {
	stages []Stage
	logger *logging.DebugLogger
	client api.ClientConfig
}

// Option configures a Decomposer or a Run.
type Option func(*settings)

// WithStages appends stages between the model call and the end of the workflow.
func WithStages(stages ...Stage) Option {
	return func(s *settings) {
		s.stages = append(s.stages, stages...)
	}
}

// WithLogger attaches a debug logger.
func WithLogger(l *logging.DebugLogger) Option {
	return func(s *settings) {
		s.logger = l
	}
}

// WithClientConfig sets the model client configuration used by Run.
// The API key is always taken from Run's credential argument.
func WithClientConfig(cfg api.ClientConfig) Option {
	return func(s *settings) {
		s.client = cfg
	}
}

// Decomposer runs the compiled decomposition workflow.
type Decomposer struct {
	gen      Generator
	logger   *logging.DebugLogger
	runnable *graph.Runnable[*State]
}

// New compiles the workflow START -> decompose -> stages... -> END.
func New(gen Generator, opts ...Option) (*Decomposer, error) {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}
	return newDecomposer(gen, s)
}

func newDecomposer(gen Generator, s settings) (*Decomposer, error) {
	if gen == nil {
		return nil, fmt.Errorf("decomposer requires a generator")
	}

	d := &Decomposer{gen: gen, logger: s.logger}

	g := graph.New[*State]()
	g.SetDebugLog(d.logger.Debug)
	g.AddNode(NodeDecompose, d.callModel)
	g.AddEdge(graph.Start, NodeDecompose)

	prev := NodeDecompose
	for _, stage := range s.stages {
		g.AddNode(stage.Name, stage.Fn)
		g.AddEdge(prev, stage.Name)
		prev = stage.Name
	}
	g.AddEdge(prev, graph.End)

	runnable, err := g.Compile()
	if err != nil {
		return nil, fmt.Errorf("compile decomposition workflow: %w", err)
	}
	d.runnable = runnable
	return d, nil
}

// Stages returns the workflow node names in execution order.
func (d *Decomposer) Stages() []string {
	return d.runnable.Nodes()
}

// Decompose returns the subtasks for goal. It never fails: any model,
// parse or stage error yields FallbackItems(goal). A well-formed but empty
// model answer yields an empty, non-nil slice.
func (d *Decomposer) Decompose(ctx context.Context, goal string) []string {
	runID := uuid.NewString()
	log := d.logger.WithField("run_id", runID)

	out, err := d.runnable.Invoke(ctx, &State{RunID: runID, Goal: goal})
	if err != nil {
		log.WithError(err).Warn("[decompose] workflow failed, using fallback")
		return FallbackItems(goal)
	}

	done := log.WithField("fallback", out.Fallback)
	if r, ok := d.gen.(usageReporter); ok {
		tracker := r.Client().Tracker()
		input, output := tracker.Total()
		done = done.WithFields(logrus.Fields{
			"input_tokens":  input,
			"output_tokens": output,
			"api_calls":     tracker.Calls(),
		})
	}
	done.Infof("[decompose] %d subtasks", len(out.Items))
	if out.Items == nil {
		return []string{}
	}
	return out.Items
}

// callModel is the decompose node: one generator call, decoded as a
// tagged variant.
func (d *Decomposer) callModel(ctx context.Context, s *State) (*State, error) {
	text, err := d.gen.RunWithSystem(ctx, systemPrompt, buildPrompt(s.Goal))
	if err != nil {
		d.logger.Log("[decompose] run %s: generator error: %v", s.RunID, err)
		s.Items, s.Fallback = FallbackItems(s.Goal), true
		return s, nil
	}

	resp := ParseResponse(text)
	switch resp.Kind {
	case KindItems:
		s.Items = resp.Items
	default:
		d.logger.Log("[decompose] run %s: %s", s.RunID, resp.Reason)
		s.Items, s.Fallback = FallbackItems(s.Goal), true
	}
	return s, nil
}

// Run decomposes goal using the Anthropic API with credential as the key.
// The only error is ErrNoCredential (or a client construction failure);
// everything after that resolves to a list.
func Run(ctx context.Context, credential, goal string, opts ...Option) ([]string, error) {
	if strings.TrimSpace(credential) == "" {
		return nil, ErrNoCredential
	}

	var s settings
	for _, opt := range opts {
		opt(&s)
	}

	cfg := s.client
	cfg.APIKey = credential
	cfg.UseAWSBedrock = false
	client, err := api.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create model client: %w", err)
	}

	d, err := newDecomposer(api.NewRunner(client), s)
	if err != nil {
		return nil, err
	}
	return d.Decompose(ctx, goal), nil
}

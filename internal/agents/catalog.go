// Package agents declares the operation table and response schema of each
// agent module. Every agent shares the scoring engine and dispatcher.
package agents

import (
	"fmt"
	"sort"

	"github.com/nmxmxh/fot_agents/internal/capability"
	"github.com/nmxmxh/fot_agents/internal/dispatch"
	"github.com/nmxmxh/fot_agents/internal/utils"
	"github.com/nmxmxh/fot_agents/internal/wire"
)

// Agent names as selected at link time or on the host CLI.
const (
	ResonanceEngine = "harmonic_resonance_engine"
	Student         = "student"
	Teacher         = "teacher"
	Parent          = "parent"
	Topic           = "topic"
)

// DefaultTopic is the lesson topic served by the topic agent unless configured.
const DefaultTopic = "biology.photosynthesis"

// Deps are the collaborators an agent's handlers close over.
type Deps struct {
	Client *capability.Client
	Logger *utils.Logger
	// Topic names the subject of the topic agent.
	Topic string
	// NewID generates lesson identifiers.
	NewID func() (string, error)
}

// Agent is a ready-to-run module: its dispatcher plus the schema its responses use.
type Agent struct {
	Name       string
	Schema     wire.Schema
	Dispatcher *dispatch.Dispatcher
}

type builder func(Deps) (string, wire.Schema, []dispatch.Operation)

var builders = map[string]builder{
	ResonanceEngine: resonanceOperations,
	Student:         studentOperations,
	Teacher:         teacherOperations,
	Parent:          parentOperations,
	Topic:           topicOperations,
}

// Names lists the agents this build can serve.
func Names() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New builds the named agent.
func New(name string, deps Deps) (*Agent, error) {
	build, ok := builders[name]
	if !ok {
		return nil, fmt.Errorf("unknown agent %q (have %v)", name, Names())
	}
	if deps.Client == nil {
		return nil, fmt.Errorf("agent %s: capability client required", name)
	}
	if deps.Logger == nil {
		deps.Logger = utils.NopLogger()
	}
	if deps.Topic == "" {
		deps.Topic = DefaultTopic
	}
	if deps.NewID == nil {
		deps.NewID = utils.GenerateID
	}

	agentName, schema, ops := build(deps)
	if err := schema.Validate(); err != nil {
		return nil, fmt.Errorf("agent %s: %w", name, err)
	}
	d, err := dispatch.New(agentName, deps.Logger.Named(agentName), ops...)
	if err != nil {
		return nil, err
	}
	return &Agent{Name: agentName, Schema: schema, Dispatcher: d}, nil
}

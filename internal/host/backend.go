package host

import (
	"context"

	"github.com/nmxmxh/fot_agents/internal/capability"
	"github.com/nmxmxh/fot_agents/internal/utils"
)

// Backend serves the capability surface from the reference stores.
type Backend struct {
	Graph   *GraphStore
	Metrics *Telemetry
	Events  *EventLog
}

var _ capability.Host = (*Backend)(nil)

func (b *Backend) GraphRead(ctx context.Context, query []byte) ([]byte, error) {
	return b.Graph.Query(ctx, query)
}

func (b *Backend) GraphWrite(ctx context.Context, mutation []byte) ([]byte, error) {
	return b.Graph.Apply(ctx, mutation)
}

func (b *Backend) RecordResonance(_ context.Context, agentID, contextText string, score float64) error {
	return b.Metrics.ObserveResonance(agentID, contextText, score)
}

func (b *Backend) RecordVirtue(_ context.Context, subjectID, virtue string, delta float64) error {
	return b.Metrics.AddVirtue(subjectID, virtue, delta)
}

func (b *Backend) EmitEvent(_ context.Context, agentID string, frequency, amplitude float64, contextText string) error {
	b.Metrics.CountEvent(agentID)
	return b.Events.Emit(Event{
		AgentID:   agentID,
		Frequency: frequency,
		Amplitude: amplitude,
		Context:   contextText,
	})
}

// BackendOptions configures OpenBackend.
type BackendOptions struct {
	Graph         GraphOptions
	EventCapacity int
}

// OpenBackend opens the graph and creates fresh telemetry and event log.
func OpenBackend(opts BackendOptions, logger *utils.Logger) (*Backend, error) {
	if logger == nil {
		logger = utils.NopLogger()
	}
	graph, err := OpenGraph(opts.Graph, logger.Named("graph"))
	if err != nil {
		return nil, err
	}
	return &Backend{
		Graph:   graph,
		Metrics: NewTelemetry(),
		Events:  NewEventLog(logger.Named("events"), opts.EventCapacity),
	}, nil
}

// Close closes the graph.
func (b *Backend) Close() error {
	return b.Graph.Close()
}

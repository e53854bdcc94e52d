// Package capability is the module's only way to reach host functionality:
// graph storage, metrics and events. Nothing here is implemented locally.
package capability

import (
	"context"
	"errors"
	"fmt"

	"github.com/benbjohnson/clock"
	json "github.com/goccy/go-json"

	"github.com/nmxmxh/fot_agents/internal/utils"
	"github.com/nmxmxh/fot_agents/internal/wire"
)

// Host is the capability surface the host runtime implements. Each call
// is a single synchronous request/outcome; deadlines belong to the host.
type Host interface {
	GraphRead(ctx context.Context, query []byte) ([]byte, error)
	GraphWrite(ctx context.Context, mutation []byte) ([]byte, error)
	RecordResonance(ctx context.Context, agentID, contextText string, score float64) error
	RecordVirtue(ctx context.Context, subjectID, virtue string, delta float64) error
	EmitEvent(ctx context.Context, agentID string, frequency, amplitude float64, contextText string) error
}

// Result is the host's opaque answer to a graph call. The core never parses it.
type Result []byte

// Fields are the operation-specific members of a graph payload.
type Fields map[string]any

// Kind names a capability call for logging and errors.
type Kind string

const (
	KindGraphRead       Kind = "graph-read"
	KindGraphWrite      Kind = "graph-write"
	KindRecordResonance Kind = "record-resonance"
	KindRecordVirtue    Kind = "record-virtue"
	KindEmitEvent       Kind = "emit-event"
)

var ErrClockBeforeEpoch = errors.New("clock reads before the unix epoch")

// Client is a stateless pass-through to a Host. It holds only immutable
// collaborators and is safe to share across invocations.
type Client struct {
	host   Host
	clock  clock.Clock
	logger *utils.Logger
	newID  func() (string, error)
}

// Option configures a Client.
type Option func(*Client)

// WithClock overrides the wall clock used for payload timestamps.
func WithClock(c clock.Clock) Option {
	return func(cl *Client) { cl.clock = c }
}

// WithLogger sets the logger used for swallowed fire-and-forget failures.
func WithLogger(l *utils.Logger) Option {
	return func(cl *Client) { cl.logger = l }
}

// WithIDSource overrides request id generation.
func WithIDSource(fn func() (string, error)) Option {
	return func(cl *Client) { cl.newID = fn }
}

// NewClient wraps host.
func NewClient(host Host, opts ...Option) *Client {
	c := &Client{
		host:   host,
		clock:  clock.New(),
		logger: utils.NopLogger(),
		newID:  utils.GenerateID,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GraphRead sends a query tagged with operation. Failure is a host-call
// error carrying wire.MsgGraphReadFailed.
func (c *Client) GraphRead(ctx context.Context, operation string, fields Fields) (Result, error) {
	payload, err := c.Payload(operation, fields)
	if err != nil {
		return nil, wire.HostCallError(wire.MsgGraphReadFailed, err)
	}
	out, err := c.host.GraphRead(ctx, payload)
	if err != nil {
		return nil, wire.HostCallError(wire.MsgGraphReadFailed, callError(KindGraphRead, operation, err))
	}
	return Result(out), nil
}

// GraphWrite sends a mutation tagged with operation. Failure is a host-call
// error carrying wire.MsgGraphWriteFailed.
func (c *Client) GraphWrite(ctx context.Context, operation string, fields Fields) (Result, error) {
	payload, err := c.Payload(operation, fields)
	if err != nil {
		return nil, wire.HostCallError(wire.MsgGraphWriteFailed, err)
	}
	out, err := c.host.GraphWrite(ctx, payload)
	if err != nil {
		return nil, wire.HostCallError(wire.MsgGraphWriteFailed, callError(KindGraphWrite, operation, err))
	}
	return Result(out), nil
}

// RecordResonance is fire-and-forget.
func (c *Client) RecordResonance(ctx context.Context, agentID, contextText string, score float64) {
	if err := c.host.RecordResonance(ctx, agentID, contextText, score); err != nil {
		c.swallow(KindRecordResonance, err, utils.String("agent_id", agentID), utils.Float64("score", score))
	}
}

// RecordVirtue is fire-and-forget.
func (c *Client) RecordVirtue(ctx context.Context, subjectID, virtue string, delta float64) {
	if err := c.host.RecordVirtue(ctx, subjectID, virtue, delta); err != nil {
		c.swallow(KindRecordVirtue, err, utils.String("subject_id", subjectID), utils.String("virtue", virtue))
	}
}

// EmitEvent is fire-and-forget.
func (c *Client) EmitEvent(ctx context.Context, agentID string, frequency, amplitude float64, contextText string) {
	if err := c.host.EmitEvent(ctx, agentID, frequency, amplitude, contextText); err != nil {
		c.swallow(KindEmitEvent, err, utils.String("agent_id", agentID), utils.Float64("frequency", frequency))
	}
}

func (c *Client) swallow(kind Kind, err error, fields ...utils.Field) {
	fields = append(fields, utils.String("call", string(kind)), utils.Err(err))
	c.logger.Warn("Capability call failed; continuing", fields...)
}

// Payload builds the structured text sent to the graph: the caller's
// fields plus operation, timestamp (unix seconds) and request_id.
// Keys are emitted sorted, so equal inputs give equal bytes.
func (c *Client) Payload(operation string, fields Fields) ([]byte, error) {
	now := c.clock.Now()
	if now.Unix() < 0 {
		return nil, ErrClockBeforeEpoch
	}
	id, err := c.newID()
	if err != nil {
		return nil, err
	}

	body := make(map[string]any, len(fields)+3)
	for k, v := range fields {
		body[k] = v
	}
	body["operation"] = operation
	body["timestamp"] = uint64(now.Unix())
	body["request_id"] = id

	out, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", operation, err)
	}
	return out, nil
}

func callError(kind Kind, operation string, err error) error {
	return fmt.Errorf("%s %s: %w", kind, operation, err)
}

// Package entry is the single gate between the host and an agent: it reads
// the request out of module memory, dispatches it, and publishes the
// encoded response back into module memory.
package entry

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/nmxmxh/fot_agents/internal/agents"
	"github.com/nmxmxh/fot_agents/internal/dispatch"
	"github.com/nmxmxh/fot_agents/internal/utils"
	"github.com/nmxmxh/fot_agents/internal/wire"
)

// internalErrorBody is published when even encoding a failure fails.
var internalErrorBody = []byte(`{"success":false,"message":"internal error"}`)

// Module couples a dispatcher with the response schema of its agent.
type Module struct {
	dispatcher *dispatch.Dispatcher
	schema     wire.Schema
	logger     *utils.Logger
}

// New wraps an agent built by the agents catalog.
func New(agent *agents.Agent, logger *utils.Logger) *Module {
	if logger == nil {
		logger = utils.NopLogger()
	}
	return &Module{
		dispatcher: agent.Dispatcher,
		schema:     agent.Schema,
		logger:     logger.With(utils.String("agent", agent.Name)),
	}
}

// Handle turns request bytes into response bytes. It always returns a
// well-formed response body, even when a handler panics.
func (m *Module) Handle(ctx context.Context, in []byte) (out []byte) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("AGENT PANIC",
				utils.Any("reason", r),
				utils.String("stack", string(debug.Stack())))
			out = m.encode(wire.Failure(wire.MsgInternal))
		}
	}()

	return m.encode(m.dispatcher.Dispatch(ctx, in))
}

// encode falls back to an internal-error failure in the agent's schema, and
// only when that cannot be encoded either to the constant body.
func (m *Module) encode(resp *wire.Response) []byte {
	body, err := wire.Encode(resp, m.schema)
	if err == nil {
		return body
	}
	m.logger.Error("Failed to encode response", utils.Err(err))
	if body, err = wire.Encode(wire.Failure(wire.MsgInternal), m.schema); err == nil {
		return body
	}
	return internalErrorBody
}

// Run is the body of the exported run function. The request is read from
// [ptr, ptr+length) of mem; the response is published into mem and its
// handle returned. Only when no response buffer can be allocated is the
// zero handle returned.
func (m *Module) Run(ctx context.Context, mem wire.Memory, ptr, length uint32) wire.Handle {
	var out []byte
	in, err := wire.Read(mem, ptr, length)
	if err != nil {
		m.logger.Debug("Request outside module memory",
			utils.Uint32("ptr", ptr),
			utils.Uint32("len", length),
			utils.Err(err))
		out = m.encode(wire.Failure(wire.MsgInvalidInput))
	} else {
		out = m.Handle(ctx, in)
	}

	h, err := wire.Publish(mem, out)
	if err != nil {
		m.logger.Error("Failed to publish response", utils.Int("bytes", len(out)), utils.Err(err))
		return wire.Handle{}
	}
	return h
}

// Operations lists the operations this module answers.
func (m *Module) Operations() []string {
	return m.dispatcher.Operations()
}

func (m *Module) String() string {
	return fmt.Sprintf("module(%s)", m.dispatcher.Agent())
}

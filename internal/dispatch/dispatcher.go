// Package dispatch routes a decoded request through an agent's operation
// table and always produces a response.
package dispatch

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/nmxmxh/fot_agents/internal/utils"
	"github.com/nmxmxh/fot_agents/internal/wire"
)

// Handler runs one operation on a request whose requirements already hold.
// A returned error becomes a failure response carrying the error's message.
type Handler func(ctx context.Context, req *wire.Request) (*wire.Response, error)

// Requirement names Request fields that must be present together and the
// message reported when any of them is missing.
type Requirement struct {
	Fields  []string
	Missing string
}

// Require is shorthand for a Requirement.
func Require(missing string, fields ...string) Requirement {
	return Requirement{Fields: fields, Missing: missing}
}

// Operation is one row of an operation table.
type Operation struct {
	Name     string
	Requires []Requirement
	Handle   Handler
}

// Dispatcher is immutable once built; one instance serves any number of
// concurrent invocations.
type Dispatcher struct {
	agent    string
	ops      map[string]Operation
	order    []string
	validate *validator.Validate
	logger   *utils.Logger
}

// New builds a dispatcher for agent from its operation table.
func New(agent string, logger *utils.Logger, ops ...Operation) (*Dispatcher, error) {
	if logger == nil {
		logger = utils.NopLogger()
	}
	d := &Dispatcher{
		agent:    agent,
		ops:      make(map[string]Operation, len(ops)),
		validate: validator.New(),
		logger:   logger,
	}
	for _, op := range ops {
		if op.Name == "" || op.Handle == nil {
			return nil, fmt.Errorf("agent %s: operation needs a name and a handler", agent)
		}
		if _, dup := d.ops[op.Name]; dup {
			return nil, fmt.Errorf("agent %s: duplicate operation %q", agent, op.Name)
		}
		d.ops[op.Name] = op
		d.order = append(d.order, op.Name)
	}
	return d, nil
}

// Agent returns the agent name.
func (d *Dispatcher) Agent() string {
	return d.agent
}

// Operations lists the operation names in table order.
func (d *Dispatcher) Operations() []string {
	return append([]string(nil), d.order...)
}

// Dispatch decodes raw and runs the matching operation. It never returns nil.
func (d *Dispatcher) Dispatch(ctx context.Context, raw []byte) *wire.Response {
	req, err := wire.Decode(raw)
	if err != nil {
		return d.fail("", err)
	}
	return d.Handle(ctx, req)
}

// Handle runs an already-decoded request.
func (d *Dispatcher) Handle(ctx context.Context, req *wire.Request) *wire.Response {
	op, ok := d.ops[req.Op]
	if !ok {
		return d.fail(req.Op, wire.UnknownOperationError(req.Op))
	}

	for _, r := range op.Requires {
		if err := d.validate.StructPartial(req, r.Fields...); err != nil {
			return d.fail(req.Op, wire.ValidationError(r.Missing))
		}
	}

	resp, err := op.Handle(ctx, req)
	if err != nil {
		return d.fail(req.Op, err)
	}
	if resp == nil {
		return d.fail(req.Op, wire.NewError(wire.CodeInternal, wire.MsgInternal, fmt.Errorf("%s returned no response", req.Op)))
	}
	resp.Success = true
	return resp
}

func (d *Dispatcher) fail(op string, err error) *wire.Response {
	level := d.logger.Debug
	if code := wire.CodeOf(err); code == wire.CodeHostCall || code == wire.CodeInternal {
		level = d.logger.Warn
	}
	level("Operation failed",
		utils.String("agent", d.agent),
		utils.String("op", op),
		utils.String("code", string(wire.CodeOf(err))),
		utils.Err(err))
	return wire.Failure(wire.MessageOf(err))
}

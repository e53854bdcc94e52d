package agents

import (
	"context"
	"fmt"

	"github.com/nmxmxh/fot_agents/internal/capability"
	"github.com/nmxmxh/fot_agents/internal/dispatch"
	"github.com/nmxmxh/fot_agents/internal/wire"
)

type parent struct {
	caps *capability.Client
}

func parentOperations(deps Deps) (string, wire.Schema, []dispatch.Operation) {
	p := parent{caps: deps.Client}
	return Parent, wire.Schema{wire.KeyChildID, wire.KeyConcepts, wire.KeyVirtues}, []dispatch.Operation{
		{
			Name:     "get_child_progress",
			Requires: []dispatch.Requirement{dispatch.Require("missing child id", "ChildID")},
			Handle:   p.childProgress,
		},
	}
}

// childProgress issues the graph query. The host's answer stays opaque;
// concepts and virtues are reported empty until the host shapes them.
func (p parent) childProgress(ctx context.Context, req *wire.Request) (*wire.Response, error) {
	childID := *req.ChildID
	if _, err := p.caps.GraphRead(ctx, "get_child_progress", capability.Fields{"child_id": childID}); err != nil {
		return nil, err
	}

	return &wire.Response{
		ChildID:  childID,
		Concepts: []wire.ConceptProgress{},
		Message:  fmt.Sprintf("Progress queried for child: %s", childID),
	}, nil
}

// Command fot-agent is one agent module. Built for wasip1 it is a reactor
// exporting alloc, dealloc and run; built natively it answers a single
// request read from stdin.
//
//	GOOS=wasip1 GOARCH=wasm go build -buildmode=c-shared \
//	    -ldflags "-X main.agentName=student" -o student.wasm ./cmd/fot-agent
package main

import (
	"github.com/nmxmxh/fot_agents/internal/agents"
	"github.com/nmxmxh/fot_agents/internal/capability"
	"github.com/nmxmxh/fot_agents/internal/entry"
	"github.com/nmxmxh/fot_agents/internal/utils"
)

// agentName selects the agent at link time.
var agentName = agents.ResonanceEngine

func buildModule(host capability.Host, logger *utils.Logger) (*entry.Module, error) {
	client := capability.NewClient(host, capability.WithLogger(logger.Named("capability")))
	agent, err := agents.New(agentName, agents.Deps{Client: client, Logger: logger})
	if err != nil {
		return nil, err
	}
	return entry.New(agent, logger), nil
}

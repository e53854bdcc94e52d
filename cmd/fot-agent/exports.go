//go:build wasip1

package main

import (
	"context"

	"github.com/nmxmxh/fot_agents/internal/entry"
	"github.com/nmxmxh/fot_agents/internal/guest"
	"github.com/nmxmxh/fot_agents/internal/utils"
)

var module = mustModule()

func mustModule() *entry.Module {
	logger := utils.NewLogger(utils.LoggerConfig{Level: utils.WARN, Component: agentName})
	m, err := buildModule(guest.Host{}, logger)
	if err != nil {
		panic(err)
	}
	return m
}

func main() {}

//go:wasmexport alloc
func alloc(size uint32) uint32 {
	return guest.Alloc(size)
}

//go:wasmexport dealloc
func dealloc(ptr uint32) {
	guest.Free(ptr)
}

//go:wasmexport run
func run(ptr, length uint32) uint64 {
	return module.Run(context.Background(), guest.Memory(), ptr, length).Pack()
}

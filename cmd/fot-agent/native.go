//go:build !wasip1

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/nmxmxh/fot_agents/internal/host"
	"github.com/nmxmxh/fot_agents/internal/utils"
)

func main() {
	logger := utils.DefaultLogger(agentName)
	if err := serveOnce(context.Background(), os.Stdin, os.Stdout, logger); err != nil {
		logger.Error("fot-agent failed", utils.Err(err))
		os.Exit(1)
	}
}

// serveOnce answers one request against an in-memory backend.
func serveOnce(ctx context.Context, in io.Reader, out io.Writer, logger *utils.Logger) error {
	backend, err := host.OpenBackend(host.BackendOptions{Graph: host.GraphOptions{InMemory: true}}, logger)
	if err != nil {
		return err
	}
	defer backend.Close()

	module, err := buildModule(backend, logger)
	if err != nil {
		return err
	}
	request, err := io.ReadAll(in)
	if err != nil {
		return utils.WrapError(err, "read request")
	}
	response, err := host.NewInProcess(module).Invoke(ctx, request)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(response))
	return err
}

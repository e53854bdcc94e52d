package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nmxmxh/fot_agents/internal/agents"
	"github.com/nmxmxh/fot_agents/internal/capability"
	"github.com/nmxmxh/fot_agents/internal/config"
	"github.com/nmxmxh/fot_agents/internal/entry"
	"github.com/nmxmxh/fot_agents/internal/host"
	"github.com/nmxmxh/fot_agents/internal/utils"
)

// session is the per-command host: config, logger, backend and the
// resources to close on exit.
type session struct {
	cfg      config.Config
	logger   *utils.Logger
	backend  *host.Backend
	shutdown *utils.GracefulShutdown
}

func openSession(configPath string) (*session, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger("fot-host")

	backend, err := host.OpenBackend(host.BackendOptions{
		Graph:         host.GraphOptions{Path: cfg.Graph.Path, InMemory: cfg.Graph.InMemory},
		EventCapacity: cfg.EventCapacity,
	}, logger)
	if err != nil {
		return nil, err
	}

	s := &session{
		cfg:      cfg,
		logger:   logger,
		backend:  backend,
		shutdown: utils.NewGracefulShutdown(cfg.ShutdownTimeout, logger.Named("shutdown")),
	}
	// stderr cannot be synced on a terminal; that is not a shutdown failure
	s.shutdown.Register(func() error { _ = logger.Sync(); return nil })
	s.shutdown.Register(backend.Close)
	return s, nil
}

func (s *session) close() error {
	return s.shutdown.Shutdown(context.Background())
}

func (s *session) module(name string) (*entry.Module, error) {
	client := capability.NewClient(s.backend, capability.WithLogger(s.logger.Named("capability")))
	agent, err := agents.New(name, agents.Deps{
		Client: client,
		Logger: s.logger,
		Topic:  s.cfg.Agent.Topic,
	})
	if err != nil {
		return nil, err
	}
	return entry.New(agent, s.logger), nil
}

// readRequest takes the request from the argument, or from in when the
// argument is absent or "-".
func readRequest(args []string, in io.Reader) ([]byte, error) {
	if len(args) > 0 && args[0] != "-" {
		return []byte(args[0]), nil
	}
	return io.ReadAll(in)
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "fot-host",
		Short:         "Run FoT agent modules against local graph, metrics and event backends",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config (default $"+config.EnvPath+")")

	root.AddCommand(
		newAgentsCmd(),
		newInvokeCmd(&configPath),
		newRunWasmCmd(&configPath),
	)
	return root
}

func newAgentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "agents",
		Short: "List the agents and their operations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client := capability.NewClient(nopHost{})
			for _, name := range agents.Names() {
				a, err := agents.New(name, agents.Deps{Client: client})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-26s %s\n", name, strings.Join(a.Dispatcher.Operations(), ", "))
			}
			return nil
		},
	}
}

func newInvokeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "invoke <agent> [request|-]",
		Short: "Run one request through an agent in-process",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			s, err := openSession(*configPath)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := s.close(); err == nil {
					err = cerr
				}
			}()

			module, err := s.module(args[0])
			if err != nil {
				return err
			}
			request, err := readRequest(args[1:], cmd.InOrStdin())
			if err != nil {
				return utils.WrapError(err, "read request")
			}
			response, err := host.NewInProcess(module).Invoke(cmd.Context(), request)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(response))
			return err
		},
	}
}

func newRunWasmCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run-wasm <module.wasm> [request|-]",
		Short: "Run one request through a compiled agent module",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			wasmBytes, err := os.ReadFile(args[0])
			if err != nil {
				return utils.WrapError(err, "read module")
			}

			s, err := openSession(*configPath)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := s.close(); err == nil {
					err = cerr
				}
			}()

			rt, err := host.NewRuntime(wasmBytes, s.backend, s.logger.Named("wasm"))
			if err != nil {
				return err
			}
			s.shutdown.Register(rt.Close)

			request, err := readRequest(args[1:], cmd.InOrStdin())
			if err != nil {
				return utils.WrapError(err, "read request")
			}
			response, err := rt.Invoke(cmd.Context(), request)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(response))
			return err
		},
	}
}

// nopHost backs catalog listings, where no operation runs.
type nopHost struct{}

func (nopHost) GraphRead(context.Context, []byte) ([]byte, error)                 { return nil, nil }
func (nopHost) GraphWrite(context.Context, []byte) ([]byte, error)                { return nil, nil }
func (nopHost) RecordResonance(context.Context, string, string, float64) error    { return nil }
func (nopHost) RecordVirtue(context.Context, string, string, float64) error       { return nil }
func (nopHost) EmitEvent(context.Context, string, float64, float64, string) error { return nil }

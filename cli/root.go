package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/santif/openid/config"
	"github.com/santif/openid/message"
	"github.com/santif/openid/observability"
	"github.com/santif/openid/store"
	"github.com/spf13/cobra"
)

// app carries the state shared by all commands of one invocation
type app struct {
	configPath   string
	printMetrics bool
	flags        *config.FlagSource

	cfg      Config
	logger   observability.Logger
	metrics  observability.Metrics
	registry *message.Registry

	openStore func(ctx context.Context, cfg store.Config) (store.Store, error)
}

// ErrEphemeralStore is returned when a command that saves or restores
// messages is configured with the memory store, which is emptied when the
// command exits.
var ErrEphemeralStore = errors.New("store type memory does not outlive a single command; configure redis or postgres")

// NewRootCommand builds the openidmsg command tree
func NewRootCommand() *cobra.Command {
	return newRootCommand(&app{openStore: store.New})
}

func newRootCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "openidmsg",
		Short: "Inspect and build OpenID Authentication messages",
		Long: `openidmsg decodes, encodes and stores OpenID Authentication 2.0 messages.

Messages are read in key-value form or www-form-urlencoded form. Extensions
declared in a message are resolved with the built-in attribute exchange and
simple registration factories.

Configuration is read from --config, OPENID_* environment variables and flags,
in increasing order of precedence.`,
		SilenceUsage:       true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "configuration file (yaml, json or toml)")
	flags.BoolVar(&a.printMetrics, "print-metrics", false, "write collected metrics to stderr when done")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("log-format", "", "log format (json, text)")
	flags.Bool("strict", false, "fail extension resolution on messages without a mode")
	flags.StringSlice("require", nil, "fields a message must carry to be valid")
	flags.StringSlice("disable-extension", nil, "extension type URIs to leave unresolved")
	flags.String("store", "", "store backend (memory, redis, postgres)")

	a.flags = config.NewFlagSource()
	a.flags.AddToCommand(cmd)
	a.flags.Bind("log-level", "observability.logger.level")
	a.flags.Bind("log-format", "observability.logger.format")
	a.flags.Bind("strict", "message.strict_mode")
	a.flags.Bind("require", "message.required_fields")
	a.flags.Bind("disable-extension", "message.disabled_extensions")
	a.flags.Bind("store", "store.type")

	cmd.AddCommand(
		newDecodeCommand(a),
		newEncodeCommand(a),
		newRestoreCommand(a),
		newExtensionsCommand(a),
	)

	return cmd
}

// setup loads the configuration and builds the logger, metrics and registry
func (a *app) setup(cmd *cobra.Command, args []string) error {
	bootstrap := DefaultConfig().Observability.NewLogger(cmd.ErrOrStderr())

	cfg, err := loadConfig(cmd.Context(), a.configPath, a.flags, bootstrap)
	if err != nil {
		return err
	}

	// every log line of one invocation shares a trace ID
	ctx := observability.ContextWithTraceID(cmd.Context(), uuid.NewString())
	cmd.SetContext(ctx)

	a.cfg = cfg
	a.logger = cfg.Observability.NewLogger(cmd.ErrOrStderr()).WithContext(ctx)
	a.metrics = cfg.Observability.NewMetrics()
	a.registry = message.NewRegistry(message.WithRegistryLogger(a.logger))
	for _, typeURI := range cfg.Message.DisabledExtensions {
		if !a.registry.RemoveFactory(typeURI) {
			a.logger.Warn("Cannot disable unknown extension", observability.NewField("type_uri", typeURI))
		}
	}
	observability.SetGlobalLogger(a.logger)

	a.logger.Debug("Configuration loaded",
		observability.NewField("command", cmd.Name()),
		observability.NewField("store", cfg.Store.Type),
		observability.NewField("strict_mode", cfg.Message.StrictMode))
	return nil
}

func (a *app) teardown(cmd *cobra.Command, args []string) error {
	if !a.printMetrics || a.metrics == nil {
		return nil
	}
	return a.metrics.WriteText(cmd.ErrOrStderr())
}

// store opens the configured store for commands that keep messages
// between invocations
func (a *app) store(ctx context.Context) (store.Store, error) {
	if a.cfg.Store.Type == store.TypeMemory {
		return nil, ErrEphemeralStore
	}
	s, err := a.openStore(ctx, a.cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	return s, nil
}

// messageOptions returns the options every message of this invocation is built with
func (a *app) messageOptions() []message.Option {
	return []message.Option{
		message.WithRegistry(a.registry),
		message.WithLogger(a.logger),
		message.WithMetrics(a.metrics),
		message.WithStrictMode(a.cfg.Message.StrictMode),
		message.WithRequiredFields(a.cfg.Message.RequiredFields...),
	}
}

// Execute executes the root command
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

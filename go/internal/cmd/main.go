package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/livechat-docker/livechat/go/internal/tui"
	"github.com/livechat-docker/livechat/go/internal/view"
)

type options struct {
	configPath string
	serverURL  string
	transport  string
	room       string
	debugAddr  string
	logLevel   string
	headless   bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:           "livechat",
		Short:         "Terminal client for ephemeral chat rooms",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := run(cmd.Context(), opts)
			if err != nil {
				log.Error().Err(err).Msg("livechat exited with error")
				fmt.Fprintln(os.Stderr, "error:", err)
			}
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "path to a YAML config file")
	flags.StringVarP(&opts.serverURL, "server", "s", "", "chat server URL (default http://localhost:5000)")
	flags.StringVar(&opts.transport, "transport", "", "event transport: websocket or nats")
	flags.StringVarP(&opts.room, "room", "r", "", "room to join on startup")
	flags.StringVar(&opts.debugAddr, "debug-addr", "", "debug HTTP listen address, \"off\" disables it")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	flags.BoolVar(&opts.headless, "headless", false, "log the chat instead of starting the terminal UI")

	return cmd
}

func (o options) apply(config *Config) {
	if o.serverURL != "" {
		config.Server.URL = o.serverURL
	}
	if o.transport != "" {
		config.Server.Transport = o.transport
	}
	if o.room != "" {
		config.Session.AutoJoinRoom = o.room
	}
	if o.debugAddr != "" {
		config.Debug.Addr = o.debugAddr
	}
	if o.debugAddr == "off" {
		config.Debug.Addr = ""
	}
	if o.logLevel != "" {
		config.Log.Level = o.logLevel
	}
}

func run(parent context.Context, opts options) error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	config, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	config.applyEnv()
	opts.apply(config)
	if err := config.validate(); err != nil {
		return err
	}

	interactive := !opts.headless && isatty.IsTerminal(os.Stdout.Fd())

	closeLog, err := setupLogging(config, interactive)
	if err != nil {
		return err
	}
	defer closeLog()

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	eg, ctx := errgroup.WithContext(ctx)

	var services *Services
	if interactive {
		actions := &sessionActions{}
		program := tea.NewProgram(tui.NewModel(actions), tea.WithAltScreen(), tea.WithContext(ctx))
		services = setupServices(ctx, config, tui.NewView(program))
		actions.services = services

		eg.Go(func() error {
			defer cancel()
			_, err := program.Run()
			if errors.Is(err, tea.ErrProgramKilled) {
				return nil
			}
			return err
		})
	} else {
		services = setupServices(ctx, config, view.NewLogView(log.Logger))
	}

	eg.Go(func() error { return services.Loop.Run(ctx) })
	go probeServer(ctx, services.Directory)
	services.Loop.Post(services.Controller.Start)

	eg.Go(func() error {
		err := services.Transport.Run(ctx)
		if err != nil {
			return fmt.Errorf("transport: %w", err)
		}
		return nil
	})

	if config.Debug.Addr != "" {
		srv := setupDebugServer(config.Debug.Addr, services, config.Server.Transport)
		eg.Go(func() error { return runDebugServer(ctx, srv) })
	}

	log.Info().
		Str("client_id", services.ClientID).
		Bool("interactive", interactive).
		Msg("livechat started")

	return eg.Wait()
}

// setupLogging configures the global zerolog logger. The terminal UI owns the
// screen, so interactive sessions log to a file.
func setupLogging(config *Config, interactive bool) (func(), error) {
	level, err := zerolog.ParseLevel(config.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", config.Log.Level, err)
	}
	zerolog.SetGlobalLevel(level)

	if !interactive {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		return func() {}, nil
	}

	if config.Log.File == "" {
		log.Logger = log.Output(io.Discard)
		return func() {}, nil
	}

	f, err := os.OpenFile(config.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: f, NoColor: true})
	return func() { f.Close() }, nil
}

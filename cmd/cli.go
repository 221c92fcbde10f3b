// SPDX-License-Identifier: MIT
package cmd

import (
	"fmt"
	"os"

	"lipsync/internal/analysis"
	"lipsync/internal/audio"
	"lipsync/internal/config"
	"lipsync/internal/log"
	"lipsync/internal/metrics"
	"lipsync/internal/transport"
	"lipsync/internal/transport/udp"
	"lipsync/pkg/build"

	"github.com/spf13/cobra"
)

// options holds flag values. Flags only override the loaded configuration
// when they were set on the command line.
type options struct {
	configPath string
	logLevel   string

	device     int
	sampleRate float64
	channels   int
	lowLatency bool
	seed       uint64
	confidence float64

	websocket string
	udp       string
	metrics   string
	tui       bool
	pick      bool
	record    bool

	format   string
	realtime bool
}

// Execute runs the command line with os.Args.
func Execute() error {
	return NewRootCommand().Execute()
}

// NewRootCommand builds the command tree. Running the root command without
// a subcommand starts listening.
func NewRootCommand() *cobra.Command {
	buildInfo := build.Get()
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         buildInfo.Description,
		Version:       buildInfo.String(),
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runListen(cmd, opts)
		},
	}
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "f", "",
		"Path to a YAML configuration file (default ./config.yaml if present)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "",
		"Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().Uint64Var(&opts.seed, "seed", 0,
		"Seed for the smoother's random source, 0 for time based")
	rootCmd.PersistentFlags().Float64Var(&opts.confidence, "confidence", analysis.DefaultConfidenceThreshold,
		"Distance below which a new vowel is accepted immediately")

	listenCmd := &cobra.Command{
		Use:   "listen",
		Short: "Estimate vowels from a live input device",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runListen(cmd, opts)
		},
	}
	for _, c := range []*cobra.Command{rootCmd, listenCmd} {
		addListenFlags(c, opts)
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze <file.wav>",
		Short: "Estimate vowels from a WAV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, opts, args[0])
		},
	}
	analyzeCmd.Flags().StringVarP(&opts.format, "format", "o", transport.FormatText,
		"Output format: text or json")
	analyzeCmd.Flags().BoolVar(&opts.realtime, "realtime", false,
		"Pace frames at the file's sample rate and publish to the configured transports")
	analyzeCmd.Flags().StringVar(&opts.websocket, "ws", "", "Also serve estimates over WebSocket on this address")
	analyzeCmd.Flags().StringVar(&opts.udp, "udp", "", "Also send estimate packets to this UDP address")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available audio input devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := setup(opts); err != nil {
				return err
			}
			if err := audio.Initialize(); err != nil {
				return err
			}
			defer audio.Terminate()
			return audio.ListDevices(cmd.OutOrStdout())
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), build.Get())
		},
	}

	rootCmd.AddCommand(listenCmd, analyzeCmd, listCmd, versionCmd)
	return rootCmd
}

func addListenFlags(c *cobra.Command, opts *options) {
	f := c.Flags()
	f.IntVarP(&opts.device, "device", "d", config.DefaultDeviceID,
		"Input device ID, -1 for the system default. Use 'list' to see devices.")
	f.Float64VarP(&opts.sampleRate, "sample-rate", "s", config.DefaultSampleRate,
		"Sample rate, measured in Hertz (Hz)")
	f.IntVarP(&opts.channels, "channels", "c", config.DefaultInputChannels,
		"Number of input channels to capture; they are averaged to mono")
	f.BoolVarP(&opts.lowLatency, "low-latency", "l", false,
		"Use the device's low input latency")
	f.StringVar(&opts.websocket, "ws", "", "Serve estimates over WebSocket on this address")
	f.StringVar(&opts.udp, "udp", "", "Send estimate packets to this UDP address")
	f.StringVar(&opts.metrics, "metrics", "", "Expose Prometheus metrics on this address")
	f.BoolVarP(&opts.tui, "tui", "t", false, "Show the live vowel display")
	f.BoolVarP(&opts.pick, "pick", "p", false, "Choose the input device interactively")
	f.BoolVarP(&opts.record, "record", "r", false, "Record the captured input to WAV")
}

// setup applies the log level before anything else logs.
func setup(opts *options) error {
	level := opts.logLevel
	if level == "" {
		level = os.Getenv(config.EnvPrefix + "LOG_LEVEL")
	}
	if level == "" {
		return nil
	}
	l, ok := log.ParseLevel(level)
	if !ok {
		return fmt.Errorf("invalid log level %q", level)
	}
	log.SetLevel(l)
	return nil
}

// loadConfig reads the configuration and layers explicitly set flags on top.
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	if err := setup(opts); err != nil {
		return nil, err
	}
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	set := flags.Changed
	if set("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if set("seed") {
		cfg.Analysis.Seed = opts.seed
	}
	if set("confidence") {
		cfg.Analysis.ConfidenceThreshold = opts.confidence
	}
	if flags.Lookup("device") != nil {
		if set("device") {
			cfg.Audio.InputDevice = opts.device
		}
		if set("sample-rate") {
			cfg.Audio.SampleRate = opts.sampleRate
		}
		if set("channels") {
			cfg.Audio.InputChannels = opts.channels
		}
		if set("low-latency") {
			cfg.Audio.LowLatency = opts.lowLatency
		}
		if set("metrics") {
			cfg.Metrics.Enabled = opts.metrics != ""
			cfg.Metrics.Address = opts.metrics
		}
		if set("tui") {
			cfg.TUI = opts.tui
		}
		if set("record") {
			cfg.Recording.Enabled = opts.record
		}
	}
	if set("ws") {
		cfg.Transport.WebSocketEnabled = opts.websocket != ""
		cfg.Transport.WebSocketAddress = opts.websocket
	}
	if set("udp") {
		cfg.Transport.UDPEnabled = opts.udp != ""
		cfg.Transport.UDPTargetAddress = opts.udp
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if l, ok := log.ParseLevel(cfg.LogLevel); ok {
		log.SetLevel(l)
	}
	return cfg, nil
}

// newDispatcher wires the network transports enabled in cfg.
func newDispatcher(cfg *config.Config) (*transport.Dispatcher, error) {
	d := transport.NewDispatcher()
	if cfg.Transport.LogEvents {
		d.Add(transport.NewLoggingTransport())
	}
	if cfg.Transport.WebSocketEnabled {
		d.Add(transport.NewWebSocketTransport(cfg.Transport.WebSocketAddress))
	}
	if cfg.Transport.UDPEnabled {
		sender, err := udp.NewSender(cfg.Transport.UDPTargetAddress)
		if err != nil {
			d.Close()
			return nil, err
		}
		pub, err := udp.NewPublisher(sender, cfg.Transport.UDPSendInterval)
		if err != nil {
			sender.Close()
			d.Close()
			return nil, err
		}
		d.Add(pub)
	}
	return d, nil
}

// newMetrics starts the Prometheus endpoint when enabled. The returned stop
// function is always safe to call.
func newMetrics(cfg *config.Config) (*metrics.Metrics, func()) {
	if !cfg.Metrics.Enabled {
		return nil, func() {}
	}
	m := metrics.New(nil)
	srv := m.Serve(cfg.Metrics.Address)
	return m, func() { srv.Close() }
}

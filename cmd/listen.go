// SPDX-License-Identifier: MIT
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lipsync/internal/analysis"
	"lipsync/internal/audio"
	"lipsync/internal/config"
	"lipsync/internal/log"
	"lipsync/internal/tui"
	"lipsync/internal/worker"

	"github.com/spf13/cobra"
)

// drainTimeout bounds how long shutdown waits for queued frames.
const drainTimeout = 2 * time.Second

// runListen captures from an input device until interrupted:
//
//  1. Startup: load config, initialise PortAudio, build the analyzer,
//     transports and worker.
//  2. Capture: the PortAudio callback feeds the worker; the poll loop
//     dispatches estimates to the transports.
//  3. Shutdown: stop capture, drain the worker, close everything.
func runListen(cmd *cobra.Command, opts *options) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	logger := log.New("listen")

	if err := audio.Initialize(); err != nil {
		return err
	}
	defer audio.Terminate()

	if opts.pick {
		sel, err := tui.PickDevice()
		if err != nil {
			return err
		}
		if sel.Cancelled {
			return nil
		}
		cfg.Audio.InputDevice = sel.DeviceID
		cfg.Audio.SampleRate = sel.SampleRate
	}

	analyzer, err := analysis.NewAnalyzer(cfg.Analysis, analysis.DefaultTemplates())
	if err != nil {
		return err
	}

	dispatcher, err := newDispatcher(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := dispatcher.Close(); err != nil {
			logger.Warnf("closing transports: %v", err)
		}
	}()

	var monitor *tui.Monitor
	if cfg.TUI {
		// The display owns the terminal; keep log lines off it.
		log.SetLevel(log.LevelError)
		monitor = tui.NewMonitor(tui.NewMonitorModel(deviceName(cfg), cfg.Analysis.DynamicRange))
		dispatcher.Add(monitor)
	}

	var workerOpts []worker.Option
	m, stopMetrics := newMetrics(cfg)
	defer stopMetrics()
	if m != nil {
		workerOpts = append(workerOpts, worker.WithObserver(m))
	}
	w := worker.New(analyzer, dispatcher, workerOpts...)

	engine, err := audio.NewEngine(cfg, w)
	if err != nil {
		w.Shutdown()
		return err
	}
	if err := engine.StartInputStream(); err != nil {
		w.Shutdown()
		return err
	}

	if cfg.Recording.Enabled {
		if err := os.MkdirAll(cfg.Recording.OutputDir, 0o755); err != nil {
			engine.Close()
			w.Shutdown()
			return fmt.Errorf("create recording dir: %w", err)
		}
		if err := engine.StartRecording(audio.RecordingPath(cfg.Recording.OutputDir, time.Now())); err != nil {
			engine.Close()
			w.Shutdown()
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var runErr error
	if monitor != nil {
		errc := make(chan error, 1)
		go func() { errc <- w.Run(ctx, cfg.Audio.PollInterval) }()
		if err := monitor.Run(); err != nil {
			logger.Errorf("display: %v", err)
		}
		stop()
		runErr = <-errc
	} else {
		logger.Infof("listening, press Ctrl+C to stop")
		runErr = w.Run(ctx, cfg.Audio.PollInterval)
	}

	if err := engine.Close(); err != nil {
		logger.Errorf("closing audio engine: %v", err)
	}
	if n := w.Pending(); n > 0 {
		logger.Infof("draining %d queued frames", n)
	}
	shutdown(w, cfg.Audio.PollInterval)
	logger.Infof("stopped after %d capture callbacks, %d frames dropped", engine.Callbacks(), engine.DroppedFrames())
	if monitor != nil && monitor.Dropped() > 0 {
		logger.Debugf("display skipped %d estimates", monitor.Dropped())
	}

	if errors.Is(runErr, context.Canceled) {
		return nil
	}
	return runErr
}

// shutdown stops the worker and delivers the estimates it still produces.
func shutdown(w *worker.Worker, interval time.Duration) {
	w.Shutdown()
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	if err := w.Run(ctx, interval); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		log.Warnf("worker: %v", err)
	}
}

func deviceName(cfg *config.Config) string {
	if cfg.Audio.InputDevice == config.MinDeviceID {
		return "default input"
	}
	return fmt.Sprintf("device %d", cfg.Audio.InputDevice)
}

// SPDX-License-Identifier: MIT
package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lipsync/internal/analysis"
	"lipsync/internal/audio"
	"lipsync/internal/log"
	"lipsync/internal/transport"
	"lipsync/internal/worker"

	"github.com/spf13/cobra"
)

// runAnalyze estimates vowels for every frame of a WAV file. Timestamps
// are the end of each frame relative to the start of the file.
func runAnalyze(cmd *cobra.Command, opts *options, path string) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	logger := log.New("analyze")

	clip, err := audio.ReadWAV(path)
	if err != nil {
		return err
	}
	if float64(clip.SampleRate) != cfg.Audio.SampleRate {
		logger.Warnf("%s is %d Hz, configured rate is %.0f Hz", path, clip.SampleRate, cfg.Audio.SampleRate)
	}

	analyzer, err := analysis.NewAnalyzer(cfg.Analysis, analysis.DefaultTemplates())
	if err != nil {
		return err
	}
	out, err := transport.NewWriterTransport(cmd.OutOrStdout(), opts.format)
	if err != nil {
		return err
	}
	dispatcher, err := newDispatcher(cfg)
	if err != nil {
		return err
	}
	defer dispatcher.Close()
	dispatcher.Add(out)

	frameSize := cfg.Analysis.FFTSamples
	frameDur := time.Duration(frameSize) * time.Second / time.Duration(clip.SampleRate)
	var elapsed time.Duration
	dispatcher.SetClock(func() time.Time {
		elapsed += frameDur
		return time.Unix(0, int64(elapsed))
	})

	frames := clip.Frames(frameSize)
	logger.Infof("%s: %s, %d channel(s), %d-bit, %d frames",
		path, clip.Duration().Round(time.Millisecond), clip.Channels, clip.BitDepth, len(frames))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := worker.New(analyzer, dispatcher)
	if opts.realtime {
		err = analyzePaced(ctx, w, frames, frameDur, cfg.Audio.PollInterval)
	} else {
		for _, f := range frames {
			if err := w.Submit(f); err != nil {
				break
			}
		}
		w.Shutdown()
		err = w.Run(ctx, cfg.Audio.PollInterval)
	}

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// analyzePaced submits one frame per frame duration, as a live input would.
func analyzePaced(ctx context.Context, w *worker.Worker, frames [][]float32, frameDur, poll time.Duration) error {
	errc := make(chan error, 1)
	go func() { errc <- w.Run(ctx, poll) }()

	ticker := time.NewTicker(frameDur)
	defer ticker.Stop()

submit:
	for _, f := range frames {
		select {
		case <-ctx.Done():
			break submit
		case <-ticker.C:
		}
		if err := w.Submit(f); err != nil {
			break
		}
	}
	w.Shutdown()
	return <-errc
}

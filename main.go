// SPDX-License-Identifier: MIT
package main

import (
	"errors"
	"os"
	"runtime"

	"lipsync/cmd"
	"lipsync/internal/log"
	"lipsync/pkg/build"
)

// main initialises build information and hands over to the command line.
// Live capture runs in three phases, see cmd.runListen: startup (cold),
// capture (the PortAudio callback and the analysis worker are hot) and
// shutdown (cold).
func main() {
	if err := build.Initialize(); err != nil && !errors.Is(err, build.ErrMissingFlags) {
		log.Fatalf("%v", err)
	}

	// One thread for the audio callback, one for analysis, one for I/O.
	runtime.GOMAXPROCS(3)

	if err := cmd.Execute(); err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
}

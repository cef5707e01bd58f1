// Copyright 2020 Matt Layher
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command padboard drives a MIDI pad controller as a soundboard and Spotify
// remote control.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"time"

	"github.com/mdlayher/launchpad"
	"github.com/mdlayher/metricslite"
	"github.com/mdlayher/padboard/internal/action"
	"github.com/mdlayher/padboard/internal/audio"
	"github.com/mdlayher/padboard/internal/board"
	"github.com/mdlayher/padboard/internal/config"
	"github.com/mdlayher/padboard/internal/display"
	"github.com/mdlayher/padboard/internal/mode"
	"github.com/mdlayher/padboard/internal/push"
	"github.com/mdlayher/padboard/internal/spotify"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gitlab.com/gomidi/midi"
	"gitlab.com/gomidi/rtmididrv"
	"golang.org/x/sync/errgroup"
)

func main() {
	var (
		cfgPath     = flag.String("config", "padboard.yaml", "path to the padboard YAML configuration file")
		metricsAddr = flag.String("metrics.addr", "", "override the Prometheus metrics listen address from the config file")
		list        = flag.Bool("list", false, "list MIDI ports and exit")
	)
	flag.Parse()

	ll := log.New(os.Stderr, "", log.LstdFlags)

	driver, err := rtmididrv.New()
	if err != nil {
		ll.Fatalf("failed to open MIDI driver: %v", err)
	}
	defer driver.Close()

	if *list {
		if err := listPorts(driver); err != nil {
			ll.Fatalf("failed to list MIDI ports: %v", err)
		}

		return
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		ll.Fatalf("failed to load config: %v", err)
	}
	if *metricsAddr != "" {
		cfg.Metrics.Addr = *metricsAddr
	}

	mapping, err := cfg.Buttons.Mapping()
	if err != nil {
		ll.Fatalf("failed to build button mapping: %v", err)
	}

	c, err := openController(driver, cfg.MIDI)
	if err != nil {
		ll.Fatalf("failed to open %s controller: %v", cfg.MIDI.Controller, err)
	}
	ll.Printf("controller: %s", c)

	spk, err := audio.OpenSpeaker(cfg.Audio.Device, 0, cfg.Audio.Buffer, ll)
	if err != nil {
		ll.Fatalf("failed to open audio output: %v", err)
	}
	defer spk.Close()

	// Use a context to handle cancelation on signal, or when any of the
	// goroutines below fails.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		// Wait for signals (configurable per-platform) and then cancel the
		// context to indicate that the process should shut down.
		sigC := make(chan os.Signal, 1)
		signal.Notify(sigC, signals()...)

		// Stop handling signals at this point to allow the user to forcefully
		// terminate the binary.
		defer signal.Stop(sigC)

		select {
		case s := <-sigC:
			ll.Printf("received %s, shutting down", s)
			cancel()
		case <-ctx.Done():
		}

		return nil
	})

	// Initialize Prometheus metrics and create a metrics node to pass through
	// the application.
	reg := prometheus.NewPedanticRegistry()
	reg.MustRegister(
		prometheus.NewBuildInfoCollector(),
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)

	mm := newMetrics(metricslite.NewPrometheus(reg))

	if addr := cfg.Metrics.Addr; addr != "" {
		eg.Go(func() error {
			if err := serveHTTP(ctx, addr, reg); err != nil {
				return fmt.Errorf("failed to serve HTTP: %v", err)
			}

			return nil
		})
	} else {
		ll.Println("no metrics listen address configured")
	}

	sys := audio.NewSystem(spk)
	mm.Volume(audio.DefaultVolume)

	loader := action.NewLoader(sys, ll, mm.ActionReloads)
	set, err := loader.LoadFile(cfg.Actions)
	if err != nil {
		ll.Fatalf("failed to load actions: %v", err)
	}
	ll.Printf("loaded %d actions from %q", len(set), cfg.Actions)

	w, err := config.NewWatcher(cfg.Actions, cfg.ReloadDelay, ll)
	if err != nil {
		ll.Fatalf("failed to watch actions: %v", err)
	}

	var (
		changeC = make(chan string)
		setC    = make(chan action.Set, 1)
	)

	eg.Go(func() error {
		if err := w.Watch(ctx, changeC); err != nil {
			return fmt.Errorf("failed to watch %q: %v", w.Path(), err)
		}

		return nil
	})

	eg.Go(func() error {
		return loader.Reload(ctx, changeC, setC)
	})

	modes := []mode.Mode{mode.NewSound(sys, set, setC, ll)}

	// Optionally configure Spotify remote control support.
	if cfg.Spotify.Enabled {
		sw, err := newSpotifyWorker(cfg.Spotify, ll)
		if err != nil {
			ll.Fatalf("failed to configure spotify: %v", err)
		}

		eg.Go(func() error {
			return sw.Run(ctx)
		})

		modes = append(modes, mode.NewRemote(sw, cfg.Spotify.Poll, ll))
	} else {
		ll.Println("no spotify remote control configured")
	}

	bm, err := board.NewButtonMap(c, mapping, sys, modes, ll, &board.Metrics{
		ButtonPresses: mm.ButtonPresses,
		TickErrors:    mm.TickErrors,
		Volume:        mm.Volume,
	})
	if err != nil {
		ll.Fatalf("failed to create button map: %v", err)
	}

	var s display.Surface
	if cfg.Display.PNG != "" {
		s = display.NewFrame(cfg.Display.PNG)
	}

	eg.Go(func() error {
		if err := board.Run(ctx, c, bm, s, cfg.Display.FPS, ll); err != nil {
			return fmt.Errorf("failed to run on %s: %v", c, err)
		}

		return c.Close()
	})

	if err := eg.Wait(); err != nil {
		ll.Fatalf("failed to run: %v", err)
	}
}

// A controller is a board.Controller which can describe itself.
type controller interface {
	board.Controller
	fmt.Stringer
}

// openController opens the pad controller selected by cfg.
func openController(drv midi.Driver, cfg config.MIDIConfig) (controller, error) {
	switch cfg.Controller {
	case config.ControllerPush:
		d, err := push.Find(drv, cfg.Input, cfg.Output)
		if err != nil {
			return nil, err
		}

		return board.NewPush(d), nil
	case config.ControllerLaunchpad:
		devices, err := launchpad.Devices(drv)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch Launchpad devices: %v", err)
		}
		if len(devices) == 0 {
			return nil, errors.New("no Launchpad devices detected")
		}

		// Only the first device is driven.
		for _, d := range devices[1:] {
			_ = d.Close()
		}

		return board.NewLaunchpad(devices[0]), nil
	default:
		return nil, fmt.Errorf("unknown controller %q", cfg.Controller)
	}
}

// newSpotifyWorker creates a Spotify client using the access token stored in
// cfg.TokenFile and wraps it in a Worker.
func newSpotifyWorker(cfg config.SpotifyConfig, ll *log.Logger) (*spotify.Worker, error) {
	b, err := os.ReadFile(cfg.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	token := strings.TrimSpace(string(b))
	if token == "" {
		return nil, fmt.Errorf("token file %q is empty", cfg.TokenFile)
	}

	c, err := spotify.NewClient(cfg.APIURL, token, nil)
	if err != nil {
		return nil, err
	}

	return spotify.NewWorker(c, 5*time.Second, ll), nil
}

// listPorts prints every MIDI input and output port known to drv.
func listPorts(drv midi.Driver) error {
	ins, err := drv.Ins()
	if err != nil {
		return fmt.Errorf("failed to get inputs: %v", err)
	}

	outs, err := drv.Outs()
	if err != nil {
		return fmt.Errorf("failed to get outputs: %v", err)
	}

	for _, in := range ins {
		fmt.Printf("input:  %02d: %q\n", in.Number(), in.String())
	}
	for _, out := range outs {
		fmt.Printf("output: %02d: %q\n", out.Number(), out.String())
	}

	return nil
}

// serveHTTP starts the padboard HTTP server on addr and serves until ctx
// is canceled.
func serveHTTP(ctx context.Context, addr string, reg *prometheus.Registry) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{
		ReadTimeout: 1 * time.Second,
		Handler:     mux,
	}

	// Listener ready, wait for cancelation via context and serve
	// the HTTP server until context is canceled, then immediately
	// close the server.
	var wg sync.WaitGroup
	wg.Add(1)
	defer wg.Wait()

	go func() {
		defer wg.Done()
		<-ctx.Done()
		_ = srv.Close()
	}()

	if err := srv.Serve(l); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

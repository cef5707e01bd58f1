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

package config

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/mdlayher/schedgroup"
)

// A Watcher reports changes to a single file. The file's directory is watched
// so that editors which save by renaming a temporary file are detected.
type Watcher struct {
	path  string
	delay time.Duration
	ll    *log.Logger
	fw    *fsnotify.Watcher
}

// NewWatcher creates a Watcher for path which reports a change once the file
// has not been modified for delay.
func NewWatcher(path string, delay time.Duration, ll *log.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve watched path: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	if err := fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("failed to watch %q: %w", filepath.Dir(abs), err)
	}

	return &Watcher{
		path:  abs,
		delay: delay,
		ll:    ll,
		fw:    fw,
	}, nil
}

// Path returns the absolute path of the watched file.
func (w *Watcher) Path() string { return w.path }

// Watch sends the watched path on changeC after each burst of changes to the
// file until ctx is canceled. The Watcher is closed when Watch returns.
func (w *Watcher) Watch(ctx context.Context, changeC chan<- string) error {
	defer w.fw.Close()

	sg := schedgroup.New(ctx)

	// Each change schedules a notification, but only the notification for
	// the latest change fires.
	var (
		mu  sync.Mutex
		gen uint64
	)

	for {
		select {
		case <-ctx.Done():
			// Don't care about context cancelation error.
			_ = sg.Wait()
			return nil
		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}

			w.ll.Printf("error watching %q: %v", w.path, err)
		case ev, ok := <-w.fw.Events:
			if !ok {
				return nil
			}

			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			mu.Lock()
			gen++
			g := gen
			mu.Unlock()

			sg.Delay(w.delay, func() {
				mu.Lock()
				latest := g == gen
				mu.Unlock()
				if !latest {
					return
				}

				select {
				case changeC <- w.path:
				case <-ctx.Done():
				}
			})
		}
	}
}

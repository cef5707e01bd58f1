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

package action

import (
	"context"
	"log"
	"sort"

	"github.com/mdlayher/metricslite"
	"github.com/mdlayher/padboard/internal/audio"
	"github.com/mdlayher/padboard/internal/config"
)

// A Set is a complete set of Actions keyed by pad name.
type Set map[string]*Action

// Pads returns the pad names of the Set in sorted order.
func (s Set) Pads() []string {
	pads := make([]string, 0, len(s))
	for p := range s {
		pads = append(pads, p)
	}

	sort.Strings(pads)
	return pads
}

// Stop stops every Action in the Set.
func (s Set) Stop() {
	for _, a := range s {
		a.Stop()
	}
}

// A Loader builds Sets from actions files.
type Loader struct {
	sys     *audio.System
	ll      *log.Logger
	reloads metricslite.Counter
}

// NewLoader creates a Loader which binds sounds to sys. If reloads is not
// nil, it is incremented with a "success" or "error" label for each reload.
func NewLoader(sys *audio.System, ll *log.Logger, reloads metricslite.Counter) *Loader {
	return &Loader{
		sys:     sys,
		ll:      ll,
		reloads: reloads,
	}
}

// Load builds a Set from acs. A sound which cannot be loaded is logged and
// omitted from the Set rather than failing the whole load.
func (l *Loader) Load(acs []config.ActionConfig) Set {
	set := make(Set, len(acs))
	for _, ac := range acs {
		switch {
		case ac.Sound != nil:
			s, err := audio.LoadSample(ac.Sound.Path)
			if err != nil {
				l.ll.Printf("pad %q: omitting sound: %v", ac.Pad, err)
				continue
			}

			set[ac.Pad] = FromSound(NewSound(l.sys, s, SoundOptions{
				Loop:    ac.Sound.Loop,
				FadeIn:  ac.Sound.FadeIn,
				FadeOut: ac.Sound.FadeOut,
				Gain:    ac.Sound.Gain,
			}))
		case ac.Command != nil:
			set[ac.Pad] = FromCommand(NewCommand(ac.Command.Path, ac.Command.Args, l.ll))
		}
	}

	return set
}

// LoadFile parses the actions file at path and builds a Set from it.
func (l *Loader) LoadFile(path string) (Set, error) {
	acs, err := config.LoadActions(path)
	if err != nil {
		return nil, err
	}

	return l.Load(acs), nil
}

// Reload loads a new Set for each path received on changeC and sends it on
// setC until ctx is canceled. Files which fail to parse are logged and
// skipped so the current Set stays in use.
func (l *Loader) Reload(ctx context.Context, changeC <-chan string, setC chan<- Set) error {
	for {
		var path string
		select {
		case <-ctx.Done():
			return nil
		case path = <-changeC:
		}

		set, err := l.LoadFile(path)
		if err != nil {
			l.count("error")
			l.ll.Printf("failed to reload actions, keeping current actions: %v", err)
			continue
		}

		l.count("success")
		l.ll.Printf("reloaded %d actions from %q", len(set), path)

		select {
		case <-ctx.Done():
			set.Stop()
			return nil
		case setC <- set:
		}
	}
}

func (l *Loader) count(result string) {
	if l.reloads != nil {
		l.reloads(result)
	}
}

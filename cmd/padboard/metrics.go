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

package main

import "github.com/mdlayher/metricslite"

// metrics contains the metrics for a padboard process.
type metrics struct {
	Info metricslite.Gauge

	ButtonPresses metricslite.Counter
	TickErrors    metricslite.Counter
	ActionReloads metricslite.Counter
	Volume        metricslite.Gauge
}

// newMetrics initializes metrics using the input metricslite.Interface.
func newMetrics(mm metricslite.Interface) *metrics {
	m := &metrics{
		Info: mm.Gauge(
			"padboard_build_info",
			"Metadata about this build of padboard.",
			"version",
		),

		ButtonPresses: mm.Counter(
			"padboard_button_presses_total",
			"The number of button presses and encoder movements handled, by kind of button.",
			"kind",
		),

		TickErrors: mm.Counter(
			"padboard_tick_errors_total",
			"The number of errors which occurred during a tick of the main loop, by stage.",
			"stage",
		),

		ActionReloads: mm.Counter(
			"padboard_action_reloads_total",
			"The number of times the actions file was reloaded, by result.",
			"result",
		),

		Volume: mm.Gauge(
			"padboard_volume",
			"The global playback volume, where 100 is unity gain.",
		),
	}

	m.Info(1, "development")

	return m
}

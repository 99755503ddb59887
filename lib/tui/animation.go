// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"time"

	"github.com/charmbracelet/lipgloss"
)

// HeatDecayDuration is how long a row glows after a change.
// Heat starts at 1.0 and decays linearly to 0.0 over this duration.
const HeatDecayDuration = 5 * time.Second

// HeatTickInterval is the re-render interval while any row is hot.
const HeatTickInterval = 100 * time.Millisecond

// HeatKind distinguishes changes for color selection.
type HeatKind int

const (
	// HeatPut marks a row whose content changed.
	HeatPut HeatKind = iota
	// HeatNew marks a row that was not present before.
	HeatNew
)

type heatEntry struct {
	ignition time.Time
	kind     HeatKind
}

// HeatTracker maps row keys to ignition times. Each change ignites a
// row, which then decays to zero over [HeatDecayDuration]. Not safe
// for concurrent use: the bubbletea model owns it.
type HeatTracker struct {
	entries map[string]heatEntry
}

// NewHeatTracker creates an empty heat tracker.
func NewHeatTracker() *HeatTracker {
	return &HeatTracker{
		entries: make(map[string]heatEntry),
	}
}

// Ignite records a change. Re-igniting a hot row restarts its decay.
func (tracker *HeatTracker) Ignite(key string, kind HeatKind, now time.Time) {
	tracker.entries[key] = heatEntry{ignition: now, kind: kind}
}

// Heat returns the intensity for a row: 1.0 at ignition, 0.0 once
// [HeatDecayDuration] has passed or if it was never ignited.
func (tracker *HeatTracker) Heat(key string, now time.Time) float64 {
	entry, exists := tracker.entries[key]
	if !exists {
		return 0.0
	}
	elapsed := now.Sub(entry.ignition)
	if elapsed >= HeatDecayDuration {
		return 0.0
	}
	return 1.0 - float64(elapsed)/float64(HeatDecayDuration)
}

// Kind returns how a row was last ignited. Only meaningful while Heat
// is positive.
func (tracker *HeatTracker) Kind(key string) HeatKind {
	entry, exists := tracker.entries[key]
	if !exists {
		return HeatPut
	}
	return entry.kind
}

// HasHot reports whether any row still has heat, meaning the tick
// should keep running. Fully decayed entries are dropped.
func (tracker *HeatTracker) HasHot(now time.Time) bool {
	hot := false
	for key, entry := range tracker.entries {
		if now.Sub(entry.ignition) < HeatDecayDuration {
			hot = true
			continue
		}
		delete(tracker.entries, key)
	}
	return hot
}

// Reset forgets every ignition, e.g. when the row set is replaced
// wholesale by an environment switch.
func (tracker *HeatTracker) Reset() {
	clear(tracker.entries)
}

// TintRow paints a rendered row with the accent for its heat kind,
// padded to width. Rows with no heat are returned unchanged.
func (tracker *HeatTracker) TintRow(theme Theme, key, row string, width int, now time.Time) string {
	if tracker.Heat(key, now) <= 0 {
		return row
	}
	accent := theme.HotAccentPut
	if tracker.Kind(key) == HeatNew {
		accent = theme.HotAccentNew
	}
	return lipgloss.NewStyle().
		Background(accent).
		Width(width).
		MaxWidth(width).
		Render(row)
}

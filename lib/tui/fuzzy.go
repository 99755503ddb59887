// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"slices"
	"strings"

	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"
)

// fzf's character-class and bonus tables are only populated by Init;
// without it, case-insensitive matching misses uppercase text.
func init() {
	algo.Init("default")
}

// FuzzyResult is the outcome of matching a pattern against one string.
type FuzzyResult struct {
	// Score is positive for a match and zero otherwise. Higher is a
	// better match.
	Score int

	// Positions are the rune indexes of matched characters, ascending.
	Positions []int
}

// Matched reports whether the pattern matched.
func (result FuzzyResult) Matched() bool {
	return result.Score > 0
}

// FuzzyPattern lowercases a filter query into the rune form
// [FuzzyMatch] expects. Surrounding whitespace is dropped.
func FuzzyPattern(query string) []rune {
	return []rune(strings.ToLower(strings.TrimSpace(query)))
}

// FuzzyMatch runs fzf's V2 algorithm over text, case-insensitively.
// The pattern must already be lowercase (see [FuzzyPattern]). An
// empty pattern matches nothing. A nil slab allocates per call; pass
// one from util.MakeSlab when matching many rows.
func FuzzyMatch(text string, pattern []rune, slab *util.Slab) FuzzyResult {
	if len(pattern) == 0 || text == "" {
		return FuzzyResult{}
	}
	chars := util.ToChars([]byte(text))
	result, positions := algo.FuzzyMatchV2(false, true, true, &chars, pattern, true, slab)
	if result.Start < 0 || result.Score <= 0 {
		return FuzzyResult{}
	}
	var sorted []int
	if positions != nil {
		sorted = slices.Clone(*positions)
		slices.Sort(sorted)
	}
	return FuzzyResult{Score: result.Score, Positions: sorted}
}

// HighlightPositions styles the runes of text at positions with
// render, leaving the rest with plain. Consecutive highlighted runes
// are rendered as one segment.
func HighlightPositions(text string, positions []int, plain, render func(string) string) string {
	if len(positions) == 0 {
		return plain(text)
	}
	marked := make(map[int]bool, len(positions))
	for _, position := range positions {
		marked[position] = true
	}

	var out strings.Builder
	var segment []rune
	segmentMarked := false
	flush := func() {
		if len(segment) == 0 {
			return
		}
		if segmentMarked {
			out.WriteString(render(string(segment)))
		} else {
			out.WriteString(plain(string(segment)))
		}
		segment = segment[:0]
	}
	for index, character := range []rune(text) {
		if marked[index] != segmentMarked {
			flush()
			segmentMarked = marked[index]
		}
		segment = append(segment, character)
	}
	flush()
	return out.String()
}

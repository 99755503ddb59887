// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dashboard

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"

	"github.com/bureau-foundation/flagdash/lib/featureflag"
	"github.com/bureau-foundation/flagdash/lib/tui"
)

func filterRows() []Row {
	return BuildRows([]featureflag.Flag{
		{ID: featureflag.Int64(1), FlagKey: "new-ui", Name: "New UI"},
		{ID: featureflag.Int64(2), FlagKey: "dark-mode", Name: "Dark mode"},
		{ID: featureflag.Int64(3), FlagKey: "checkout-v2", Name: "Faster checkout"},
	})
}

func typeQuery(filter *FilterModel, query string) {
	filter.Activate()
	filter.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(query)})
}

func TestFilterEmptyQueryMatchesAll(t *testing.T) {
	filter := NewFilterModel(tui.DefaultTheme)
	indexes, matches := filter.Apply(filterRows())

	if diff := cmp.Diff([]int{0, 1, 2}, indexes); diff != "" {
		t.Errorf("indexes mismatch (-want +got):\n%s", diff)
	}
	if matches != nil {
		t.Errorf("no highlights expected, got %v", matches)
	}
}

func TestFilterMatchesKeyOrName(t *testing.T) {
	filter := NewFilterModel(tui.DefaultTheme)
	typeQuery(&filter, "fast")

	indexes, matches := filter.Apply(filterRows())
	if diff := cmp.Diff([]int{2}, indexes); diff != "" {
		t.Errorf("indexes mismatch (-want +got):\n%s", diff)
	}
	match := matches["3"]
	if len(match.Name) == 0 || len(match.Key) != 0 {
		t.Errorf("match should highlight the name only, got %+v", match)
	}
}

func TestFilterKeepsTableOrder(t *testing.T) {
	filter := NewFilterModel(tui.DefaultTheme)
	typeQuery(&filter, "e")

	indexes, _ := filter.Apply(filterRows())
	for position := 1; position < len(indexes); position++ {
		if indexes[position] < indexes[position-1] {
			t.Fatalf("filtered rows should keep table order, got %v", indexes)
		}
	}
	if len(indexes) != 3 {
		t.Errorf("every row contains an e, got %v", indexes)
	}
}

func TestFilterClear(t *testing.T) {
	filter := NewFilterModel(tui.DefaultTheme)
	typeQuery(&filter, "dark")
	if filter.Query() != "dark" || !filter.Active {
		t.Fatalf("query = %q active = %t", filter.Query(), filter.Active)
	}

	filter.Deactivate()
	if filter.Query() != "dark" {
		t.Error("Deactivate keeps the query")
	}
	filter.Clear()
	if filter.Query() != "" || filter.Active {
		t.Error("Clear empties the query and deactivates")
	}
}

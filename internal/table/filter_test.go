package table

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateFilters(t *testing.T) {
	t.Run("setting a value adds the entry", func(t *testing.T) {
		got := UpdateFilters(Filters{}, "b", FilterValue{Value: 5, Operator: OpEqual})
		assert.Equal(t, Filters{"b": {Value: 5, Operator: OpEqual}}, got)
	})

	t.Run("empty string removes the entry", func(t *testing.T) {
		existing := Filters{"a": {Value: "x", Operator: OpEqual}}
		got := UpdateFilters(existing, "a", FilterValue{Value: "", Operator: OpEqual})
		assert.Empty(t, got)
		// The input map is not mutated.
		assert.Len(t, existing, 1)
	})

	t.Run("nil value removes the entry", func(t *testing.T) {
		got := UpdateFilters(Filters{"a": {Value: "x"}}, "a", FilterValue{})
		assert.Empty(t, got)
	})

	t.Run("empty list removes the entry", func(t *testing.T) {
		got := UpdateFilters(Filters{"a": {Value: "x"}}, "a", FilterValue{Value: []any{}, Operator: OpIn})
		assert.Empty(t, got)
	})

	t.Run("range with both ends empty removes the entry", func(t *testing.T) {
		got := UpdateFilters(Filters{"a": {Value: "x"}}, "a", FilterValue{Value: Range{}, Operator: OpBetween})
		assert.Empty(t, got)
	})

	t.Run("half-open range stays", func(t *testing.T) {
		got := UpdateFilters(Filters{}, "a", FilterValue{Value: Range{From: "2026-01-01"}, Operator: OpBetween})
		assert.Len(t, got, 1)
	})

	t.Run("empty-valued object removes the entry", func(t *testing.T) {
		got := UpdateFilters(Filters{"a": {Value: "x"}}, "a", FilterValue{
			Value: map[string]any{"from": "", "to": nil}, Operator: OpBetween,
		})
		assert.Empty(t, got)
	})

	t.Run("zero number is a real value", func(t *testing.T) {
		got := UpdateFilters(Filters{}, "count", FilterValue{Value: 0, Operator: OpEqual})
		assert.Len(t, got, 1)
	})
}

func TestFiltersSerialize(t *testing.T) {
	t.Run("empty map serializes to empty string", func(t *testing.T) {
		s, err := Filters{}.Serialize()
		require.NoError(t, err)
		assert.Equal(t, "", s)
	})

	t.Run("bare entries default to contains", func(t *testing.T) {
		s, err := Filters{"title": {Value: "go"}}.Serialize()
		require.NoError(t, err)

		var decoded map[string]FilterValue
		require.NoError(t, json.Unmarshal([]byte(s), &decoded))
		assert.Equal(t, OpContains, decoded["title"].Operator)
		assert.Equal(t, "go", decoded["title"].Value)
	})

	t.Run("declared operators survive", func(t *testing.T) {
		s, err := Filters{"count": {Value: 5, Operator: OpGreaterThan}}.Serialize()
		require.NoError(t, err)

		var decoded map[string]FilterValue
		require.NoError(t, json.Unmarshal([]byte(s), &decoded))
		assert.Equal(t, OpGreaterThan, decoded["count"].Operator)
	})
}

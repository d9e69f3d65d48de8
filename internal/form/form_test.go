package form

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/backoffice/internal/schema"
)

func TestToFormValuesMultiselect(t *testing.T) {
	col := schema.Column{
		Key: "roles", Type: schema.TypeMultiselect,
		Options: []schema.Option{{Value: "1", Label: "Admin"}},
	}

	t.Run("scalar ids look up their option label", func(t *testing.T) {
		values := ToFormValues(schema.Row{"roles": []any{"1"}}, []schema.Column{col})
		assert.Equal(t, []schema.Item{{ID: "1", Name: "Admin"}}, values["roles"])
	})

	t.Run("object entries keep their name", func(t *testing.T) {
		values := ToFormValues(schema.Row{
			"roles": []any{map[string]any{"id": "2", "name": "Editor"}},
		}, []schema.Column{col})
		assert.Equal(t, []schema.Item{{ID: "2", Name: "Editor"}}, values["roles"])
	})

	t.Run("duration and timeframe derive a display name", func(t *testing.T) {
		values := ToFormValues(schema.Row{
			"roles": []any{map[string]any{"id": "3", "duration": float64(7), "timeframe": "days"}},
		}, []schema.Column{col})
		assert.Equal(t, []schema.Item{{ID: "3", Name: "7 days"}}, values["roles"])
	})

	t.Run("json string payloads are decoded", func(t *testing.T) {
		values := ToFormValues(schema.Row{"roles": `["1"]`}, []schema.Column{col})
		assert.Equal(t, []schema.Item{{ID: "1", Name: "Admin"}}, values["roles"])
	})

	t.Run("missing value yields empty list", func(t *testing.T) {
		values := ToFormValues(schema.Row{}, []schema.Column{col})
		assert.Equal(t, []schema.Item{}, values["roles"])
	})
}

func TestToFormValuesSelect(t *testing.T) {
	t.Run("object cells extract the configured id key", func(t *testing.T) {
		col := schema.Column{Key: "category", Type: schema.TypeSelect, IDKey: "categoryId"}
		values := ToFormValues(schema.Row{
			"category": map[string]any{"categoryId": float64(9), "name": "News"},
		}, []schema.Column{col})
		assert.Equal(t, "9", values["category"])
	})

	t.Run("scalar cells stringify", func(t *testing.T) {
		col := schema.Column{Key: "category", Type: schema.TypeSelect}
		values := ToFormValues(schema.Row{"category": float64(4)}, []schema.Column{col})
		assert.Equal(t, "4", values["category"])
	})

	t.Run("missing cells default to empty string", func(t *testing.T) {
		col := schema.Column{Key: "category", Type: schema.TypeSelect}
		values := ToFormValues(schema.Row{}, []schema.Column{col})
		assert.Equal(t, "", values["category"])
	})
}

func TestToFormValuesDate(t *testing.T) {
	col := schema.Column{Key: "publishedAt", Type: schema.TypeDate}

	values := ToFormValues(schema.Row{"publishedAt": "2026-08-28T10:30:00Z"}, []schema.Column{col})
	assert.Equal(t, "2026-08-28", values["publishedAt"])

	values = ToFormValues(schema.Row{
		"publishedAt": time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
	}, []schema.Column{col})
	assert.Equal(t, "2026-01-02", values["publishedAt"])

	values = ToFormValues(schema.Row{}, []schema.Column{col})
	assert.Equal(t, "", values["publishedAt"])
}

func TestToFormValuesMisc(t *testing.T) {
	columns := []schema.Column{
		{Key: "tags", Type: schema.TypeTags},
		{Key: "logo", Type: schema.TypeImage},
		{Key: "fields", Type: schema.TypeCustomFields},
		{Key: "rating", Type: schema.TypeRating},
		{Key: "title", Type: schema.TypeText},
	}

	values := ToFormValues(schema.Row{
		"tags":   []any{"go", "sql"},
		"fields": `[{"name":"phone","title":"Phone","type":"input","required":false}]`,
		"rating": float64(4),
	}, columns)

	assert.Equal(t, []string{"go", "sql"}, values["tags"])
	assert.Nil(t, values["logo"])
	require.Len(t, values["fields"], 1)
	assert.Equal(t, float64(4), values["rating"])
	assert.Equal(t, "", values["title"])
}

func TestToFormValuesCompound(t *testing.T) {
	col := schema.Column{
		Key: "author", Type: schema.TypeCompound,
		Compound: &schema.CompoundConfig{
			Image:     &schema.CompoundImage{Key: "avatar"},
			Primary:   &schema.CompoundPrimary{Keys: []string{"firstName", "lastName"}},
			Secondary: &schema.CompoundSecondary{Key: "email"},
			Metadata: []schema.MetadataField{
				{Key: "roles", Type: schema.TypeMultiselect, Options: []schema.Option{{Value: "1", Label: "Admin"}}},
			},
		},
	}

	values := ToFormValues(schema.Row{
		"avatar":    "/img/a.png",
		"firstName": "Ada",
		"roles":     []any{"1"},
	}, []schema.Column{col})

	assert.Equal(t, "/img/a.png", values["avatar"])
	assert.Equal(t, "Ada", values["firstName"])
	assert.Equal(t, "", values["lastName"])
	assert.Equal(t, "", values["email"])
	assert.Equal(t, []schema.Item{{ID: "1", Name: "Admin"}}, values["roles"])
}

func TestToWireValues(t *testing.T) {
	t.Run("multiselect round trip", func(t *testing.T) {
		col := schema.Column{
			Key: "roles", Type: schema.TypeMultiselect,
			Options: []schema.Option{{Value: "1", Label: "Admin"}},
		}
		formValues := ToFormValues(schema.Row{"roles": []any{"1"}}, []schema.Column{col})
		wire := ToWireValues(formValues, []schema.Column{col})
		assert.Equal(t, []string{"1"}, wire["roles"])
	})

	t.Run("select object collapses to id", func(t *testing.T) {
		col := schema.Column{Key: "category", Type: schema.TypeSelect}
		wire := ToWireValues(map[string]any{
			"category": map[string]any{"id": "9", "name": "News"},
		}, []schema.Column{col})
		assert.Equal(t, "9", wire["category"])
	})

	t.Run("tags default to empty list", func(t *testing.T) {
		col := schema.Column{Key: "tags", Type: schema.TypeTags}
		wire := ToWireValues(map[string]any{}, []schema.Column{col})
		assert.Equal(t, []string{}, wire["tags"])
	})

	t.Run("base key re-keys the value", func(t *testing.T) {
		col := schema.Column{Key: "authorName", Type: schema.TypeText, BaseKey: "author"}
		wire := ToWireValues(map[string]any{"authorName": "Ada"}, []schema.Column{col})
		assert.Equal(t, "Ada", wire["author"])
		_, ok := wire["authorName"]
		assert.False(t, ok)
	})

	t.Run("optional empties are pruned", func(t *testing.T) {
		cols := []schema.Column{
			{Key: "subtitle", Type: schema.TypeText, Optional: true},
			{Key: "count", Type: schema.TypeNumber, Optional: true},
			{Key: "rating", Type: schema.TypeRating, Optional: true},
		}
		wire := ToWireValues(map[string]any{
			"subtitle": "",
			"count":    nil,
			"rating":   "",
		}, cols)
		_, ok := wire["subtitle"]
		assert.False(t, ok)
		_, ok = wire["count"]
		assert.False(t, ok)
		// Rating keeps non-nil values, even an empty string.
		_, ok = wire["rating"]
		assert.True(t, ok)
	})

	t.Run("compound subfields prune like flat optionals", func(t *testing.T) {
		col := schema.Column{
			Key: "author", Type: schema.TypeCompound,
			Compound: &schema.CompoundConfig{
				Primary:   &schema.CompoundPrimary{Keys: []string{"firstName"}, Required: true},
				Secondary: &schema.CompoundSecondary{Key: "email"},
			},
		}
		wire := ToWireValues(map[string]any{"firstName": "Ada", "email": ""}, []schema.Column{col})
		assert.Equal(t, "Ada", wire["firstName"])
		_, ok := wire["email"]
		assert.False(t, ok)
	})
}

func TestJSONListCodec(t *testing.T) {
	list, ok := DecodeJSONList(`[{"name":"phone"}]`)
	require.True(t, ok)
	require.Len(t, list, 1)

	_, ok = DecodeJSONList("not json")
	assert.False(t, ok)

	s, err := EncodeJSONList([]string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, `["a","b"]`, s)

	round, ok := DecodeJSONList(s)
	require.True(t, ok)
	assert.Equal(t, []any{"a", "b"}, round)
}

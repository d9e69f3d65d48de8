package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvedSortKey(t *testing.T) {
	tests := []struct {
		name string
		col  Column
		want string
	}{
		{
			name: "plain column uses its own key unprefixed",
			col:  Column{Key: "status", Type: TypeText, Sortable: true},
			want: "status",
		},
		{
			name: "explicit scalar sort key is trusted verbatim",
			col:  Column{Key: "author", Type: TypeText, SortKey: []string{"author.user.lastName"}},
			want: "author.user.lastName",
		},
		{
			name: "explicit multi key is prefixed and comma joined",
			col:  Column{Key: "user", Type: TypeCompound, SortKey: []string{"firstName", "lastName"}},
			want: "user.firstName,user.lastName",
		},
		{
			name: "explicit multi key honors disabled prefixing",
			col: Column{
				Key: "user", Type: TypeCompound, DisablePrefixSort: true,
				SortKey: []string{"firstName", "lastName"},
			},
			want: "firstName,lastName",
		},
		{
			name: "compound falls back to first primary key",
			col: Column{
				Key: "user", Type: TypeCompound,
				Compound: &CompoundConfig{Primary: &CompoundPrimary{
					Keys:   []string{"firstName", "lastName"},
					Titles: []string{"First Name", "Last Name"},
				}},
			},
			want: "user.firstName",
		},
		{
			name: "compound prefers explicit primary sort key",
			col: Column{
				Key: "user", Type: TypeCompound,
				Compound: &CompoundConfig{Primary: &CompoundPrimary{
					Keys:    []string{"firstName"},
					SortKey: []string{"fullName"},
				}},
			},
			want: "user.fullName",
		},
		{
			name: "compound without primary keys falls back to column key",
			col: Column{
				Key: "profile", Type: TypeCompound,
				Compound: &CompoundConfig{Primary: &CompoundPrimary{}},
			},
			want: "profile.profile",
		},
		{
			name: "custom type is prefixed even with prefixing disabled",
			col:  Column{Key: "status", Type: TypeCustom, DisablePrefixSort: true},
			want: "status.status",
		},
		{
			name: "compound honors disabled prefixing",
			col: Column{
				Key: "user", Type: TypeCompound, DisablePrefixSort: true,
				Compound: &CompoundConfig{Primary: &CompoundPrimary{Keys: []string{"firstName"}}},
			},
			want: "firstName",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.col.ResolvedSortKey())
		})
	}
}

func TestSortableFields(t *testing.T) {
	no := false
	columns := []Column{
		{Key: "title", Title: "Title", Type: TypeText, Sortable: true},
		{Key: "status", Title: "Status", Type: TypeSelect, Sortable: false},
		{
			Key: "author", Title: "Author", Type: TypeCompound, Sortable: true,
			Compound: &CompoundConfig{
				Primary: &CompoundPrimary{
					Keys:   []string{"firstName", "lastName"},
					Titles: []string{"First Name", "Last Name"},
				},
				Secondary: &CompoundSecondary{Key: "email", Title: "Email"},
				Metadata: []MetadataField{
					{Key: "role", Title: "Role"},
					{Key: "loginCount", Title: "Logins", Sortable: &no},
				},
			},
		},
	}

	fields := SortableFields(columns)
	require.Len(t, fields, 4)

	assert.Equal(t, SortField{ID: "title", Label: "Title"}, fields[0])
	assert.Equal(t, SortField{ID: "author.firstName", Label: "Author (First Name)"}, fields[1])
	assert.Equal(t, SortField{ID: "author.email", Label: "Author (Email)"}, fields[2])
	assert.Equal(t, SortField{ID: "author.role", Label: "Author (Role)"}, fields[3])
}

func TestRowPath(t *testing.T) {
	row := Row{
		"id":    "42",
		"title": "hello",
		"author": map[string]any{
			"user": map[string]any{"firstName": "Ada"},
		},
	}

	v, ok := row.Path("author.user.firstName")
	require.True(t, ok)
	assert.Equal(t, "Ada", v)

	_, ok = row.Path("author.user.missing")
	assert.False(t, ok)

	_, ok = row.Path("title.nested")
	assert.False(t, ok)

	v, ok = row.Path("title")
	require.True(t, ok)
	assert.Equal(t, "hello", v)
}

func TestStringify(t *testing.T) {
	assert.Equal(t, "", Stringify(nil))
	assert.Equal(t, "7", Stringify(float64(7)))
	assert.Equal(t, "7.5", Stringify(7.5))
	assert.Equal(t, "true", Stringify(true))
	assert.Equal(t, "x", Stringify("x"))
	assert.Equal(t, "9", Stringify(9))
}

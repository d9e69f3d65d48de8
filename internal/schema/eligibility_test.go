package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormEligible(t *testing.T) {
	t.Run("flat column gates on mode flag", func(t *testing.T) {
		col := Column{Key: "title", Type: TypeText, UsedInCreate: true, Editable: false}
		assert.True(t, col.FormEligible(ModeCreate))
		assert.False(t, col.FormEligible(ModeEdit))
	})

	t.Run("actions and internal select are never form fields", func(t *testing.T) {
		assert.False(t, Column{Key: "actions", Type: TypeActions}.FormEligible(ModeCreate))
		assert.False(t, Column{Key: "select", Type: TypeSelectInternal}.FormEligible(ModeEdit))
	})

	t.Run("compound needs at least one eligible subfield", func(t *testing.T) {
		col := Column{
			Key: "user", Type: TypeCompound,
			Compound: &CompoundConfig{
				Primary:  &CompoundPrimary{Keys: []string{"firstName"}, Editable: true},
				Metadata: []MetadataField{{Key: "role", Title: "Role", Editable: true}},
			},
		}
		// Edit-only subfields leave the create pass with nothing to render.
		assert.False(t, col.FormEligible(ModeCreate))
		assert.True(t, col.FormEligible(ModeEdit))
	})
}

func TestFormFields(t *testing.T) {
	columns := []Column{
		{Key: "title", Title: "Title", Type: TypeText, UsedInCreate: true, Required: true},
		{Key: "notes", Title: "Notes", Type: TypeTextarea, Editable: true},
		{Key: "actions", Type: TypeActions},
		{
			Key: "author", Title: "Author", Type: TypeCompound,
			Compound: &CompoundConfig{
				Image: &CompoundImage{Key: "avatar", Fallback: "/img/avatar.png", UsedInCreate: true},
				Primary: &CompoundPrimary{
					Keys:         []string{"firstName", "lastName"},
					Titles:       []string{"First Name", "Last Name"},
					UsedInCreate: true,
					Required:     true,
				},
				Secondary: &CompoundSecondary{Key: "email", Title: "Email", Editable: true},
				Metadata: []MetadataField{
					{Key: "role", Title: "Role", Type: TypeSelect, UsedInCreate: true},
				},
			},
		},
	}

	t.Run("create pass", func(t *testing.T) {
		fields := FormFields(columns, ModeCreate)
		keys := make([]string, len(fields))
		for i, f := range fields {
			keys[i] = f.Key
		}
		// notes is edit-only, secondary email is edit-only, actions reserved.
		assert.Equal(t, []string{"title", "avatar", "firstName", "lastName", "role"}, keys)

		require.Equal(t, "avatar", fields[1].Key)
		assert.Equal(t, TypeImage, fields[1].Type)
		assert.Equal(t, "/img/avatar.png", fields[1].ImageFallback)
		assert.True(t, fields[1].FromCompound)

		assert.Equal(t, "First Name", fields[2].Title)
		assert.True(t, fields[2].Required)
		assert.Equal(t, "Last Name", fields[3].Title)
	})

	t.Run("edit pass is independent", func(t *testing.T) {
		fields := FormFields(columns, ModeEdit)
		keys := make([]string, len(fields))
		for i, f := range fields {
			keys[i] = f.Key
		}
		assert.Equal(t, []string{"notes", "email"}, keys)
	})

	t.Run("fully ineligible compound contributes nothing", func(t *testing.T) {
		cols := []Column{{
			Key: "user", Type: TypeCompound, Editable: true,
			Compound: &CompoundConfig{
				Primary:  &CompoundPrimary{Keys: []string{"firstName"}, Editable: true},
				Metadata: []MetadataField{{Key: "role", Editable: true}},
			},
		}}
		assert.Empty(t, FormFields(cols, ModeCreate))
	})
}

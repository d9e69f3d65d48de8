package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckPermission(t *testing.T) {
	admin := User{Role: Role{Name: "Super Admin"}}
	editor := User{Role: Role{Name: "Editor", Permissions: []string{"posts.view", "posts.edit"}}}

	t.Run("super admin passes everything", func(t *testing.T) {
		assert.True(t, CheckPermission(admin, "anything"))
		assert.True(t, CheckPermission(admin, ""))
		assert.True(t, CheckPermission(admin, false))
		assert.True(t, CheckPermission(admin, []string{"users.delete"}))
	})

	t.Run("bool requirement passes through", func(t *testing.T) {
		assert.True(t, CheckPermission(editor, true))
		assert.False(t, CheckPermission(editor, false))
	})

	t.Run("string requirement checks membership", func(t *testing.T) {
		assert.True(t, CheckPermission(editor, "posts.edit"))
		assert.False(t, CheckPermission(editor, "users.delete"))
	})

	t.Run("list requirement checks intersection", func(t *testing.T) {
		assert.True(t, CheckPermission(editor, []string{"users.delete", "posts.view"}))
		assert.False(t, CheckPermission(editor, []string{"users.delete"}))
	})

	t.Run("empty list passes vacuously", func(t *testing.T) {
		assert.True(t, CheckPermission(editor, []string{}))
	})

	t.Run("unknown shapes fail closed", func(t *testing.T) {
		assert.False(t, CheckPermission(editor, 42))
	})
}

func TestResolvePermissions(t *testing.T) {
	editor := User{Role: Role{Name: "Editor", Permissions: []string{"posts.access", "posts.view", "posts.edit"}}}

	perms := resolvePermissions(editor, tableCapabilities{
		accessAction: "posts.access",
		viewAction:   "posts.view",
		createAction: "posts.create",
		editAction:   "posts.edit",
		deleteAction: "posts.delete",
		canCreate:    true,
		canEdit:      true,
		canDelete:    true,
		canView:      true,
	})

	assert.True(t, perms.Access)
	assert.True(t, perms.View)
	assert.False(t, perms.Create)
	assert.True(t, perms.Edit)
	assert.False(t, perms.Delete)
	assert.True(t, perms.ViewRow)

	t.Run("capability flag gates even granted permissions", func(t *testing.T) {
		perms := resolvePermissions(editor, tableCapabilities{
			editAction: "posts.edit",
			canEdit:    false,
		})
		assert.False(t, perms.Edit)
	})

	t.Run("canView gates the detail action but not fetching", func(t *testing.T) {
		perms := resolvePermissions(editor, tableCapabilities{
			viewAction: "posts.view",
			canView:    false,
		})
		assert.True(t, perms.View)
		assert.False(t, perms.ViewRow)
	})
}

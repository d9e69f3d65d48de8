package table

// superAdminRole passes every permission check unconditionally.
const superAdminRole = "Super Admin"

// Role is the caller's role with its granted permission names.
type Role struct {
	Name        string
	Permissions []string
}

// User is the caller the store evaluates permissions for.
type User struct {
	ID   string
	Role Role
}

// CheckPermission evaluates a required-permission value against the user.
//
// A Super Admin role passes every check, whatever the requirement. A bool
// requirement passes or fails as given. A string requirement passes when the
// role's permission set contains it; a string list passes when the sets
// intersect, with the empty list passing vacuously. Unknown requirement
// shapes fail closed.
func CheckPermission(user User, required any) bool {
	if user.Role.Name == superAdminRole {
		return true
	}
	switch req := required.(type) {
	case nil:
		return true
	case bool:
		return req
	case string:
		if req == "" {
			return true
		}
		return hasPermission(user.Role, req)
	case []string:
		if len(req) == 0 {
			return true
		}
		for _, name := range req {
			if hasPermission(user.Role, name) {
				return true
			}
		}
		return false
	}
	return false
}

func hasPermission(role Role, name string) bool {
	for _, p := range role.Permissions {
		if p == name {
			return true
		}
	}
	return false
}

// Permissions holds the capability checks computed once per store from the
// table configuration. Action buttons render (or not) from these flags; the
// backend remains the authority and may still reject.
type Permissions struct {
	Access bool
	View   bool
	Create bool
	Edit   bool
	Delete bool

	// ViewRow gates the per-row detail action. Unlike View, which gates
	// fetching, it also requires the table's canView capability.
	ViewRow bool
}

// resolvePermissions evaluates the table's permission action strings for the
// user, AND-ing each with the table's capability flag.
func resolvePermissions(user User, cfg tableCapabilities) Permissions {
	return Permissions{
		Access:  CheckPermission(user, cfg.accessAction),
		View:    CheckPermission(user, cfg.viewAction),
		Create:  cfg.canCreate && CheckPermission(user, cfg.createAction),
		Edit:    cfg.canEdit && CheckPermission(user, cfg.editAction),
		Delete:  cfg.canDelete && CheckPermission(user, cfg.deleteAction),
		ViewRow: cfg.canView && CheckPermission(user, cfg.viewAction),
	}
}

// tableCapabilities is the slice of table config the permission resolver
// reads.
type tableCapabilities struct {
	accessAction string
	viewAction   string
	createAction string
	editAction   string
	deleteAction string
	canCreate    bool
	canEdit      bool
	canDelete    bool
	canView      bool
}

package schema

// File represents a binary upload value sitting in a form field before it is
// pushed through the image-upload collaborator. A string value in the same
// field means the image is already stored and referenced by URL or path.
type File struct {
	Name        string
	ContentType string
	Content     []byte
}

// Item is the form-side value of one multiselect entry. The wire side
// collapses items back to their stringified IDs.
type Item struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// CustomFieldKind enumerates the input kinds a custom field definition may
// declare.
type CustomFieldKind string

const (
	CustomFieldInput    CustomFieldKind = "input"
	CustomFieldTextarea CustomFieldKind = "textarea"
	CustomFieldFile     CustomFieldKind = "file"
	CustomFieldImage    CustomFieldKind = "image"
)

// Valid reports whether k is a known custom field kind.
func (k CustomFieldKind) Valid() bool {
	switch k {
	case CustomFieldInput, CustomFieldTextarea, CustomFieldFile, CustomFieldImage:
		return true
	}
	return false
}

// CustomField is one user-defined field definition stored on rows of a
// customFields column. On the wire the list travels as a JSON-encoded string.
type CustomField struct {
	Name     string          `json:"name"`
	Title    string          `json:"title"`
	Type     CustomFieldKind `json:"type"`
	Required bool            `json:"required"`
}

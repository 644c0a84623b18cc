package schema

import "github.com/milvus-admin/console/internal/client"

// Selection tracks which fields of a collection will be loaded. Primary
// fields are always selected.
type Selection struct {
	fields   []client.Field
	selected map[string]bool
}

// NewSelection starts with every field selected.
func NewSelection(fields []client.Field) *Selection {
	s := &Selection{
		fields:   append([]client.Field(nil), fields...),
		selected: make(map[string]bool, len(fields)),
	}
	for _, f := range fields {
		s.selected[f.Name] = true
	}
	return s
}

// Fields returns the fields in schema order.
func (s *Selection) Fields() []client.Field { return s.fields }

// Locked reports whether the named field cannot be deselected.
func (s *Selection) Locked(name string) bool {
	for _, f := range s.fields {
		if f.Name == name {
			return f.IsPrimary
		}
	}
	return false
}

// Selected reports whether the named field is selected.
func (s *Selection) Selected(name string) bool {
	return s.selected[name]
}

// Toggle flips one field. Locked and unknown fields are ignored.
func (s *Selection) Toggle(name string) {
	if _, ok := s.selected[name]; !ok || s.Locked(name) {
		return
	}
	s.selected[name] = !s.selected[name]
}

// AllSelected reports whether every field is selected.
func (s *Selection) AllSelected() bool {
	for _, f := range s.fields {
		if !s.selected[f.Name] {
			return false
		}
	}
	return true
}

// ToggleAll selects every field, or if all are already selected, clears
// every optional one.
func (s *Selection) ToggleAll() {
	want := !s.AllSelected()
	for _, f := range s.fields {
		if f.IsPrimary {
			continue
		}
		s.selected[f.Name] = want
	}
}

// Request returns the field list to send with a load. It is nil when every
// field is selected so the server loads the whole collection.
func (s *Selection) Request() []string {
	if s.AllSelected() {
		return nil
	}
	var out []string
	for _, f := range s.fields {
		if s.selected[f.Name] {
			out = append(out, f.Name)
		}
	}
	return out
}

package models

import "time"

// GrantShape distinguishes how a resource family encodes permission levels.
type GrantShape int

const (
	// ShapeLevel stores a single enum column (permission_level).
	ShapeLevel GrantShape = iota
	// ShapeFlags stores named boolean columns (can_view, can_edit, ...).
	ShapeFlags
)

// GrantFamily describes one resource family's grant table. The permission
// service is implemented once and parameterized by these descriptors
// instead of being re-implemented per resource type.
type GrantFamily struct {
	Name       string     // route segment, e.g. "sheets"
	Table      string     // grant table name
	ResourceFK string     // column referencing the resource
	Shape      GrantShape
	Levels     []string // valid enum values when ShapeLevel
	Flags      []string // flag column names when ShapeFlags
}

// ValidLevel checks a level against the family's closed set.
func (f *GrantFamily) ValidLevel(level string) bool {
	for _, l := range f.Levels {
		if l == level {
			return true
		}
	}
	return false
}

// ValidFlag checks a flag name against the family's flag columns.
func (f *GrantFamily) ValidFlag(flag string) bool {
	for _, name := range f.Flags {
		if name == flag {
			return true
		}
	}
	return false
}

// Grant authorizes one subject a specific access level on one resource.
// At most one grant exists per (resource, subject) pair.
type Grant struct {
	ID         string          `json:"id"`
	ResourceID string          `json:"resource_id"`
	UserID     string          `json:"user_id"`
	UserName   string          `json:"user_name,omitempty"`
	UserEmail  string          `json:"user_email,omitempty"`
	Level      string          `json:"permission_level,omitempty"`
	Flags      map[string]bool `json:"flags,omitempty"`
	GrantedBy  string          `json:"granted_by"`
	CreatedAt  time.Time       `json:"created_at"`
}

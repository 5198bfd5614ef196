// Package roles maps URL role slugs ("admin", "employee") to the numeric
// role codes stored in the users table and back.
package roles

// Code is the numeric role identifier stored with a user record.
type Code int

const (
	// Unknown is never stored; it marks a slug or code outside the mapping.
	Unknown  Code = 0
	Admin    Code = 1
	Employee Code = 2
)

const (
	SlugAdmin    = "admin"
	SlugEmployee = "employee"
)

var slugToCode = map[string]Code{
	SlugAdmin:    Admin,
	SlugEmployee: Employee,
}

var codeToSlug = map[Code]string{
	Admin:    SlugAdmin,
	Employee: SlugEmployee,
}

// Resolve returns the role code for a slug. Unmapped slugs yield
// (Unknown, false); callers must treat that as a failed lookup.
func Resolve(slug string) (Code, bool) {
	code, ok := slugToCode[slug]
	if !ok {
		return Unknown, false
	}
	return code, true
}

// Format returns the slug for a role code, or ("", false) if the code is
// not mapped.
func Format(code Code) (string, bool) {
	slug, ok := codeToSlug[code]
	return slug, ok
}

// Slugs lists every mapped slug in code order.
func Slugs() []string {
	return []string{SlugAdmin, SlugEmployee}
}

// Valid reports whether c is a mapped role code.
func (c Code) Valid() bool {
	_, ok := codeToSlug[c]
	return ok
}

func (c Code) String() string {
	if slug, ok := codeToSlug[c]; ok {
		return slug
	}
	return "unknown"
}

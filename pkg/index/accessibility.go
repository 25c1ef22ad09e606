package index

import "fmt"

// Accessibility is a declaration's access-control level. Values are totally
// ordered: private < fileprivate < internal < public < open.
type Accessibility int

const (
	AccessPrivate Accessibility = iota
	AccessFilePrivate
	AccessInternal
	AccessPublic
	AccessOpen
)

var accessibilityNames = map[Accessibility]string{
	AccessPrivate:     "private",
	AccessFilePrivate: "fileprivate",
	AccessInternal:    "internal",
	AccessPublic:      "public",
	AccessOpen:        "open",
}

var accessibilityValues = map[string]Accessibility{
	"private":     AccessPrivate,
	"fileprivate": AccessFilePrivate,
	"internal":    AccessInternal,
	"public":      AccessPublic,
	"open":        AccessOpen,
}

// ParseAccessibility converts the provider string form.
func ParseAccessibility(s string) (Accessibility, error) {
	a, ok := accessibilityValues[s]
	if !ok {
		return AccessInternal, fmt.Errorf("unknown accessibility %q", s)
	}
	return a, nil
}

// String returns the source-level keyword.
func (a Accessibility) String() string {
	if n, ok := accessibilityNames[a]; ok {
		return n
	}
	return "internal"
}

// IsPublicOrOpen reports whether the level is visible outside the module.
func (a Accessibility) IsPublicOrOpen() bool {
	return a >= AccessPublic
}

// Min returns the lower of two levels.
func (a Accessibility) Min(b Accessibility) Accessibility {
	if b < a {
		return b
	}
	return a
}

package generator

import (
	"strings"
	"unicode"

	"github.com/strapikit/typegen/strapi"
)

// InterfaceName converts a content type's singular name into its TypeScript
// interface name by title-casing each '.'/'-'-delimited segment and
// concatenating (e.g. "blog-post" → "BlogPost").
func InterfaceName(singularName string) string {
	var b strings.Builder
	for _, seg := range splitSegments(singularName) {
		b.WriteString(capitalize(seg))
	}
	return b.String()
}

// ComponentInterfaceName derives the interface name of a component from its
// category and name: the category is title-cased as a whole, the name
// per-segment (e.g. category "layout", name "hero-banner" → "LayoutHeroBanner").
func ComponentInterfaceName(category, name string) string {
	return capitalize(category) + InterfaceName(name)
}

// ComponentUIDName derives the interface name from a component reference
// UID as used by component and dynamic-zone attributes
// (e.g. "layout.hero-banner" → "LayoutHeroBanner").
func ComponentUIDName(uid string) string {
	category, name, found := strings.Cut(uid, ".")
	if !found {
		return InterfaceName(uid)
	}
	return ComponentInterfaceName(category, name)
}

// DeriveName determines the interface name for a schema: the singular name
// when present, the category+name pair for components, otherwise "" to
// signal that no interface can be emitted for it.
func DeriveName(s *strapi.Schema) string {
	if s.Info.SingularName != "" {
		return InterfaceName(s.Info.SingularName)
	}
	if s.IsComponent() {
		return ComponentInterfaceName(s.Category, s.Name)
	}
	return ""
}

// splitSegments breaks a name into its '.', '-', and '/' delimited parts.
// '/' shows up in component names nested below their category directory.
func splitSegments(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == '.' || r == '-' || r == '/'
	})
}

// capitalize uppercases the first rune of s, leaving the rest untouched so
// camelCase names keep their interior casing.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

package generator

import (
	"strings"

	"go.uber.org/zap"

	"github.com/strapikit/typegen/customfield"
	"github.com/strapikit/typegen/strapi"
)

// Property is one rendered interface member.
type Property struct {
	Name     string
	Required bool
	Type     string
}

// InterfaceSpec is the assembler's intermediate form of one interface:
// built once per schema, rendered to text, then discarded.
type InterfaceSpec struct {
	// Name may be empty when the schema declares neither a singular name
	// nor a component identity; such specs are skipped with a diagnostic.
	Name string

	// Parents lists the marker interfaces this interface extends.
	// Currently at most MarkerDraftAndPublish.
	Parents []string

	// Properties in the schema's attribute declaration order.
	Properties []Property

	// Source is the schema file, for diagnostics.
	Source string
}

// MarkerDraftAndPublish is the shared marker interface extended by every
// content type whose options enable the draft/publish lifecycle.
const MarkerDraftAndPublish = "DraftAndPublish"

// markerDecls holds the fixed declarations of the shared marker interfaces,
// emitted once each when referenced.
var markerDecls = map[string]string{
	MarkerDraftAndPublish: `export interface ` + MarkerDraftAndPublish + ` {
  /**
   * Publication time. Omit the property to publish immediately at creation
   * time, set a Date to publish at that time, or set null to create the
   * entry as an unpublished draft.
   */
  publishedAt?: Date | null;
}`,
}

// Assemble builds the InterfaceSpec for one schema, mapping each attribute
// through MapType in declaration order. The returned spec has an empty
// Name when the schema is malformed; the caller reports and skips it.
func Assemble(s *strapi.Schema, resolver customfield.Resolver, log *zap.SugaredLogger) *InterfaceSpec {
	spec := &InterfaceSpec{
		Name:   DeriveName(s),
		Source: s.Path,
	}

	if s.Options.DraftAndPublish {
		spec.Parents = append(spec.Parents, MarkerDraftAndPublish)
	}

	for _, attr := range s.Attributes {
		spec.Properties = append(spec.Properties, Property{
			Name:     attr.Name,
			Required: attr.Required,
			Type:     MapType(attr, resolver, log),
		})
	}
	return spec
}

// Render produces the interface's TypeScript declaration.
func (spec *InterfaceSpec) Render() string {
	var b strings.Builder
	b.WriteString("export interface ")
	b.WriteString(spec.Name)
	if len(spec.Parents) > 0 {
		b.WriteString(" extends ")
		b.WriteString(strings.Join(spec.Parents, ", "))
	}
	b.WriteString(" {\n")
	for _, p := range spec.Properties {
		b.WriteString("  ")
		b.WriteString(propertyKey(p.Name))
		if !p.Required {
			b.WriteString("?")
		}
		b.WriteString(": ")
		b.WriteString(p.Type)
		b.WriteString(";\n")
	}
	b.WriteString("}")
	return b.String()
}

// propertyKey quotes attribute names that are not plain identifiers
// (Strapi permits dashes in attribute names).
func propertyKey(name string) string {
	if isIdentifier(name) {
		return name
	}
	return `"` + name + `"`
}

// isIdentifier reports whether s is usable as an unquoted TypeScript
// property key.
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, ch := range s {
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch == '_', ch == '$':
		case ch >= '0' && ch <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// Package strapi models Strapi content-type and component schema files and
// loads them from a project directory tree.
//
// A schema file describes one API resource (a content type) or one reusable
// fragment (a component) as a mapping of attribute names to attribute
// descriptors. Attribute declaration order is significant for generated
// output and is preserved during parsing.
package strapi

import (
	"bytes"
	"encoding/json"

	"github.com/cockroachdb/errors"
)

// Kind identifies an attribute's data shape. The set of kinds is fixed by
// Strapi; anything outside it is reported and degraded by the type mapper.
type Kind string

const (
	KindInteger     Kind = "integer"
	KindBigInteger  Kind = "biginteger"
	KindDecimal     Kind = "decimal"
	KindFloat       Kind = "float"
	KindString      Kind = "string"
	KindText        Kind = "text"
	KindEmail       Kind = "email"
	KindRichText    Kind = "richtext"
	KindPassword    Kind = "password"
	KindUID         Kind = "uid"
	KindDate        Kind = "date"
	KindTime        Kind = "time"
	KindDateTime    Kind = "datetime"
	KindBoolean     Kind = "boolean"
	KindEnumeration Kind = "enumeration"
	KindRelation    Kind = "relation"
	KindMedia       Kind = "media"
	KindComponent   Kind = "component"
	KindJSON        Kind = "json"
	KindDynamicZone Kind = "dynamiczone"
	KindCustomField Kind = "customField"
)

// Kinds lists every attribute kind Strapi defines, in a stable order.
func Kinds() []Kind {
	return []Kind{
		KindInteger, KindBigInteger, KindDecimal, KindFloat,
		KindString, KindText, KindEmail, KindRichText, KindPassword, KindUID,
		KindDate, KindTime, KindDateTime, KindBoolean,
		KindEnumeration, KindRelation, KindMedia, KindComponent,
		KindJSON, KindDynamicZone, KindCustomField,
	}
}

// Attribute is one field's schema entry. Only the keywords needed for type
// generation are decoded; validation-only keywords (min, max, regex, ...)
// are ignored.
type Attribute struct {
	// Name is the attribute's key in the schema's attributes object. It is
	// populated by Schema unmarshalling, not by the JSON document itself.
	Name string `json:"-"`

	Type     Kind `json:"type"`
	Required bool `json:"required"`

	// Enumeration values, in declared order.
	Enum []string `json:"enum,omitempty"`

	// Relation cardinality ("oneToOne", "oneToMany", "manyToOne",
	// "manyToMany") and target content-type UID.
	Relation string `json:"relation,omitempty"`
	Target   string `json:"target,omitempty"`

	// Media multiplicity.
	Multiple bool `json:"multiple,omitempty"`

	// Component reference UID ("category.name") and repeatable flag.
	Component  string `json:"component,omitempty"`
	Repeatable bool   `json:"repeatable,omitempty"`

	// Dynamic-zone allowed component UIDs, in declared order.
	Components []string `json:"components,omitempty"`

	// Custom-field identifier (e.g. "plugin::color-picker.color") and its
	// opaque options value. The options shape is defined by the plugin.
	CustomField string          `json:"customField,omitempty"`
	Options     json.RawMessage `json:"options,omitempty"`
}

// Info holds the schema's naming metadata.
type Info struct {
	SingularName string `json:"singularName,omitempty"`
	PluralName   string `json:"pluralName,omitempty"`
	DisplayName  string `json:"displayName,omitempty"`
}

// Options holds the per-schema options bag.
type Options struct {
	DraftAndPublish bool `json:"draftAndPublish,omitempty"`
}

// Schema is one parsed content type or component. It is created by parsing
// a single file and never mutated afterwards.
type Schema struct {
	Info    Info
	Options Options

	// Attributes in declaration order.
	Attributes []Attribute

	// Category and Name are set for components only, derived from the file
	// path below the components root (category = first path segment, name =
	// remainder without the .json extension).
	Category string
	Name     string

	// Path is the source file the schema was parsed from, for diagnostics.
	Path string
}

// IsComponent reports whether the schema was loaded from the components tree.
func (s *Schema) IsComponent() bool {
	return s.Category != "" || s.Name != ""
}

// UnmarshalJSON decodes a schema document while preserving the declaration
// order of its attributes. encoding/json maps are unordered, so the key
// order is recovered with a second token-stream pass over the raw document.
func (s *Schema) UnmarshalJSON(data []byte) error {
	var raw struct {
		Info       Info                  `json:"info"`
		Options    Options               `json:"options"`
		Attributes map[string]*Attribute `json:"attributes"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	order, err := attributeKeyOrder(data)
	if err != nil {
		return err
	}

	s.Info = raw.Info
	s.Options = raw.Options
	s.Attributes = s.Attributes[:0]
	for _, name := range order {
		attr, ok := raw.Attributes[name]
		if !ok || attr == nil {
			continue
		}
		attr.Name = name
		s.Attributes = append(s.Attributes, *attr)
	}
	return nil
}

// attributeKeyOrder extracts the key order of the top-level "attributes"
// object from a raw schema document.
func attributeKeyOrder(data []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.New("schema document is not a JSON object")
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := keyTok.(string)

		if key != "attributes" {
			if err := skipValue(dec); err != nil {
				return nil, err
			}
			continue
		}

		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		if d, ok := tok.(json.Delim); !ok || d != '{' {
			// attributes is not an object; nothing to order.
			return nil, nil
		}

		var keys []string
		for dec.More() {
			kt, err := dec.Token()
			if err != nil {
				return nil, err
			}
			k, _ := kt.(string)
			keys = append(keys, k)
			if err := skipValue(dec); err != nil {
				return nil, err
			}
		}
		if _, err := dec.Token(); err != nil { // closing brace
			return nil, err
		}
		return keys, nil
	}
	return nil, nil
}

// skipValue consumes one JSON value (scalar, object, or array) from the
// decoder without retaining it.
func skipValue(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	d, ok := tok.(json.Delim)
	if !ok || (d != '{' && d != '[') {
		return nil
	}
	for dec.More() {
		if err := skipValue(dec); err != nil {
			return err
		}
	}
	_, err = dec.Token() // closing delimiter
	return err
}

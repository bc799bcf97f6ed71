package generator

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/strapikit/typegen/customfield"
	"github.com/strapikit/typegen/strapi"
)

// anyType is the permissive fallback. Every degradation path lands here so
// generated output always compiles and the gap is visible for review.
const anyType = "any"

// positionHint is the relative-position object accepted by connect entries
// of relation update payloads.
const positionHint = "{before?: number, after?: number, start?: boolean, end?: boolean}"

// MapType converts one attribute descriptor into a TypeScript type
// expression. The mapping is total: every kind in the fixed enumeration
// produces a non-empty expression, and unrecognized kinds degrade to the
// permissive fallback with a diagnostic instead of failing.
//
// resolver supplies custom-field mappings and may be nil when no extension
// mechanism is configured.
func MapType(attr strapi.Attribute, resolver customfield.Resolver, log *zap.SugaredLogger) string {
	switch attr.Type {
	case strapi.KindInteger, strapi.KindBigInteger, strapi.KindDecimal, strapi.KindFloat:
		return "number"

	case strapi.KindString, strapi.KindText, strapi.KindEmail,
		strapi.KindRichText, strapi.KindPassword, strapi.KindUID:
		return "string"

	case strapi.KindDate, strapi.KindTime:
		// The API exchanges dates as "YYYY-MM-DD" and times as
		// "HH:mm:ss.SSS" text; they are never parsed into a temporal type.
		return "string"

	case strapi.KindDateTime:
		return "Date"

	case strapi.KindBoolean:
		return "boolean"

	case strapi.KindEnumeration:
		return enumUnion(attr, log)

	case strapi.KindRelation:
		return relationType(attr.Relation)

	case strapi.KindMedia:
		if attr.Multiple {
			return "{id: number}[]"
		}
		return "number"

	case strapi.KindComponent:
		name := ComponentUIDName(attr.Component)
		if attr.Repeatable {
			return name + "[]"
		}
		return name

	case strapi.KindJSON:
		return anyType

	case strapi.KindDynamicZone:
		return dynamicZoneType(attr, log)

	case strapi.KindCustomField:
		return customFieldType(attr, resolver, log)

	default:
		log.Warnf("attribute %q has unhandled kind %q, falling back to %s",
			attr.Name, attr.Type, anyType)
		return anyType
	}
}

// enumUnion renders a closed union of the attribute's literal values in
// declared order.
func enumUnion(attr strapi.Attribute, log *zap.SugaredLogger) string {
	if len(attr.Enum) == 0 {
		log.Warnf("enumeration attribute %q declares no values, falling back to %s",
			attr.Name, anyType)
		return anyType
	}
	literals := make([]string, len(attr.Enum))
	for i, v := range attr.Enum {
		literals[i] = fmt.Sprintf("%q", v)
	}
	return strings.Join(literals, " | ")
}

// relationType renders the union of payload shapes the API accepts for a
// relation update: a bare id list (or id), a {set: ...} replace-all form,
// and a {disconnect?, connect?} incremental form whose connect entries may
// carry relative-position hints. Cardinalities oneToMany and manyToMany
// take the plural shapes; every other cardinality takes the singular ones.
func relationType(cardinality string) string {
	if cardinality == "oneToMany" || cardinality == "manyToMany" {
		return "number[] | {set: number[]} | " +
			"{disconnect?: number[], connect?: (number | {id: number, position?: " + positionHint + "})[]}"
	}
	return "number | {set: number} | " +
		"{disconnect?: number, connect?: number | {id: number, position?: " + positionHint + "}}"
}

// dynamicZoneType renders the closed union of the allowed components'
// interface names, as a list type, in declared order.
func dynamicZoneType(attr strapi.Attribute, log *zap.SugaredLogger) string {
	if len(attr.Components) == 0 {
		log.Warnf("dynamic zone attribute %q allows no components, falling back to %s[]",
			attr.Name, anyType)
		return anyType + "[]"
	}
	names := make([]string, len(attr.Components))
	for i, uid := range attr.Components {
		names[i] = ComponentUIDName(uid)
	}
	return "(" + strings.Join(names, " | ") + ")[]"
}

// customFieldType delegates to the custom-field resolver. Any failure —
// no resolver, unresolvable identifier, or a mapper error — degrades to
// the fallback type annotated with a FIXME marker naming the identifier,
// so the spot is greppable in committed output.
func customFieldType(attr strapi.Attribute, resolver customfield.Resolver, log *zap.SugaredLogger) string {
	uid := customfield.StripNamespace(attr.CustomField)
	fallback := fmt.Sprintf("%s /* FIXME: custom field %q */", anyType, uid)

	var fn customfield.Mapper
	var ok bool
	if resolver != nil {
		fn, ok = resolver.Resolve(uid)
	}
	if !ok {
		log.Warnf("no mapper for custom field %q, falling back to %s", uid, anyType)
		return fallback
	}

	expr, err := fn(attr.Options)
	if err != nil {
		log.Warnf("custom field %q mapper failed: %v", uid, err)
		return fallback
	}
	if expr == "" {
		log.Warnf("custom field %q mapper returned an empty expression, falling back to %s", uid, anyType)
		return fallback
	}
	// Used verbatim; syntactic validity is the extension author's
	// responsibility.
	return expr
}

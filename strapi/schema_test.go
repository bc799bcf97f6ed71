package strapi

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaUnmarshalPreservesAttributeOrder(t *testing.T) {
	doc := `{
		"info": {"singularName": "blog-post", "pluralName": "blog-posts"},
		"options": {"draftAndPublish": true},
		"attributes": {
			"zulu": {"type": "string"},
			"alpha": {"type": "integer", "required": true},
			"mike": {"type": "boolean"}
		}
	}`

	var s Schema
	require.NoError(t, json.Unmarshal([]byte(doc), &s))

	require.Len(t, s.Attributes, 3)
	assert.Equal(t, "zulu", s.Attributes[0].Name)
	assert.Equal(t, "alpha", s.Attributes[1].Name)
	assert.Equal(t, "mike", s.Attributes[2].Name)

	assert.Equal(t, "blog-post", s.Info.SingularName)
	assert.True(t, s.Options.DraftAndPublish)
	assert.Equal(t, KindInteger, s.Attributes[1].Type)
	assert.True(t, s.Attributes[1].Required)
	assert.False(t, s.Attributes[0].Required)
}

func TestSchemaUnmarshalKindSpecificFields(t *testing.T) {
	doc := `{
		"info": {"singularName": "article"},
		"attributes": {
			"status": {"type": "enumeration", "enum": ["draft", "review", "done"]},
			"tags": {"type": "relation", "relation": "manyToMany", "target": "api::tag.tag"},
			"cover": {"type": "media", "multiple": false},
			"gallery": {"type": "media", "multiple": true},
			"hero": {"type": "component", "component": "layout.hero-banner", "repeatable": true},
			"body": {"type": "dynamiczone", "components": ["blocks.text", "blocks.quote"]},
			"accent": {
				"type": "customField",
				"customField": "plugin::color-picker.color",
				"options": {"format": "hex"}
			}
		}
	}`

	var s Schema
	require.NoError(t, json.Unmarshal([]byte(doc), &s))
	require.Len(t, s.Attributes, 7)

	byName := make(map[string]Attribute)
	for _, a := range s.Attributes {
		byName[a.Name] = a
	}

	assert.Equal(t, []string{"draft", "review", "done"}, byName["status"].Enum)
	assert.Equal(t, "manyToMany", byName["tags"].Relation)
	assert.Equal(t, "api::tag.tag", byName["tags"].Target)
	assert.False(t, byName["cover"].Multiple)
	assert.True(t, byName["gallery"].Multiple)
	assert.Equal(t, "layout.hero-banner", byName["hero"].Component)
	assert.True(t, byName["hero"].Repeatable)
	assert.Equal(t, []string{"blocks.text", "blocks.quote"}, byName["body"].Components)
	assert.Equal(t, "plugin::color-picker.color", byName["accent"].CustomField)
	assert.JSONEq(t, `{"format": "hex"}`, string(byName["accent"].Options))
}

func TestSchemaUnmarshalNoAttributes(t *testing.T) {
	var s Schema
	require.NoError(t, json.Unmarshal([]byte(`{"info": {"singularName": "empty"}}`), &s))
	assert.Empty(t, s.Attributes)
}

func TestSchemaUnmarshalNotAnObject(t *testing.T) {
	var s Schema
	assert.Error(t, json.Unmarshal([]byte(`[1, 2, 3]`), &s))
}

func TestAttributeKeyOrderSkipsNestedObjects(t *testing.T) {
	// Keys named "attributes" nested inside other values must not confuse
	// the order extraction.
	doc := `{
		"info": {"attributes": {"decoy": true}},
		"pluginOptions": {"i18n": {"localized": true}},
		"attributes": {
			"b": {"type": "string", "options": {"attributes": [1, 2]}},
			"a": {"type": "string"}
		}
	}`

	order, err := attributeKeyOrder([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, order)
}

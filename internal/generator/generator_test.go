package generator

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strapikit/typegen/strapi"
)

// writeFile creates a file (and its parent directories) below dir.
func writeFile(t *testing.T, dir, rel, content string) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func contentType(singular, attributes string) string {
	return fmt.Sprintf(`{
		"info": {"singularName": %q, "pluralName": "%ss", "displayName": %q},
		"options": {"draftAndPublish": true},
		"attributes": {%s}
	}`, singular, singular, singular, attributes)
}

// runToFile executes the pipeline with output to a temp file and returns
// the result and the generated text.
func runToFile(t *testing.T, cfg Config) (*Result, string) {
	t.Helper()
	if cfg.OutFile == "" {
		cfg.OutFile = filepath.Join(t.TempDir(), "strapi.d.ts")
	}
	res, err := Run(cfg)
	require.NoError(t, err)

	out, err := os.ReadFile(cfg.OutFile)
	require.NoError(t, err)
	return res, string(out)
}

func TestRun(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/api/blog-post/content-types/blog-post/schema.json",
		contentType("blog-post", `
			"title": {"type": "string", "required": true},
			"body": {"type": "richtext"},
			"hero": {"type": "component", "component": "layout.hero-banner"}
		`))
	writeFile(t, root, "src/api/tag/content-types/tag/schema.json",
		contentType("tag", `"name": {"type": "string", "required": true}`))
	writeFile(t, root, "src/components/layout/hero-banner.json", `{
		"attributes": {
			"heading": {"type": "string"},
			"image": {"type": "media", "multiple": false}
		}
	}`)

	res, out := runToFile(t, Config{RootDir: root})
	assert.Equal(t, 3, res.Interfaces)
	assert.Equal(t, 1, res.Markers)
	assert.Equal(t, 0, res.SkippedSchemas)

	assert.Contains(t, out, "export interface BlogPost extends DraftAndPublish {")
	assert.Contains(t, out, "  title: string;\n")
	assert.Contains(t, out, "  body?: string;\n")
	assert.Contains(t, out, "  hero?: LayoutHeroBanner;\n")
	assert.Contains(t, out, "export interface Tag extends DraftAndPublish {")
	assert.Contains(t, out, "export interface LayoutHeroBanner {")
	assert.Contains(t, out, "  image?: number;\n")
}

func TestRunMarkerEmittedOnce(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 10; i++ {
		name := fmt.Sprintf("type-%02d", i)
		writeFile(t, root, fmt.Sprintf("src/api/%s/content-types/%s/schema.json", name, name),
			contentType(name, `"title": {"type": "string"}`))
	}

	res, out := runToFile(t, Config{RootDir: root})
	assert.Equal(t, 10, res.Interfaces)
	assert.Equal(t, 1, res.Markers)

	assert.Equal(t, 1, strings.Count(out, "interface DraftAndPublish"))
	assert.Equal(t, 10, strings.Count(out, "extends DraftAndPublish"))
	// The marker must precede every interface that extends it.
	assert.Less(t, strings.Index(out, "interface DraftAndPublish"), strings.Index(out, "export interface Type00"))
}

func TestRunMarkerOmittedWhenUnreferenced(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/api/tag/content-types/tag/schema.json", `{
		"info": {"singularName": "tag"},
		"attributes": {"name": {"type": "string"}}
	}`)

	res, out := runToFile(t, Config{RootDir: root})
	assert.Equal(t, 0, res.Markers)
	assert.NotContains(t, out, "DraftAndPublish")
}

func TestRunSortsInterfacesByName(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/api/zebra/content-types/zebra/schema.json",
		contentType("zebra", `"name": {"type": "string"}`))
	writeFile(t, root, "src/api/apple/content-types/apple/schema.json",
		contentType("apple", `"name": {"type": "string"}`))

	_, out := runToFile(t, Config{RootDir: root})
	apple := strings.Index(out, "export interface Apple")
	zebra := strings.Index(out, "export interface Zebra")
	require.GreaterOrEqual(t, apple, 0)
	require.GreaterOrEqual(t, zebra, 0)
	assert.Less(t, apple, zebra)
}

func TestRunInvalidRootProducesNoOutput(t *testing.T) {
	root := t.TempDir()
	outFile := filepath.Join(t.TempDir(), "strapi.d.ts")

	_, err := Run(Config{RootDir: root, OutFile: outFile})
	require.Error(t, err)
	assert.True(t, errors.Is(err, strapi.ErrNotProjectRoot))

	_, statErr := os.Stat(outFile)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunSkipsMalformedSchema(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/api/tag/content-types/tag/schema.json",
		contentType("tag", `"name": {"type": "string"}`))
	writeFile(t, root, "src/api/broken/content-types/broken/schema.json", `{not json`)

	res, out := runToFile(t, Config{RootDir: root})
	assert.Equal(t, 1, res.Interfaces)
	assert.Equal(t, 1, res.SkippedSchemas)
	assert.Contains(t, out, "export interface Tag")
}

func TestRunSkipsUnnameableSchema(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/api/tag/content-types/tag/schema.json",
		contentType("tag", `"name": {"type": "string"}`))
	writeFile(t, root, "src/api/anon/content-types/anon/schema.json", `{
		"attributes": {"name": {"type": "string"}}
	}`)

	res, _ := runToFile(t, Config{RootDir: root})
	assert.Equal(t, 1, res.Interfaces)
	assert.Equal(t, 1, res.SkippedSchemas)
}

func TestRunDuplicateNamesFirstWins(t *testing.T) {
	root := t.TempDir()
	// Both derive the interface name Tag.
	writeFile(t, root, "src/api/tag/content-types/tag/schema.json", `{
		"info": {"singularName": "tag"},
		"attributes": {"first": {"type": "string"}}
	}`)
	writeFile(t, root, "src/api/tag2/content-types/tag2/schema.json", `{
		"info": {"singularName": "tag"},
		"attributes": {"second": {"type": "string"}}
	}`)

	res, out := runToFile(t, Config{RootDir: root})
	assert.Equal(t, 1, res.Interfaces)
	assert.Equal(t, 1, res.SkippedSchemas)
	assert.Equal(t, 1, strings.Count(out, "export interface Tag"))
	assert.Contains(t, out, "first?")
	assert.NotContains(t, out, "second?")
}

func TestRunDuplicateNamesFirstWinsLargeProject(t *testing.T) {
	root := t.TempDir()
	// Enough schemas that sorting them is no longer a trivial insertion
	// sort; only a stable sort keeps the earlier source ahead of its
	// colliding twin.
	for i := 0; i < 40; i++ {
		name := fmt.Sprintf("filler-%02d", i)
		writeFile(t, root, fmt.Sprintf("src/api/%s/content-types/%s/schema.json", name, name),
			contentType(name, `"name": {"type": "string"}`))
	}
	writeFile(t, root, "src/api/aaa-dup/content-types/aaa-dup/schema.json", `{
		"info": {"singularName": "shared"},
		"attributes": {"first": {"type": "string"}}
	}`)
	writeFile(t, root, "src/api/zzz-dup/content-types/zzz-dup/schema.json", `{
		"info": {"singularName": "shared"},
		"attributes": {"second": {"type": "string"}}
	}`)

	res, out := runToFile(t, Config{RootDir: root})
	assert.Equal(t, 41, res.Interfaces)
	assert.Equal(t, 1, res.SkippedSchemas)
	assert.Equal(t, 1, strings.Count(out, "export interface Shared"))
	assert.Contains(t, out, "first?")
	assert.NotContains(t, out, "second?")
}

func TestRunAppliesOverrides(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/api/tag/content-types/tag/schema.json", `{
		"info": {"singularName": "tag"},
		"attributes": {
			"name": {"type": "string"},
			"payload": {"type": "json"}
		}
	}`)
	overridesFile := writeFile(t, root, "overrides.yml", `
interfaces:
  Tag:
    name: TagEntity
    properties:
      payload: Record<string, unknown>
`)

	_, out := runToFile(t, Config{RootDir: root, OverridesFile: overridesFile})
	assert.Contains(t, out, "export interface TagEntity {")
	assert.NotContains(t, out, "export interface Tag {")
	assert.Contains(t, out, "  payload?: Record<string, unknown>;\n")
}

func TestRunOverridesFileUnreadable(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/api/tag/content-types/tag/schema.json",
		contentType("tag", `"name": {"type": "string"}`))

	_, err := Run(Config{
		RootDir:       root,
		OverridesFile: filepath.Join(root, "missing.yml"),
	})
	require.Error(t, err)
}

func TestApplyOverridesIgnoresUnknownNames(t *testing.T) {
	specs := []*InterfaceSpec{{
		Name:       "Tag",
		Properties: []Property{{Name: "name", Type: "string"}},
	}}
	ApplyOverrides(specs, &OverrideConfig{
		Interfaces: map[string]InterfaceOverride{
			"Missing": {Name: "Renamed"},
			"Tag":     {Properties: map[string]string{"absent": "never"}},
		},
	})

	assert.Equal(t, "Tag", specs[0].Name)
	assert.Equal(t, "string", specs[0].Properties[0].Type)
}

func TestRunAttributeOrderPreserved(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/api/post/content-types/post/schema.json", `{
		"info": {"singularName": "post"},
		"attributes": {
			"zulu": {"type": "string"},
			"alpha": {"type": "string"},
			"mike": {"type": "string"}
		}
	}`)

	_, out := runToFile(t, Config{RootDir: root})
	zulu := strings.Index(out, "zulu?")
	alpha := strings.Index(out, "alpha?")
	mike := strings.Index(out, "mike?")
	assert.Less(t, zulu, alpha)
	assert.Less(t, alpha, mike)
}

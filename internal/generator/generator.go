// Package generator turns Strapi schema descriptors into TypeScript
// interface declarations: the attribute type mapping (typemap.go), the
// interface assembly and rendering (assemble.go), and the pipeline that
// ties discovery, mapping, overrides, and output together.
package generator

import (
	"io"
	"os"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/strapikit/typegen/customfield"
	"github.com/strapikit/typegen/strapi"
)

// Config holds all configuration for a generator run.
type Config struct {
	// RootDir is the Strapi project root (the directory containing src/api).
	RootDir string

	// OutFile receives the generated declarations; empty means stdout.
	OutFile string

	// OverridesFile optionally points at an overrides.yml (see overrides.go).
	OverridesFile string

	// Resolver supplies custom-field type mappings; may be nil.
	Resolver customfield.Resolver

	// Log receives diagnostics. Defaults to a no-op logger.
	Log *zap.SugaredLogger
}

// Result summarizes a completed run.
type Result struct {
	Interfaces     int // named interfaces emitted
	Markers        int // marker interfaces emitted
	SkippedSchemas int // schemas skipped due to parse or naming failures
}

// Run executes the full generation pipeline. It returns an error only for
// the unrecoverable cases (invalid project root, unreadable overrides
// file, sink failure); malformed schemas and unmappable attributes are
// reported through the configured logger and degrade per attribute or
// schema so a best-effort output is always produced.
func Run(cfg Config) (*Result, error) {
	log := cfg.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	var overrides *OverrideConfig
	if cfg.OverridesFile != "" {
		var err error
		overrides, err = LoadOverrides(cfg.OverridesFile)
		if err != nil {
			return nil, err
		}
	}

	project, err := strapi.DiscoverProject(cfg.RootDir)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	schemas := loadSchemas(project, log, res)

	specs := assembleAll(schemas, cfg.Resolver, log, res)
	ApplyOverrides(specs, overrides)

	// Stable so that among colliding names the earlier source keeps winning.
	sort.SliceStable(specs, func(i, j int) bool { return specs[i].Name < specs[j].Name })
	specs = dropDuplicates(specs, log, res)

	text := renderAll(specs, res)
	if err := writeOutput(cfg.OutFile, text); err != nil {
		return nil, err
	}
	return res, nil
}

// loadSchemas parses every discovered schema file. Unparseable files are
// reported and skipped; the run continues with the remainder.
func loadSchemas(project *strapi.Project, log *zap.SugaredLogger, res *Result) []*strapi.Schema {
	var schemas []*strapi.Schema

	for _, path := range project.ContentTypes {
		s, err := strapi.LoadSchema(path)
		if err != nil {
			log.Errorf("skipping content type: %v", err)
			res.SkippedSchemas++
			continue
		}
		schemas = append(schemas, s)
	}

	componentsDir := project.ComponentsDir()
	for _, path := range project.Components {
		s, err := strapi.LoadComponent(path, componentsDir)
		if err != nil {
			log.Errorf("skipping component: %v", err)
			res.SkippedSchemas++
			continue
		}
		schemas = append(schemas, s)
	}
	return schemas
}

// assembleAll maps every schema to an InterfaceSpec, dropping schemas whose
// interface name cannot be derived.
func assembleAll(schemas []*strapi.Schema, resolver customfield.Resolver, log *zap.SugaredLogger, res *Result) []*InterfaceSpec {
	var specs []*InterfaceSpec
	for _, s := range schemas {
		spec := Assemble(s, resolver, log)
		if spec.Name == "" {
			log.Errorf("schema %s declares neither info.singularName nor a component identity; no interface emitted", s.Path)
			res.SkippedSchemas++
			continue
		}
		specs = append(specs, spec)
	}
	return specs
}

// dropDuplicates removes later specs whose derived name collides with an
// earlier one. Input must be sorted by name; the first occurrence (by
// sorted source order) wins so output stays deterministic.
func dropDuplicates(specs []*InterfaceSpec, log *zap.SugaredLogger, res *Result) []*InterfaceSpec {
	out := specs[:0]
	for i, spec := range specs {
		if i > 0 && specs[i-1].Name == spec.Name {
			log.Errorf("interface name %s derived from both %s and %s; keeping the first",
				spec.Name, specs[i-1].Source, spec.Source)
			res.SkippedSchemas++
			continue
		}
		out = append(out, spec)
	}
	return out
}

// renderAll produces the final output text: referenced marker interfaces
// first (each exactly once, in sorted order), then the named interfaces in
// their sorted order, each declaration followed by a blank line.
func renderAll(specs []*InterfaceSpec, res *Result) string {
	referenced := make(map[string]bool)
	for _, spec := range specs {
		for _, parent := range spec.Parents {
			referenced[parent] = true
		}
	}
	markers := make([]string, 0, len(referenced))
	for name := range referenced {
		markers = append(markers, name)
	}
	sort.Strings(markers)

	var b strings.Builder
	for _, name := range markers {
		b.WriteString(markerDecls[name])
		b.WriteString("\n\n")
		res.Markers++
	}
	for _, spec := range specs {
		b.WriteString(spec.Render())
		b.WriteString("\n\n")
		res.Interfaces++
	}
	return b.String()
}

// writeOutput writes the assembled text to the configured sink in one
// pass, after all per-schema work has completed.
func writeOutput(outFile, text string) error {
	var w io.Writer = os.Stdout
	if outFile != "" {
		f, err := os.Create(outFile)
		if err != nil {
			return errors.Wrapf(err, "creating %s", outFile)
		}
		defer f.Close()
		w = f
	}
	if _, err := io.WriteString(w, text); err != nil {
		return errors.Wrap(err, "writing output")
	}
	return nil
}

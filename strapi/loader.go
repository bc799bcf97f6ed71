package strapi

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrNotProjectRoot marks the fatal error returned when the root directory
// does not contain the expected src/api subtree. No schema files can exist
// outside that layout, so callers should terminate rather than continue.
var ErrNotProjectRoot = errors.New("not a valid Strapi project root")

// ErrInvalidSchema marks per-file parse failures. Callers are expected to
// report the file and continue with the remaining schemas.
var ErrInvalidSchema = errors.New("invalid schema document")

// Project holds the discovered schema file sets of one Strapi project.
type Project struct {
	// Root is the project root directory the paths below are relative to.
	Root string

	// ContentTypes are schema.json files found under src/api, sorted.
	ContentTypes []string

	// Components are *.json files found under src/components, sorted.
	Components []string
}

// ComponentsDir returns the absolute components root of the project.
func (p *Project) ComponentsDir() string {
	return filepath.Join(p.Root, "src", "components")
}

// DiscoverProject enumerates the schema files of the Strapi project rooted
// at root. Content-type schemas are files named schema.json anywhere under
// <root>/src/api; component schemas are any .json file under
// <root>/src/components. Both lists are returned sorted for deterministic
// processing order.
//
// A missing src/api subtree returns an error marked with ErrNotProjectRoot.
func DiscoverProject(root string) (*Project, error) {
	apiDir := filepath.Join(root, "src", "api")
	if fi, err := os.Stat(apiDir); err != nil || !fi.IsDir() {
		return nil, errors.WithHint(
			errors.Wrapf(ErrNotProjectRoot, "missing %s", apiDir),
			"point --strapi-root-directory at the top-level directory of a "+
				"Strapi project (the directory containing src/api)")
	}

	p := &Project{Root: root}

	err := filepath.WalkDir(apiDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == "schema.json" {
			p.ContentTypes = append(p.ContentTypes, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "scanning %s", apiDir)
	}

	componentsDir := p.ComponentsDir()
	if fi, err := os.Stat(componentsDir); err == nil && fi.IsDir() {
		err := filepath.WalkDir(componentsDir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.HasSuffix(d.Name(), ".json") {
				p.Components = append(p.Components, path)
			}
			return nil
		})
		if err != nil {
			return nil, errors.Wrapf(err, "scanning %s", componentsDir)
		}
	}

	sort.Strings(p.ContentTypes)
	sort.Strings(p.Components)
	return p, nil
}

// LoadSchema reads and parses one content-type schema file. Parse failures
// are marked with ErrInvalidSchema so callers can skip the file and
// continue the run.
func LoadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading schema %s", path)
	}

	var s Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "parsing schema %s", path), ErrInvalidSchema)
	}
	s.Path = path
	return &s, nil
}

// LoadComponent reads and parses one component schema file, deriving the
// component's category and name from its path below componentsRoot.
func LoadComponent(path, componentsRoot string) (*Schema, error) {
	s, err := LoadSchema(path)
	if err != nil {
		return nil, err
	}

	rel, err := filepath.Rel(componentsRoot, path)
	if err != nil {
		return nil, errors.Wrapf(err, "relativizing component path %s", path)
	}
	category, name := SplitComponentPath(filepath.ToSlash(rel))
	s.Category = category
	s.Name = name
	return s, nil
}

// SplitComponentPath splits a slash-separated path relative to the
// components root into the component's category (first segment) and name
// (remainder without the .json extension).
func SplitComponentPath(rel string) (category, name string) {
	rel = strings.TrimSuffix(rel, ".json")
	category, name, found := strings.Cut(rel, "/")
	if !found {
		// File directly under the components root; Strapi always nests
		// components one level deep, but don't lose the name if not.
		return "", category
	}
	return category, name
}

// Command embedded_generator shows how to run the generator as a library
// with a compiled-in custom-field mapper instead of a WASM extension
// directory. The mapper below handles the color-picker plugin's field.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/strapikit/typegen/customfield"
	"github.com/strapikit/typegen/internal/generator"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <strapi-project-root>\n", os.Args[0])
		os.Exit(1)
	}

	registry := customfield.NewRegistry()
	err := registry.Register("color-picker.color", func(options json.RawMessage) (string, error) {
		return "`#${string}`", nil
	})
	if err != nil {
		log.Fatal(err)
	}

	res, err := generator.Run(generator.Config{
		RootDir:  os.Args[1],
		Resolver: registry,
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Fprintf(os.Stderr, "emitted %d interfaces (%d markers), skipped %d schemas\n",
		res.Interfaces, res.Markers, res.SkippedSchemas)
}

// Command list_attributes reads a Strapi project and prints every content
// type and component with its attributes in declaration order, without
// generating any TypeScript.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/strapikit/typegen/strapi"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <strapi-project-root>\n", os.Args[0])
		os.Exit(1)
	}

	project, err := strapi.DiscoverProject(os.Args[1])
	if err != nil {
		log.Fatal(err)
	}

	for _, path := range project.ContentTypes {
		s, err := strapi.LoadSchema(path)
		if err != nil {
			log.Printf("skipping %s: %v", path, err)
			continue
		}
		printSchema("content type", s.Info.SingularName, s)
	}

	componentsDir := project.ComponentsDir()
	for _, path := range project.Components {
		s, err := strapi.LoadComponent(path, componentsDir)
		if err != nil {
			log.Printf("skipping %s: %v", path, err)
			continue
		}
		printSchema("component", s.Category+"."+s.Name, s)
	}
}

func printSchema(kind, name string, s *strapi.Schema) {
	fmt.Printf("%s: %s\n", kind, name)
	for _, attr := range s.Attributes {
		required := ""
		if attr.Required {
			required = " [required]"
		}
		fmt.Printf("  %-30s %s%s\n", attr.Name, attr.Type, required)
	}
	fmt.Println()
}

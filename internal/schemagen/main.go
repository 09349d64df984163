// Command schemagen writes the rule file JSON schema.
package main

import (
	"flag"
	"log"

	"github.com/macropower/repofilter/api"
	"github.com/macropower/repofilter/pkg/rules"
)

var outFile = flag.String("o", "rules.schema.json", "Output file for the generated schema")

func main() {
	flag.Parse()

	jsData, err := rules.Schema()
	if err != nil {
		log.Fatalf("generate JSON schema: %v", err)
	}

	err = api.WriteFile(*outFile, append(jsData, '\n'))
	if err != nil {
		log.Fatalf("write schema file: %v", err)
	}
}

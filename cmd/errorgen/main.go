package main

import (
	"log"

	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/codegen/errorgen"
)

const (
	csvFile      = "./storages/errors-map.csv"
	templateFile = "./internal/common/codegen/errorgen/error_map.tmpl"
	outputFile   = "./internal/models/error_map.go"
)

func main() {
	if err := errorgen.GenerateErrorMapFromCSV(templateFile, csvFile, outputFile); err != nil {
		log.Fatal(err)
	}
	log.Printf("written %s", outputFile)
}

// Package errorgen renders internal/models/error_map.go from the error CSV in
// storages/. Each CSV row is "key,code,message".
package errorgen

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"go/format"
	"io"
	"os"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig"
	"github.com/iancoleman/strcase"
)

type (
	ErrorGen struct {
		ErrorMaps     []ErrorMap
		ErrorKeys     []Entry
		ErrorMessages []Entry
		ErrorCodes    []Entry
	}

	ErrorMap struct {
		Key     string
		Code    string
		Message string
	}

	Entry struct {
		Key         string
		Description string
	}
)

func identifier(prefix, s string) string {
	return prefix + strings.ReplaceAll(strcase.ToCamel(s), " ", "")
}

// Parse reads the CSV and deduplicates codes and messages so every distinct
// one is declared once.
func Parse(r io.Reader) (ErrorGen, error) {
	lines, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return ErrorGen{}, fmt.Errorf("read csv: %w", err)
	}

	var (
		data         ErrorGen
		seenKey      = make(map[string]bool)
		seenCode     = make(map[string]bool)
		seenMessages = make(map[string]bool)
	)
	for i := 1; i < len(lines); i++ {
		if len(lines[i]) < 3 {
			return ErrorGen{}, fmt.Errorf("line %d: expected 3 columns, got %d", i+1, len(lines[i]))
		}
		key, code, message := lines[i][0], lines[i][1], lines[i][2]

		errKey := identifier("ErrKey", key)
		if seenKey[errKey] {
			return ErrorGen{}, fmt.Errorf("line %d: duplicate key %q", i+1, key)
		}
		seenKey[errKey] = true
		data.ErrorKeys = append(data.ErrorKeys, Entry{Key: errKey, Description: key})

		errCode := identifier("ErrCode", code)
		if !seenCode[errCode] {
			data.ErrorCodes = append(data.ErrorCodes, Entry{Key: errCode, Description: code})
			seenCode[errCode] = true
		}

		errMessage := identifier("err", message)
		if !seenMessages[errMessage] {
			data.ErrorMessages = append(data.ErrorMessages, Entry{Key: errMessage, Description: message})
			seenMessages[errMessage] = true
		}

		data.ErrorMaps = append(data.ErrorMaps, ErrorMap{Key: errKey, Code: errCode, Message: errMessage})
	}

	return data, nil
}

// Render executes the template and gofmt's the result.
func Render(tmplText string, data ErrorGen) ([]byte, error) {
	tmpl, err := template.New("error_map").Funcs(sprig.TxtFuncMap()).Parse(tmplText)
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}

	var processed bytes.Buffer
	if err := tmpl.Execute(&processed, data); err != nil {
		return nil, fmt.Errorf("execute template: %w", err)
	}

	formatted, err := format.Source(processed.Bytes())
	if err != nil {
		return nil, fmt.Errorf("format generated source: %w", err)
	}
	return formatted, nil
}

func GenerateErrorMapFromCSV(templateFile, csvFile, outputFile string) error {
	tmplText, err := os.ReadFile(templateFile)
	if err != nil {
		return err
	}

	f, err := os.Open(csvFile)
	if err != nil {
		return err
	}
	defer f.Close()

	data, err := Parse(f)
	if err != nil {
		return err
	}

	out, err := Render(string(tmplText), data)
	if err != nil {
		return err
	}

	return os.WriteFile(outputFile, out, 0o644)
}

package errorgen

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `key,code,message
data not found,NOT_FOUND,data not found
account not found,NOT_FOUND,account not found
amount_required,INVALID_INPUT,amount is required
`

func TestParse(t *testing.T) {
	data, err := Parse(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	assert.Len(t, data.ErrorKeys, 3)
	assert.Len(t, data.ErrorCodes, 2)
	assert.Len(t, data.ErrorMessages, 3)
	assert.Equal(t, ErrorMap{
		Key:     "ErrKeyAmountRequired",
		Code:    "ErrCodeInvalidInput",
		Message: "errAmountIsRequired",
	}, data.ErrorMaps[2])
}

func TestParse_DuplicateKey(t *testing.T) {
	_, err := Parse(strings.NewReader(sampleCSV + "data not found,NOT_FOUND,other\n"))
	assert.ErrorContains(t, err, "duplicate key")
}

func TestParse_ShortLine(t *testing.T) {
	_, err := Parse(strings.NewReader("key,code,message\nonly,two\n"))
	assert.Error(t, err)
}

func TestGenerateErrorMapFromCSV(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "errors.csv")
	outPath := filepath.Join(dir, "error_map.go")
	require.NoError(t, os.WriteFile(csvPath, []byte(sampleCSV), 0o600))

	err := GenerateErrorMapFromCSV("error_map.tmpl", csvPath, outPath)
	require.NoError(t, err)

	out, err := os.ReadFile(outPath)
	require.NoError(t, err)
	// gofmt pads keys in a block to the widest one
	assert.Regexp(t, `ErrKeyAccountNotFound\s+= "account not found"`, string(out))
	assert.Regexp(t, `ErrKeyAmountRequired:\s+\{Code: ErrCodeInvalidInput, ErrorMessage: errAmountIsRequired\},`, string(out))
	assert.Regexp(t, `ErrKeyDataNotFound:\s+\{Code: ErrCodeNotFound, ErrorMessage: errDataNotFound\},`, string(out))
}

package identity

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

const (
	aliasFileOpenErrorTemplateConstant  = "unable to open alias file: %w"
	aliasFileParseErrorTemplateConstant = "unable to parse alias file: %w"
	aliasColumnCountMinimumConstant     = 2
)

// LoadAliases reads the manual alias table from a two-column CSV file mapping
// source handles to target display strings. Rows missing either column are
// skipped; cells are trimmed. An empty path yields an empty table.
func LoadAliases(aliasFilePath string) (map[string]string, error) {
	if len(strings.TrimSpace(aliasFilePath)) == 0 {
		return map[string]string{}, nil
	}

	aliasFile, openError := os.Open(aliasFilePath)
	if openError != nil {
		return nil, fmt.Errorf(aliasFileOpenErrorTemplateConstant, openError)
	}
	defer func() { _ = aliasFile.Close() }()

	csvReader := csv.NewReader(aliasFile)
	csvReader.FieldsPerRecord = -1

	records, readError := csvReader.ReadAll()
	if readError != nil {
		return nil, fmt.Errorf(aliasFileParseErrorTemplateConstant, readError)
	}

	aliases := make(map[string]string, len(records))
	for _, record := range records {
		if len(record) < aliasColumnCountMinimumConstant {
			continue
		}

		sourceHandle := strings.TrimSpace(record[0])
		targetDisplayString := strings.TrimSpace(record[1])
		if len(sourceHandle) == 0 || len(targetDisplayString) == 0 {
			continue
		}

		aliases[sourceHandle] = targetDisplayString
	}

	return aliases, nil
}

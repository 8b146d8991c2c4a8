package batch

import (
	"encoding/json"
	"os"
)

// WriteReport writes the batch result as report.json-style output.
func WriteReport(path string, result *Result) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

package corpus

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/amethystkombucha/chatbot/classifier"
)

// Export is the shape written by the testing page's export button: the
// bundled corpus plus examples added by hand.
type Export struct {
	OriginalData []classifier.TrainingExample `json:"originalData"`
	CustomData   []classifier.TrainingExample `json:"customData"`
}

// Parse decodes a corpus from JSON. Both a plain example array and an Export
// object are accepted; an Export yields OriginalData followed by CustomData.
func Parse(data []byte) ([]classifier.TrainingExample, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("corpus: empty document")
	}

	var examples []classifier.TrainingExample
	if trimmed[0] == '{' {
		var export Export
		if err := json.Unmarshal(trimmed, &export); err != nil {
			return nil, fmt.Errorf("corpus: %w", err)
		}
		examples = append(export.OriginalData, export.CustomData...)
	} else if err := json.Unmarshal(trimmed, &examples); err != nil {
		return nil, fmt.Errorf("corpus: %w", err)
	}

	if err := Validate(examples); err != nil {
		return nil, err
	}
	return examples, nil
}

// Load reads and validates a corpus file.
func Load(path string) ([]classifier.TrainingExample, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("corpus: %w", err)
	}
	examples, err := Parse(data)
	if err != nil {
		return nil, err
	}
	slog.Debug("Loaded corpus", "path", path, "examples", len(examples))
	return examples, nil
}

// Save writes examples as an indented JSON array.
func Save(path string, examples []classifier.TrainingExample) error {
	if examples == nil {
		examples = []classifier.TrainingExample{}
	}
	data, err := json.MarshalIndent(examples, "", "  ")
	if err != nil {
		return fmt.Errorf("corpus: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

// SaveExport writes the bundled and custom examples in the Export shape.
func SaveExport(path string, original, custom []classifier.TrainingExample) error {
	export := Export{OriginalData: original, CustomData: custom}
	if export.OriginalData == nil {
		export.OriginalData = []classifier.TrainingExample{}
	}
	if export.CustomData == nil {
		export.CustomData = []classifier.TrainingExample{}
	}
	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("corpus: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/gitscribe/gitscribe/internal/infra/catalog"
)

// selection is the persisted model choice: a one-key JSON record.
type selection struct {
	SelectedModel string `json:"selectedModel"`
}

// selectionFile is the filename of the record inside the gitscribe home.
const selectionFile = "config.json"

// SelectedModel returns the persisted model id from dir.
// A missing, unreadable, or unparsable record falls back to the built-in
// default — never an error; a bad file earns a logged warning only.
func SelectedModel(dir string) string {
	path := filepath.Join(dir, selectionFile)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return catalog.DefaultModel
	}
	if err != nil {
		log.Printf("warning: read %s: %v — using default model", path, err)
		return catalog.DefaultModel
	}

	var sel selection
	if err := json.Unmarshal(data, &sel); err != nil {
		log.Printf("warning: parse %s: %v — using default model", path, err)
		return catalog.DefaultModel
	}
	if sel.SelectedModel == "" {
		return catalog.DefaultModel
	}
	return sel.SelectedModel
}

// SaveSelectedModel persists the model id to dir.
func SaveSelectedModel(dir, id string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(selection{SelectedModel: id}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, selectionFile), data, 0o644)
}

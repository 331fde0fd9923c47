package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"timelane/internal/config"
	"timelane/internal/ics"
	"timelane/internal/model"
)

// LoadFile reads an items file. The format follows the extension: .yaml/.yml
// and .json hold a list of items, .ics is imported as a calendar feed named
// after the file.
func LoadFile(path string) ([]model.Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read items file: %w", err)
	}

	var items []model.Item
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("yaml unmarshal: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("json unmarshal: %w", err)
		}
	case ".ics":
		items, err = ics.ParseItems(ics.Source{URL: "file://" + path}, data)
		if err != nil {
			return nil, fmt.Errorf("ics import: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported items file extension %q", ext)
	}
	if items == nil {
		items = []model.Item{}
	}
	return items, nil
}

// SaveFile writes items as YAML or JSON depending on the extension.
func SaveFile(path string, items []model.Item) error {
	var (
		data []byte
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(items)
	case ".json":
		data, err = json.MarshalIndent(items, "", "  ")
	default:
		return fmt.Errorf("unsupported items file extension %q", ext)
	}
	if err != nil {
		return fmt.Errorf("marshal items: %w", err)
	}
	return config.WriteFileAtomic(path, data, 0o644)
}

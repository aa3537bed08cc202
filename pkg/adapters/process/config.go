package process

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ToolSpec declares one local command the agent may call.
type ToolSpec struct {
	Name        string            `yaml:"name" json:"name"`
	Command     string            `yaml:"command" json:"command"`
	Args        []string          `yaml:"args" json:"args"`
	Env         map[string]string `yaml:"env" json:"env"`
	Description string            `yaml:"description" json:"description"`
	// Parameters is a JSON-schema object describing the action arguments.
	Parameters map[string]any `yaml:"parameters" json:"parameters"`
}

type toolFile struct {
	Tools []ToolSpec `yaml:"tools" json:"tools"`
}

// LoadTools reads a tool allow-list (YAML, or JSON by extension) keyed by tool name.
// A missing file means no tools are allowed.
func LoadTools(path string) (map[string]ToolSpec, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return map[string]ToolSpec{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read tools file: %w", err)
	}

	file, err := decodeToolFile(path, data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	specs := make(map[string]ToolSpec, len(file.Tools))
	for i, spec := range file.Tools {
		switch {
		case spec.Name == "":
			return nil, fmt.Errorf("%s: tool #%d has no name", path, i+1)
		case spec.Command == "":
			return nil, fmt.Errorf("%s: tool %q has no command", path, spec.Name)
		}
		if _, dup := specs[spec.Name]; dup {
			return nil, fmt.Errorf("%s: tool %q declared twice", path, spec.Name)
		}
		specs[spec.Name] = spec
	}
	return specs, nil
}

func decodeToolFile(path string, data []byte) (toolFile, error) {
	var file toolFile
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return file, json.Unmarshal(data, &file)
	}
	return file, yaml.Unmarshal(data, &file)
}

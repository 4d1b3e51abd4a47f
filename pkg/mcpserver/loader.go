package mcpserver

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadTools reads tool definitions from a JSON file on disk.
func LoadTools(path string) ([]Tool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tools %s: %w", path, err)
	}
	return ParseTools(data)
}

// ParseTools parses and compiles tool definitions from raw JSON bytes.
func ParseTools(data []byte) ([]Tool, error) {
	var tools []Tool
	if err := json.Unmarshal(data, &tools); err != nil {
		return nil, fmt.Errorf("parse tools: %w", err)
	}
	for i := range tools {
		if err := tools[i].compile(); err != nil {
			return nil, err
		}
	}
	return tools, nil
}

// LoadResources reads resource definitions from a JSON file on disk.
func LoadResources(path string) ([]Resource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read resources %s: %w", path, err)
	}
	return ParseResources(data)
}

// ParseResources parses resource definitions from raw JSON bytes.
func ParseResources(data []byte) ([]Resource, error) {
	var resources []Resource
	if err := json.Unmarshal(data, &resources); err != nil {
		return nil, fmt.Errorf("parse resources: %w", err)
	}
	return resources, nil
}

package world

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Location is one node of the world graph.
type Location struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Connections []string `yaml:"connections"`
}

// Map is the loadable shape of a world: a starting location plus the
// location graph keyed by location name.
type Map struct {
	Start     string              `yaml:"start"`
	Locations map[string]Location `yaml:"locations"`
}

// ParseMap decodes a YAML world map and validates its graph: the start
// location must exist and every connection must point at a known
// location.
func ParseMap(data []byte) (*Map, error) {
	var m Map
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse world map: %w", err)
	}

	if len(m.Locations) == 0 {
		return nil, fmt.Errorf("world map has no locations")
	}
	if m.Start == "" {
		return nil, fmt.Errorf("world map has no start location")
	}
	if _, ok := m.Locations[m.Start]; !ok {
		return nil, fmt.Errorf("start location %q is not in the map", m.Start)
	}
	for name, location := range m.Locations {
		for _, connection := range location.Connections {
			if _, ok := m.Locations[connection]; !ok {
				return nil, fmt.Errorf("location %q connects to unknown location %q", name, connection)
			}
		}
	}
	return &m, nil
}

// LoadMap reads and parses a YAML world map from disk.
func LoadMap(path string) (*Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read world map: %w", err)
	}
	return ParseMap(data)
}

// DefaultMap is the built-in three-room world used when no map file is
// provided.
func DefaultMap() *Map {
	return &Map{
		Start: "the commons",
		Locations: map[string]Location{
			"the commons": {
				Name:        "the commons",
				Description: "A worn meeting ground with benches around a cold fire pit.",
				Connections: []string{"the garden", "the library"},
			},
			"the garden": {
				Name:        "the garden",
				Description: "Overgrown beds of herbs, humming with insects.",
				Connections: []string{"the commons"},
			},
			"the library": {
				Name:        "the library",
				Description: "Shelves of mismatched books, most of them unreadable.",
				Connections: []string{"the commons"},
			},
		},
	}
}

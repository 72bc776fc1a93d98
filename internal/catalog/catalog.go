// Package catalog maps free-text service labels to template folders.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrServicioNotFound is returned for labels not present in the table
var ErrServicioNotFound = errors.New("servicio no reconocido")

//go:embed services.yaml
var defaultServicesYAML []byte

// Catalog is an exact-match lookup table from service label to template folder.
// No fuzzy matching and no normalization: existing callers submit labels
// verbatim, several of them misspelled, and those keys must keep working.
type Catalog struct {
	services map[string]string
}

// Load builds the catalog from the YAML file at path, or from the embedded
// default table when path is empty.
func Load(path string) (*Catalog, error) {
	data := defaultServicesYAML
	if path != "" {
		fileData, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read services file: %w", err)
		}
		data = fileData
	}

	services := map[string]string{}
	if err := yaml.Unmarshal(data, &services); err != nil {
		return nil, fmt.Errorf("failed to parse services file: %w", err)
	}
	if len(services) == 0 {
		return nil, errors.New("services table is empty")
	}
	return &Catalog{services: services}, nil
}

// Resolve returns the template folder for the given service label
func (c *Catalog) Resolve(serviceLabel string) (string, error) {
	folder, ok := c.services[serviceLabel]
	if !ok {
		return "", ErrServicioNotFound
	}
	return folder, nil
}

// Len returns the number of known service labels
func (c *Catalog) Len() int {
	return len(c.services)
}

package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	ErrEmptyID     = errors.New("registry: service id is empty")
	ErrDuplicateID = errors.New("registry: duplicate service id")
)

// Descriptor is one catalog entry. Endpoint is a template that may contain
// the version placeholder.
type Descriptor struct {
	ID       string `json:"Id" yaml:"Id"`
	Version  string `json:"Version" yaml:"Version"`
	Endpoint string `json:"Endpoint" yaml:"Endpoint"`
}

type catalogDocument struct {
	Services []Descriptor `json:"Services" yaml:"Services"`
}

// Load reads the catalog document at path. JSON documents are decoded with
// encoding/json, everything else as YAML.
func Load(path string, opts Options) (*Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	services, contentType, err := parseCatalog(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}

	return New(raw, contentType, services, opts)
}

func parseCatalog(raw []byte) ([]Descriptor, string, error) {
	var doc catalogDocument
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, "", err
		}
		return doc.Services, "application/json", nil
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, "", err
	}
	return doc.Services, "application/yaml", nil
}

func validate(services []Descriptor) error {
	seen := make(map[string]struct{}, len(services))
	for i, svc := range services {
		if strings.TrimSpace(svc.ID) == "" {
			return fmt.Errorf("service #%d: %w", i, ErrEmptyID)
		}
		if _, exists := seen[svc.ID]; exists {
			return fmt.Errorf("service %q: %w", svc.ID, ErrDuplicateID)
		}
		seen[svc.ID] = struct{}{}
	}
	return nil
}

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/couchcryptid/obs-catalog-service/internal/domain"
)

// ProviderConfig selects a provider and optionally overrides its obs dirs
// and store location.
type ProviderConfig struct {
	Name    string   `yaml:"name"`
	ObsDirs []string `yaml:"obs_dirs,omitempty"`
	Store   string   `yaml:"store,omitempty"`
}

// providersFile is the layout of PROVIDERS_FILE.
type providersFile struct {
	Providers []ProviderConfig `yaml:"providers"`
}

// loadProviders builds the provider list. The file, when given, supplies the
// candidates and their overrides; otherwise every built-in grammar is a
// candidate. A non-empty selection narrows the candidates by name.
func loadProviders(path, selection string) ([]ProviderConfig, error) {
	var candidates []ProviderConfig
	if path != "" {
		file, err := ReadProvidersFile(path)
		if err != nil {
			return nil, err
		}
		candidates = file
	} else {
		for _, name := range domain.ProviderNames() {
			candidates = append(candidates, ProviderConfig{Name: name})
		}
	}

	if selection == "" {
		return candidates, nil
	}

	byName := make(map[string]ProviderConfig, len(candidates))
	for _, p := range candidates {
		byName[p.Name] = p
	}
	var out []ProviderConfig
	for _, name := range strings.Split(selection, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		p, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("invalid PROVIDERS: %w: %q", domain.ErrUnknownProvider, name)
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("PROVIDERS %q selects no provider", selection)
	}
	return out, nil
}

// ReadProvidersFile parses a YAML provider file:
//
//	providers:
//	  - name: nesdis_mirs
//	    obs_dirs: [seaice_mirs]
//	    store: /data/mirs.db
func ReadProvidersFile(path string) ([]ProviderConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read PROVIDERS_FILE: %w", err)
	}
	var file providersFile
	if err := yaml.UnmarshalWithOptions(data, &file, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("parse PROVIDERS_FILE %s: %w", path, err)
	}

	seen := make(map[string]bool, len(file.Providers))
	for _, p := range file.Providers {
		if _, err := domain.LookupGrammar(p.Name); err != nil {
			return nil, fmt.Errorf("PROVIDERS_FILE %s: %w", path, err)
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("PROVIDERS_FILE %s: provider %q listed twice", path, p.Name)
		}
		seen[p.Name] = true
	}
	if len(file.Providers) == 0 {
		return nil, fmt.Errorf("PROVIDERS_FILE %s lists no providers", path)
	}
	return file.Providers, nil
}

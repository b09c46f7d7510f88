package manifest

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads and validates a manifest from the given file path.
//
// Returns an error if:
//   - The file cannot be read (not found, permission denied, etc.)
//   - The file content is not valid YAML
//   - The manifest fails validation
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("manifest file not found: %s", path)
		}
		if os.IsPermission(err) {
			return nil, fmt.Errorf("permission denied reading manifest: %s", path)
		}
		return nil, fmt.Errorf("failed to read manifest file: %w", err)
	}

	return LoadFromBytes(data)
}

// LoadFromBytes parses and validates a manifest from raw bytes.
func LoadFromBytes(data []byte) (*Manifest, error) {
	if len(data) == 0 {
		return nil, errors.New("manifest file is empty")
	}

	var m Manifest
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	m.applyDefaults()

	return &m, nil
}

// Validate checks manifest invariants before defaults are applied.
func (m *Manifest) Validate() error {
	if m.Version != "1.0" {
		return fmt.Errorf("unsupported manifest version %q (want \"1.0\")", m.Version)
	}
	if len(m.Employers) == 0 {
		return errors.New("manifest must list at least one employer")
	}

	seen := make(map[string]struct{}, len(m.Employers))
	for i, e := range m.Employers {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			return fmt.Errorf("employers[%d]: name is required", i)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("employers[%d]: duplicate employer name %q", i, name)
		}
		seen[name] = struct{}{}

		if err := validateListingURL(e.ListingURL); err != nil {
			return fmt.Errorf("employers[%d] (%s): %w", i, name, err)
		}
		for _, extra := range e.ExtraListingURLs {
			if err := validateListingURL(extra); err != nil {
				return fmt.Errorf("employers[%d] (%s): %w", i, name, err)
			}
		}
	}

	if ep := strings.TrimSpace(m.Submit.Endpoint); ep != "" {
		u, err := url.Parse(ep)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("submit.endpoint %q is not a valid URL", ep)
		}
	}

	return nil
}

func validateListingURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return errors.New("listing_url is required")
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("listing_url %q is not an absolute URL", raw)
	}
	return nil
}

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DescriptorFileName is the descriptor each service directory must contain.
const DescriptorFileName = "service.yaml"

// For mocking in tests
var osReadFile = os.ReadFile

// DescriptorError reports a service.yaml that could not be read, parsed, or
// validated. Discovery treats it as per-entry: the entry is skipped and the
// scan continues.
type DescriptorError struct {
	Path   string // descriptor file path
	Reason string
	Err    error // underlying read/parse error, if any
}

func (e *DescriptorError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("descriptor %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("descriptor %s: %s", e.Path, e.Reason)
}

func (e *DescriptorError) Unwrap() error { return e.Err }

// descriptor mirrors the service.yaml wire format. The nested dependencies
// block is flattened into ServiceConfig during conversion.
type descriptor struct {
	Name         string         `yaml:"name"`
	Description  string         `yaml:"description"`
	Category     string         `yaml:"category"`
	Vendor       *VendorConfig  `yaml:"vendor"`
	Ports        []PortConfig   `yaml:"ports"`
	EnvVars      []EnvVarConfig `yaml:"env_vars"`
	Dependencies struct {
		System   []string `yaml:"system"`
		Services []string `yaml:"services"`
	} `yaml:"dependencies"`
	Lifecycle LifecycleCommands `yaml:"lifecycle"`
	Notes     map[string]string `yaml:"notes"`
}

// LoadServiceConfig reads and validates <dir>/service.yaml and returns the
// immutable ServiceConfig for that directory. The returned error is always a
// *DescriptorError.
func LoadServiceConfig(dir string) (ServiceConfig, error) {
	file := filepath.Join(dir, DescriptorFileName)
	data, err := osReadFile(file)
	if err != nil {
		return ServiceConfig{}, &DescriptorError{Path: file, Reason: "cannot read descriptor", Err: err}
	}
	return parseDescriptor(file, dir, data)
}

func parseDescriptor(file, dir string, data []byte) (ServiceConfig, error) {
	var d descriptor
	if err := yaml.Unmarshal(data, &d); err != nil {
		return ServiceConfig{}, &DescriptorError{Path: file, Reason: "invalid YAML", Err: err}
	}

	if d.Name == "" {
		return ServiceConfig{}, &DescriptorError{Path: file, Reason: "missing required field: name"}
	}
	if d.Description == "" {
		return ServiceConfig{}, &DescriptorError{Path: file, Reason: "missing required field: description"}
	}
	if d.Vendor != nil {
		if d.Vendor.URL == "" {
			return ServiceConfig{}, &DescriptorError{Path: file, Reason: "vendor block requires url"}
		}
		if d.Vendor.Ref == "" {
			return ServiceConfig{}, &DescriptorError{Path: file, Reason: "vendor block requires ref"}
		}
	}

	category := d.Category
	if category == "" {
		category = CategoryOptional
	}

	notes := d.Notes
	if notes == nil {
		notes = map[string]string{}
	}

	return ServiceConfig{
		ID:                  filepath.Base(dir),
		Name:                d.Name,
		Description:         d.Description,
		Category:            category,
		Path:                dir,
		Vendor:              d.Vendor,
		Ports:               d.Ports,
		EnvVars:             d.EnvVars,
		SystemDependencies:  d.Dependencies.System,
		ServiceDependencies: d.Dependencies.Services,
		Notes:               notes,
		Lifecycle:           d.Lifecycle,
	}, nil
}

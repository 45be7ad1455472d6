package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper to write a descriptor into a fresh service directory
func writeDescriptor(t *testing.T, root, id, content string) string {
	t.Helper()
	dir := filepath.Join(root, id)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, DescriptorFileName), []byte(content), 0644))
	return dir
}

func TestLoadServiceConfig_FullDescriptor(t *testing.T) {
	root := t.TempDir()
	dir := writeDescriptor(t, root, "openmemory", `
name: OpenMemory
description: Self-hosted memory layer
category: core
vendor:
  url: https://github.com/example/openmemory
  ref: v0.4.2
ports:
  - name: api
    port: 8765
    health_endpoint: /health
  - name: ui
    port: 3000
env_vars:
  - name: OPENAI_API_KEY
    required: true
    secret: true
    description: API key for embeddings
  - name: LOG_LEVEL
    default: info
dependencies:
  system: [docker, git]
  services: [qdrant]
lifecycle:
  start: ./start.sh
  status: "curl -sf localhost:8765/health"
notes:
  dashboard: http://localhost:8765
`)

	cfg, err := LoadServiceConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "openmemory", cfg.ID)
	assert.Equal(t, "OpenMemory", cfg.Name)
	assert.Equal(t, "Self-hosted memory layer", cfg.Description)
	assert.Equal(t, CategoryCore, cfg.Category)
	assert.Equal(t, dir, cfg.Path)

	require.NotNil(t, cfg.Vendor)
	assert.Equal(t, "https://github.com/example/openmemory", cfg.Vendor.URL)
	assert.Equal(t, "v0.4.2", cfg.Vendor.Ref)

	require.Len(t, cfg.Ports, 2)
	assert.Equal(t, PortConfig{Name: "api", Port: 8765, HealthEndpoint: "/health"}, cfg.Ports[0])
	assert.Equal(t, PortConfig{Name: "ui", Port: 3000}, cfg.Ports[1])

	require.Len(t, cfg.EnvVars, 2)
	assert.True(t, cfg.EnvVars[0].Required)
	assert.True(t, cfg.EnvVars[0].Secret)
	assert.Equal(t, "info", cfg.EnvVars[1].Default)

	assert.Equal(t, []string{"docker", "git"}, cfg.SystemDependencies)
	assert.Equal(t, []string{"qdrant"}, cfg.ServiceDependencies)
	assert.Equal(t, "./start.sh", cfg.Lifecycle.Start)
	assert.Equal(t, "curl -sf localhost:8765/health", cfg.Lifecycle.Status)
	assert.Empty(t, cfg.Lifecycle.Stop)
	assert.Equal(t, "http://localhost:8765", cfg.Notes["dashboard"])
}

func TestLoadServiceConfig_Defaults(t *testing.T) {
	root := t.TempDir()
	dir := writeDescriptor(t, root, "minimal", `
name: Minimal
description: Bare descriptor
`)

	cfg, err := LoadServiceConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, CategoryOptional, cfg.Category)
	assert.Nil(t, cfg.Vendor)
	assert.Empty(t, cfg.Ports)
	assert.Empty(t, cfg.EnvVars)
	assert.Empty(t, cfg.SystemDependencies)
	assert.Empty(t, cfg.ServiceDependencies)
	assert.NotNil(t, cfg.Notes)
	assert.Empty(t, cfg.Notes)
	assert.Equal(t, LifecycleCommands{}, cfg.Lifecycle)
}

func TestLoadServiceConfig_MissingRequiredFields(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{
			name:    "missing name",
			content: "description: no name here\n",
			wantMsg: "missing required field: name",
		},
		{
			name:    "missing description",
			content: "name: nodesc\n",
			wantMsg: "missing required field: description",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			dir := writeDescriptor(t, root, "svc", tt.content)

			_, err := LoadServiceConfig(dir)
			require.Error(t, err)

			var de *DescriptorError
			require.True(t, errors.As(err, &de))
			assert.Contains(t, de.Reason, tt.wantMsg)
		})
	}
}

func TestLoadServiceConfig_VendorRequiresBothFields(t *testing.T) {
	tests := []struct {
		name    string
		vendor  string
		wantMsg string
	}{
		{
			name:    "missing ref",
			vendor:  "vendor:\n  url: https://example.com/repo\n",
			wantMsg: "vendor block requires ref",
		},
		{
			name:    "missing url",
			vendor:  "vendor:\n  ref: main\n",
			wantMsg: "vendor block requires url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			dir := writeDescriptor(t, root, "svc", "name: v\ndescription: d\n"+tt.vendor)

			_, err := LoadServiceConfig(dir)
			require.Error(t, err)

			var de *DescriptorError
			require.True(t, errors.As(err, &de))
			assert.Contains(t, de.Reason, tt.wantMsg)
		})
	}
}

func TestLoadServiceConfig_InvalidYAML(t *testing.T) {
	root := t.TempDir()
	dir := writeDescriptor(t, root, "broken", "name: [unclosed\n")

	_, err := LoadServiceConfig(dir)
	require.Error(t, err)

	var de *DescriptorError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "invalid YAML", de.Reason)
	assert.Error(t, de.Unwrap())
}

func TestLoadServiceConfig_MissingFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "absent")

	_, err := LoadServiceConfig(dir)
	require.Error(t, err)

	var de *DescriptorError
	require.True(t, errors.As(err, &de))
	assert.True(t, errors.Is(de.Err, os.ErrNotExist))
}

func TestLoadServiceConfig_ReadError(t *testing.T) {
	originalReadFile := osReadFile
	defer func() { osReadFile = originalReadFile }()

	bang := errors.New("disk on fire")
	osReadFile = func(string) ([]byte, error) { return nil, bang }

	_, err := LoadServiceConfig("/does/not/matter")
	require.Error(t, err)
	assert.True(t, errors.Is(err, bang))
}

func TestPrimaryPort(t *testing.T) {
	withEndpoint := ServiceConfig{Ports: []PortConfig{
		{Name: "metrics", Port: 9100},
		{Name: "api", Port: 8080, HealthEndpoint: "/healthz"},
	}}
	p := withEndpoint.PrimaryPort()
	require.NotNil(t, p)
	assert.Equal(t, 8080, p.Port)

	noEndpoint := ServiceConfig{Ports: []PortConfig{
		{Name: "web", Port: 3000},
		{Name: "admin", Port: 3001},
	}}
	p = noEndpoint.PrimaryPort()
	require.NotNil(t, p)
	assert.Equal(t, 3000, p.Port)

	assert.Nil(t, ServiceConfig{}.PrimaryPort())
}

func TestRequiredEnvVars(t *testing.T) {
	cfg := ServiceConfig{EnvVars: []EnvVarConfig{
		{Name: "OPTIONAL_ONE"},
		{Name: "NEEDED", Required: true},
		{Name: "ALSO_NEEDED", Required: true, Secret: true},
	}}

	req := cfg.RequiredEnvVars()
	require.Len(t, req, 2)
	assert.Equal(t, "NEEDED", req[0].Name)
	assert.Equal(t, "ALSO_NEEDED", req[1].Name)
}

package compose

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCompose(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestFile_DetectsCandidates(t *testing.T) {
	dir := t.TempDir()
	_, ok := File(dir)
	assert.False(t, ok)

	writeCompose(t, dir, "docker-compose.yaml", "services: {}\n")
	path, ok := File(dir)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "docker-compose.yaml"), path)

	// .yml wins over .yaml when both exist
	writeCompose(t, dir, "docker-compose.yml", "services: {}\n")
	path, ok = File(dir)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "docker-compose.yml"), path)
}

func TestFile_IgnoresDirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "docker-compose.yml"), 0755))

	_, ok := File(dir)
	assert.False(t, ok)
}

func TestServices_ParsesComposeFile(t *testing.T) {
	dir := t.TempDir()
	writeCompose(t, dir, "docker-compose.yml", `
services:
  web:
    image: nginx:1.27
    ports:
      - "8080:80"
  db:
    image: postgres:16
`)

	services, err := Services(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, services, 2)

	// Name-sorted
	assert.Equal(t, "db", services[0].Name)
	assert.Equal(t, "postgres:16", services[0].Image)
	assert.Equal(t, "web", services[1].Name)
	assert.Equal(t, "nginx:1.27", services[1].Image)
	assert.Equal(t, []string{"8080:80"}, services[1].Ports)
}

func TestServices_NoComposeFile(t *testing.T) {
	_, err := Services(context.Background(), t.TempDir())
	assert.Error(t, err)
}

func TestParseFallback_RecoversServiceNames(t *testing.T) {
	dir := t.TempDir()
	// ports is not a list, which the strict loader rejects
	writeCompose(t, dir, "docker-compose.yml", `
services:
  broken:
    image: redis:7
    ports: oops
`)

	services, err := parseFallback(filepath.Join(dir, "docker-compose.yml"))
	require.NoError(t, err)
	require.Len(t, services, 1)
	assert.Equal(t, "broken", services[0].Name)
	assert.Equal(t, "redis:7", services[0].Image)
	assert.Empty(t, services[0].Ports)
}

func TestParseFallback_NoServicesSection(t *testing.T) {
	dir := t.TempDir()
	writeCompose(t, dir, "docker-compose.yml", "version: \"3\"\n")

	services, err := parseFallback(filepath.Join(dir, "docker-compose.yml"))
	require.NoError(t, err)
	assert.Empty(t, services)
}

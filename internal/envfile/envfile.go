// Package envfile reads and writes the per-service .env files consumed by
// docker compose and the lifecycle commands.
//
// Files are written deterministically (keys sorted, values quoted only when
// they need it) and atomically, so a crash mid-save never leaves a service
// with a truncated environment.
package envfile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/renameio/v2"
	"github.com/joho/godotenv"
)

// FileName is the environment file looked up in each service directory.
const FileName = ".env"

const fileMode = 0o600

// Path returns the env file path for a service directory.
func Path(dir string) string {
	return filepath.Join(dir, FileName)
}

// Load reads an env file into a map. A missing file is an empty
// environment, not an error.
func Load(path string) (map[string]string, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return values, nil
}

// Save writes the map atomically with stable ordering. Values survive a
// Save/Load round trip byte for byte.
func Save(path string, values map[string]string) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, key := range keys {
		sb.WriteString(key)
		sb.WriteByte('=')
		sb.WriteString(formatValue(values[key]))
		sb.WriteByte('\n')
	}

	if err := renameio.WriteFile(path, []byte(sb.String()), fileMode); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Merge sets the given keys in the file, preserving everything else.
func Merge(path string, updates map[string]string) error {
	values, err := Load(path)
	if err != nil {
		return err
	}
	for key, value := range updates {
		values[key] = value
	}
	return Save(path, values)
}

// Unset removes the given keys from the file, preserving everything else.
func Unset(path string, keys ...string) error {
	values, err := Load(path)
	if err != nil {
		return err
	}
	for _, key := range keys {
		delete(values, key)
	}
	return Save(path, values)
}

// Mask obscures a secret for display. Short values are fully starred;
// longer ones keep the first and last four characters.
func Mask(value string) string {
	if value == "" {
		return ""
	}
	if len(value) <= 8 {
		return strings.Repeat("*", len(value))
	}
	return value[:4] + strings.Repeat("*", len(value)-8) + value[len(value)-4:]
}

var valueEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	`$`, `\$`,
)

// formatValue quotes a value only when the dotenv syntax requires it.
func formatValue(value string) string {
	if value == "" || !strings.ContainsAny(value, " \t=#\"'\n$") {
		return value
	}
	return `"` + valueEscaper.Replace(value) + `"`
}

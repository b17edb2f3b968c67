// Package secrets resolves credentials from files or inline configuration.
package secrets

import (
	"fmt"
	"os"
	"strings"
)

// Source describes where a secret comes from.
type Source struct {
	// Name is used in error messages.
	Name string
	// Value is an inline secret from configuration.
	Value string
	// File contains the secret. It takes precedence over Value.
	File string
	// Hint is appended to the error returned when nothing is configured.
	Hint string
}

func (s Source) name() string {
	if name := strings.TrimSpace(s.Name); name != "" {
		return name
	}
	return "secret"
}

// Load returns the trimmed secret of src. Mounted secret files win over inline values.
func Load(src Source) (string, error) {
	if file := strings.TrimSpace(src.File); file != "" {
		return readFile(src.name(), file)
	}

	if secret := strings.TrimSpace(src.Value); secret != "" {
		return secret, nil
	}

	if hint := strings.TrimSpace(src.Hint); hint != "" {
		return "", fmt.Errorf("%s is not configured (%s)", src.name(), hint)
	}
	return "", fmt.Errorf("%s is not configured", src.name())
}

// LoadOptional is Load without the error for an unconfigured source.
func LoadOptional(src Source) (string, error) {
	if strings.TrimSpace(src.File) == "" && strings.TrimSpace(src.Value) == "" {
		return "", nil
	}
	return Load(src)
}

func readFile(name, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s from file %q: %w", name, path, err)
	}
	secret := strings.TrimSpace(string(data))
	if secret == "" {
		return "", fmt.Errorf("%s file %q is empty", name, path)
	}
	return secret, nil
}

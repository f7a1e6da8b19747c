package source

import (
	"fmt"
	"os"
	"strings"
)

// LoadToken reads an API token from a file. The value is always trimmed;
// an empty or unreadable file is an error so a misconfigured source fails
// before the first request instead of after retry exhaustion.
func LoadToken(name, file string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "token"
	}

	data, err := os.ReadFile(strings.TrimSpace(file))
	if err != nil {
		return "", fmt.Errorf("reading %s from file %q: %w", name, file, err)
	}

	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", fmt.Errorf("%s file %q is empty", name, file)
	}

	return token, nil
}

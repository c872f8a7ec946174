package collector

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/qepting91/recordsync/internal/domain"
)

// DefaultBaseURL is the public JSONPlaceholder API.
const DefaultBaseURL = "https://jsonplaceholder.typicode.com"

// Endpoints maps each kind to the URL it is fetched from.
type Endpoints map[domain.Kind]string

// DefaultEndpoints builds "<base>/<kind>" for every kind.
func DefaultEndpoints(base string) Endpoints {
	if base == "" {
		base = DefaultBaseURL
	}
	base = strings.TrimRight(base, "/")

	eps := make(Endpoints, len(domain.Kinds))
	for _, k := range domain.Kinds {
		eps[k] = base + "/" + string(k)
	}
	return eps
}

// LoadEndpoints overlays per-kind URLs from a YAML file such as
//
//	posts: http://localhost:3000/posts
//	users: http://localhost:3000/people
//
// on top of the defaults for base.
func LoadEndpoints(path, base string) (Endpoints, error) {
	eps := DefaultEndpoints(base)
	if path == "" {
		return eps, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read endpoints file: %w", err)
	}

	var overrides map[string]string
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("parse endpoints file: %w", err)
	}

	for name, url := range overrides {
		k, err := domain.ParseKind(name)
		if err != nil {
			return nil, fmt.Errorf("endpoints file: %w", err)
		}
		if url == "" {
			continue
		}
		eps[k] = url
	}
	return eps, nil
}

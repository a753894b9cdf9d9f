package platform

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// ConfigurationError indicates an unusable platform profile file. It is
// fatal at startup: computation cannot proceed without a platform table.
type ConfigurationError struct {
	Path   string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("platform configuration %s: %s", e.Path, e.Reason)
}

// Table is the immutable platform lookup, constructed once at startup and
// shared by reference across concurrent recomputations
type Table struct {
	platforms   []*Platform
	byName      map[string]*Platform
	defaultName string
}

// profileFile is the on-disk shape of the platform profile resource
type profileFile struct {
	Platform []*Platform `toml:"platform"`
}

// LoadTable reads the platform profile file and builds the lookup table.
// Every record is validated up front; a bad record fails the whole load.
func LoadTable(path, defaultName string) (*Table, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, &ConfigurationError{Path: path, Reason: "file not found"}
	}

	var file profileFile
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return nil, &ConfigurationError{Path: path, Reason: fmt.Sprintf("decode failed: %v", err)}
	}
	if len(file.Platform) == 0 {
		return nil, &ConfigurationError{Path: path, Reason: "no platform records"}
	}

	t := &Table{
		byName:      make(map[string]*Platform, len(file.Platform)),
		defaultName: strings.ToLower(defaultName),
	}
	for _, p := range file.Platform {
		if err := p.validate(); err != nil {
			return nil, &ConfigurationError{Path: path, Reason: err.Error()}
		}
		key := strings.ToLower(p.Name)
		if _, dup := t.byName[key]; dup {
			return nil, &ConfigurationError{Path: path, Reason: fmt.Sprintf("duplicate platform name: %s", p.Name)}
		}
		t.platforms = append(t.platforms, p)
		t.byName[key] = p
	}

	if t.defaultName == "" {
		t.defaultName = strings.ToLower(t.platforms[0].Name)
	}
	if _, ok := t.byName[t.defaultName]; !ok {
		return nil, &ConfigurationError{Path: path, Reason: fmt.Sprintf("default platform not in table: %s", defaultName)}
	}

	return t, nil
}

// NewTable builds a table directly from records, primarily for tests
func NewTable(defaultName string, platforms ...*Platform) (*Table, error) {
	if len(platforms) == 0 {
		return nil, &ConfigurationError{Reason: "no platform records"}
	}
	t := &Table{
		byName:      make(map[string]*Platform, len(platforms)),
		defaultName: strings.ToLower(defaultName),
	}
	for _, p := range platforms {
		if err := p.validate(); err != nil {
			return nil, &ConfigurationError{Reason: err.Error()}
		}
		t.platforms = append(t.platforms, p)
		t.byName[strings.ToLower(p.Name)] = p
	}
	if t.defaultName == "" {
		t.defaultName = strings.ToLower(platforms[0].Name)
	}
	if _, ok := t.byName[t.defaultName]; !ok {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("default platform not in table: %s", defaultName)}
	}
	return t, nil
}

// All returns the platforms in file order
func (t *Table) All() []*Platform {
	return t.platforms
}

// Get returns the platform with the exact (case-insensitive) name
func (t *Table) Get(name string) (*Platform, bool) {
	p, ok := t.byName[strings.ToLower(name)]
	return p, ok
}

// Default returns the fallback platform used when alias resolution misses
func (t *Table) Default() *Platform {
	return t.byName[t.defaultName]
}

// Resolve matches a free-form name fragment against the alias table,
// case-insensitively; the first platform with a matching alias substring
// wins. A flight path must always be plannable, so a miss returns the
// default platform with matched=false rather than an error.
func (t *Table) Resolve(nameFragment string) (p *Platform, matched bool) {
	lower := strings.ToLower(nameFragment)
	for _, cand := range t.platforms {
		if strings.Contains(lower, strings.ToLower(cand.Name)) {
			return cand, true
		}
		for _, alias := range cand.Aliases {
			if alias == "" {
				continue
			}
			if strings.Contains(lower, strings.ToLower(alias)) {
				return cand, true
			}
		}
	}
	return t.Default(), false
}

package extract

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
)

type registryFile struct {
	Profiles []SupplierProfile `yaml:"profiles"`
}

// Registry holds the known supplier profiles keyed by lower-cased name.
type Registry struct {
	profiles map[string]SupplierProfile
	order    []string
}

func NewRegistry(profiles ...SupplierProfile) (*Registry, error) {
	r := &Registry{profiles: map[string]SupplierProfile{}}
	for _, p := range BuiltinProfiles() {
		if err := r.put(p); err != nil {
			return nil, err
		}
	}
	for _, p := range profiles {
		if err := r.put(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// LoadRegistry reads a YAML profiles file. A missing file yields the
// built-in profiles only.
func LoadRegistry(path string) (*Registry, error) {
	if strings.TrimSpace(path) == "" {
		return NewRegistry()
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewRegistry()
	}
	if err != nil {
		return nil, fmt.Errorf("read profiles: %w", err)
	}
	return ParseRegistry(data)
}

func ParseRegistry(data []byte) (*Registry, error) {
	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse profiles: %w", err)
	}
	return NewRegistry(file.Profiles...)
}

func (r *Registry) put(p SupplierProfile) error {
	p, err := p.Normalized()
	if err != nil {
		return err
	}
	key := strings.ToLower(p.Name)
	if _, exists := r.profiles[key]; !exists {
		r.order = append(r.order, key)
	}
	r.profiles[key] = p
	return nil
}

func (r *Registry) Get(name string) (SupplierProfile, bool) {
	if strings.TrimSpace(name) == "" {
		name = "generic"
	}
	p, ok := r.profiles[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

// ForSender picks the profile whose sender list contains the address or its
// domain. Falls back to the generic heuristic profile.
func (r *Registry) ForSender(sender string) SupplierProfile {
	addr := strings.ToLower(strings.TrimSpace(sender))
	if i := strings.LastIndex(addr, "<"); i >= 0 {
		addr = strings.TrimSuffix(addr[i+1:], ">")
	}
	domain := addr
	if i := strings.LastIndex(addr, "@"); i >= 0 {
		domain = addr[i+1:]
	}
	for _, key := range r.order {
		p := r.profiles[key]
		for _, s := range p.Senders {
			s = strings.ToLower(strings.TrimSpace(s))
			if s != "" && (s == addr || s == domain || strings.HasSuffix(domain, "."+s)) {
				return p
			}
		}
	}
	p, _ := r.Get("generic")
	return p
}

func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.profiles[key].Name)
	}
	return out
}

package model

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"DomainQL/internal/logger"

	"gopkg.in/yaml.v3"
)

// Load reads every *.yml / *.yaml file of dir; the file name is the domain name.
func Load(dir string) ([]*Domain, error) {
	var files []string
	for _, pattern := range []string{"*.yml", "*.yaml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	if len(files) == 0 {
		return nil, fmt.Errorf("no domain files in %s", dir)
	}

	domains := make([]*Domain, 0, len(files))
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		d, err := Parse(name, data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		domains = append(domains, d)
		logger.Info("domain_loaded", map[string]any{
			"domain": name,
			"table":  d.Table,
			"fields": len(d.Fields),
			"roles":  len(d.Roles),
		})
	}
	return domains, nil
}

// Parse decodes one domain file.
func Parse(name string, data []byte) (*Domain, error) {
	// 1. Разбираем в yaml.Node для структурной валидации
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("YAML parse error: %w", err)
	}

	// YAML всегда [0] - документ, [1] - root mapping
	if len(root.Content) == 0 {
		return nil, fmt.Errorf("empty YAML")
	}
	if root.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: domain must be a mapping", root.Content[0].Line)
	}

	if err := validateYAMLNode(root.Content[0], "domain"); err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	// 2. Теперь уже Decode в домен
	var d Domain
	if err := root.Decode(&d); err != nil {
		return nil, fmt.Errorf("unmarshal error: %w", err)
	}
	d.Name = name
	if d.PrimaryKey == "" {
		d.PrimaryKey = "id"
	}
	if len(d.Roles) == 0 {
		d.Roles = map[string]*Role{DefaultRole: {}}
	}
	for role, r := range d.Roles {
		// `admin: ~` declares a role with no narrowing
		if r == nil {
			d.Roles[role] = &Role{}
		}
	}
	return &d, nil
}

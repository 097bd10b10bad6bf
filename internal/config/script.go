package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nan-gameware/wowdb/internal/csvload"
	wdberrors "github.com/nan-gameware/wowdb/internal/errors"
)

// Script output formats.
const (
	FormatJinja2   = "jinja2"
	FormatTemplate = "template"
	FormatTable    = "table"
)

// Script is a declarative load/query/render document.
type Script struct {
	DB      ScriptDB              `yaml:"db"`
	Queries Ordered[ScriptQuery]  `yaml:"queries"`
	Output  Ordered[ScriptOutput] `yaml:"output"`
}

type ScriptDB struct {
	Build        string        `yaml:"build"`
	Path         string        `yaml:"path"`
	Name         string        `yaml:"name"`
	Locale       string        `yaml:"locale"`
	ObjectExists string        `yaml:"object_exists"`
	Tables       []ScriptTable `yaml:"tables"`
}

// ScriptTable is either a bare table name or a mapping with a table key
// followed by CSV load options.
type ScriptTable struct {
	Name    string
	Options csvload.Options
}

func (t *ScriptTable) UnmarshalYAML(node *yaml.Node) error {
	*t = ScriptTable{}
	switch node.Kind {
	case yaml.ScalarNode:
		t.Name = node.Value
		return nil
	case yaml.MappingNode:
		rest := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for i := 0; i+1 < len(node.Content); i += 2 {
			if node.Content[i].Value == "table" {
				t.Name = node.Content[i+1].Value
				continue
			}
			rest.Content = append(rest.Content, node.Content[i], node.Content[i+1])
		}
		if t.Name == "" {
			return fmt.Errorf("line %d: table entry needs a table key", node.Line)
		}
		if len(rest.Content) == 0 {
			return nil
		}
		return decodeStrict(rest, &t.Options)
	}
	return fmt.Errorf("line %d: table entry must be a name or a mapping", node.Line)
}

type ScriptQuery struct {
	SQL    string `yaml:"sql"`
	Params Params `yaml:"params"`
}

type ScriptOutput struct {
	Format   string `yaml:"format"`
	File     string `yaml:"file"`
	Template string `yaml:"template"`
	Style    string `yaml:"style"`
	// Query names the result a table output renders; defaults to the output name.
	Query string `yaml:"query"`
}

// LoadScript reads and validates a script file.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script file: %w", err)
	}
	s, err := ParseScript(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// ParseScript decodes a script document.
func ParseScript(data []byte) (*Script, error) {
	var s Script
	if err := decodeDocument(data, &s); err != nil {
		return nil, err
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Script) validate() error {
	for _, table := range s.DB.Tables {
		if err := table.Options.Validate(); err != nil {
			return fmt.Errorf("table %s: %w", table.Name, err)
		}
	}
	for _, name := range s.Queries.Keys() {
		q, _ := s.Queries.Get(name)
		if q.SQL == "" {
			return wdberrors.NewConfigError("query", name, "sql is required")
		}
	}
	for _, name := range s.Output.Keys() {
		out, _ := s.Output.Get(name)
		switch out.Format {
		case FormatJinja2, FormatTemplate:
			if out.Template == "" {
				return wdberrors.NewConfigError("output", name, "template is required")
			}
		case FormatTable:
			query := out.Query
			if query == "" {
				query = name
			}
			if _, ok := s.Queries.Get(query); !ok {
				return wdberrors.NewConfigError("output", name, fmt.Sprintf("unknown query %q", query))
			}
		default:
			return wdberrors.NewConfigError("output format", out.Format, "unsupported")
		}
	}
	return nil
}

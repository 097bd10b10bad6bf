package config

import (
	"database/sql"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Params are SQL bind parameters: either positional (a YAML sequence bound
// to ? placeholders) or named (a YAML mapping bound to :name placeholders).
type Params struct {
	positional []any
	named      Ordered[any]
}

// PositionalParams builds positional parameters.
func PositionalParams(args ...any) Params {
	return Params{positional: args}
}

// NamedParams builds named parameters in the given key order.
func NamedParams(keys []string, values map[string]any) Params {
	var p Params
	for _, k := range keys {
		p.named.Set(k, values[k])
	}
	return p
}

// Args returns the arguments for database/sql.
func (p Params) Args() []any {
	if p.named.Len() > 0 {
		args := make([]any, 0, p.named.Len())
		for _, k := range p.named.Keys() {
			v, _ := p.named.Get(k)
			args = append(args, sql.Named(k, v))
		}
		return args
	}
	return p.positional
}

// Empty reports whether there are no parameters.
func (p Params) Empty() bool {
	return len(p.positional) == 0 && p.named.Len() == 0
}

func (p *Params) UnmarshalYAML(node *yaml.Node) error {
	*p = Params{}
	switch node.Kind {
	case yaml.SequenceNode:
		return node.Decode(&p.positional)
	case yaml.MappingNode:
		return p.named.UnmarshalYAML(node)
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return nil
		}
	}
	return fmt.Errorf("line %d: params must be a list or a mapping", node.Line)
}

package config

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Ordered is a string-keyed mapping that remembers document order.
type Ordered[T any] struct {
	keys   []string
	values map[string]T
}

// Keys returns the keys in insertion order.
func (m *Ordered[T]) Keys() []string {
	return m.keys
}

// Len returns the number of entries.
func (m *Ordered[T]) Len() int {
	return len(m.keys)
}

// Get returns the value stored under key.
func (m *Ordered[T]) Get(key string) (T, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Set stores value under key, appending key if it is new.
func (m *Ordered[T]) Set(key string, value T) {
	if m.values == nil {
		m.values = make(map[string]T)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Delete removes key.
func (m *Ordered[T]) Delete(key string) {
	if _, ok := m.values[key]; !ok {
		return
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i:i], m.keys[i+1:]...)
			break
		}
	}
}

// UnmarshalYAML decodes a mapping node, rejecting duplicate keys and
// unknown fields in struct values.
func (m *Ordered[T]) UnmarshalYAML(node *yaml.Node) error {
	*m = Ordered[T]{}
	if node.Tag == "!!null" {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valueNode := node.Content[i], node.Content[i+1]
		key := keyNode.Value
		if _, dup := m.values[key]; dup {
			return fmt.Errorf("line %d: duplicate key %q", keyNode.Line, key)
		}
		var value T
		if err := decodeStrict(valueNode, &value); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		m.Set(key, value)
	}
	return nil
}

// decodeStrict decodes node into v with unknown struct fields rejected.
// yaml.Node.Decode does not honour KnownFields, so the node is re-encoded.
func decodeStrict(node *yaml.Node, v any) error {
	if node.Tag == "!!null" {
		return nil
	}
	raw, err := yaml.Marshal(node)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	return dec.Decode(v)
}

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nan-gameware/wowdb/internal/csvload"
	wdberrors "github.com/nan-gameware/wowdb/internal/errors"
)

// StorageConfig describes where and how a store is opened.
type StorageConfig struct {
	Version      string `yaml:"version"`
	Path         string `yaml:"path"`
	Name         string `yaml:"name"`
	Locale       string `yaml:"locale"`
	ObjectExists string `yaml:"object_exists"`
}

// ViewConfig declares a view. Query is the document key used by older
// configs; SQL is accepted as an alias.
type ViewConfig struct {
	Query        string   `yaml:"query"`
	SQL          string   `yaml:"sql"`
	Dependencies []string `yaml:"dependencies"`
	Params       Params   `yaml:"params"`
}

// Statement returns the view's SQL text.
func (v ViewConfig) Statement() (string, error) {
	switch {
	case v.Query != "" && v.SQL != "":
		return "", wdberrors.NewConfigError("view", "", "query and sql are mutually exclusive")
	case v.Query != "":
		return v.Query, nil
	case v.SQL != "":
		return v.SQL, nil
	}
	return "", wdberrors.NewConfigError("view", "", "query is required")
}

// SchemaConfig holds the declared tables and views.
type SchemaConfig struct {
	Tables Ordered[csvload.Options] `yaml:"tables"`
	Views  Ordered[ViewConfig]      `yaml:"views"`
}

// Document is a query tool configuration file.
type Document struct {
	Storage StorageConfig           `yaml:"storage"`
	Schema  SchemaConfig            `yaml:"schema"`
	Output  Ordered[map[string]any] `yaml:"output"`
}

// LoadDocument reads and validates a query tool configuration file.
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// ParseDocument decodes a query tool configuration.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := decodeDocument(data, &doc); err != nil {
		return nil, err
	}
	for _, name := range doc.Schema.Views.Keys() {
		view, _ := doc.Schema.Views.Get(name)
		if _, err := view.Statement(); err != nil {
			return nil, fmt.Errorf("view %s: %w", name, err)
		}
	}
	for _, name := range doc.Schema.Tables.Keys() {
		opts, _ := doc.Schema.Tables.Get(name)
		if err := opts.Validate(); err != nil {
			return nil, fmt.Errorf("table %s: %w", name, err)
		}
	}
	return &doc, nil
}

func decodeDocument(data []byte, v any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return wdberrors.NewConfigError("document", "", err.Error())
	}
	return nil
}

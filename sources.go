package ipmapper

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/magiconair/properties"
	"gopkg.in/yaml.v3"
)

// Entry is one raw rule from a mapping source: a block name and its
// comma-separated range list.
type Entry struct {
	Name  string
	Value string
}

// Source supplies raw mapping entries. Entries are returned in source order;
// a later entry with the same name replaces an earlier one.
type Source interface {
	// Name identifies the source in logs and errors.
	Name() string
	// Entries reads the source. Errors wrapping ErrSourceFormat are not
	// retried.
	Entries(ctx context.Context) ([]Entry, error)
}

// Entries is an in-memory Source.
type Entries []Entry

// Name implements Source.
func (Entries) Name() string {
	return "static"
}

// Entries implements Source.
func (e Entries) Entries(context.Context) ([]Entry, error) {
	out := make([]Entry, len(e))
	copy(out, e)
	return out, nil
}

// FileSource picks the file format from the extension: ".yaml" and ".yml" use
// YAMLFile, anything else PropertiesFile.
func FileSource(path string) Source {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAMLFile(path)
	default:
		return PropertiesFile(path)
	}
}

// PropertiesFile reads a Java-style properties file, one block per key:
//
//	campus=192.168.40.0/24
//	annex=192.168.40.0/28,10.1.2.3
//
// Comments, ":" separators and line continuations are supported. Property
// expansion (${...}) is disabled so values are taken literally.
type PropertiesFile string

// Name implements Source.
func (p PropertiesFile) Name() string {
	return string(p)
}

// Entries implements Source.
func (p PropertiesFile) Entries(context.Context) ([]Entry, error) {
	buf, err := os.ReadFile(string(p))
	if err != nil {
		return nil, err
	}

	loader := &properties.Loader{
		Encoding:         properties.UTF8,
		DisableExpansion: true,
	}

	props, err := loader.LoadBytes(buf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceFormat, err)
	}

	keys := props.Keys()
	entries := make([]Entry, 0, len(keys))
	for _, key := range keys {
		value, _ := props.Get(key)
		entries = append(entries, Entry{Name: key, Value: value})
	}

	return entries, nil
}

// YAMLFile reads a YAML mapping of block name to ranges. A value may be a
// comma-separated string or a list of range strings:
//
//	campus: 192.168.40.0/24
//	annex:
//	  - 192.168.40.0/28
//	  - 10.1.2.3
//
// Document order is preserved.
type YAMLFile string

// Name implements Source.
func (y YAMLFile) Name() string {
	return string(y)
}

// Entries implements Source.
func (y YAMLFile) Entries(context.Context) ([]Entry, error) {
	buf, err := os.ReadFile(string(y))
	if err != nil {
		return nil, err
	}

	return parseYAMLEntries(buf)
}

func parseYAMLEntries(buf []byte) ([]Entry, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(buf, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceFormat, err)
	}

	// An empty document decodes to a zero node.
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: line %d: top level must be a mapping of block names", ErrSourceFormat, root.Line)
	}

	entries := make([]Entry, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		if key.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("%w: line %d: block name must be a string", ErrSourceFormat, key.Line)
		}

		ranges, err := yamlRanges(value)
		if err != nil {
			return nil, fmt.Errorf("%w: block %q: %v", ErrSourceFormat, key.Value, err)
		}

		entries = append(entries, Entry{Name: key.Value, Value: ranges})
	}

	return entries, nil
}

func yamlRanges(node *yaml.Node) (string, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		return node.Value, nil
	case yaml.SequenceNode:
		values := make([]string, 0, len(node.Content))
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				return "", fmt.Errorf("line %d: range must be a string", item.Line)
			}
			values = append(values, item.Value)
		}
		return strings.Join(values, ","), nil
	default:
		return "", fmt.Errorf("line %d: ranges must be a string or a list", node.Line)
	}
}

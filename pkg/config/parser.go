package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileLoader reads a configuration file into flat dotted keys.
type FileLoader interface {
	Load(path string) (map[string]string, error)
	Parse(data []byte, format Format) (map[string]string, error)
}

// Format is a configuration file syntax.
type Format string

const (
	FormatProperties Format = "properties"
	FormatYAML       Format = "yaml"
)

// FormatFor picks the file syntax from the extension; anything that is not
// YAML is read as key=value properties.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatProperties
	}
}

// VariableExpander defines the interface for expanding variables
type VariableExpander interface {
	Expand(data []byte) []byte
}

// EnvExpander implements VariableExpander using environment variables
type EnvExpander struct{}

// Expand expands environment variables with the given data
func (e *EnvExpander) Expand(data []byte) []byte {
	expanded := os.Expand(string(data), os.Getenv)
	return []byte(expanded)
}

// fileLoader is the default FileLoader.
type fileLoader struct {
	expander VariableExpander
}

// NewFileLoader creates a FileLoader. The expander only applies to YAML;
// properties values are expanded by the dotenv parser itself.
func NewFileLoader(expander VariableExpander) FileLoader {
	return &fileLoader{expander: expander}
}

// Load a config file from disk
func (l *fileLoader) Load(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return l.Parse(data, FormatFor(path))
}

// Parse parses config data in the given format
func (l *fileLoader) Parse(data []byte, format Format) (map[string]string, error) {
	switch format {
	case FormatYAML:
		if l.expander != nil {
			data = l.expander.Expand(data)
		}
		var doc map[string]interface{}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
		out := make(map[string]string)
		flatten("", doc, out)
		return out, nil
	default:
		values, err := godotenv.Parse(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to parse properties: %w", err)
		}
		return values, nil
	}
}

// flatten turns nested YAML maps into dotted keys. A list of scalars joins
// into one comma-separated value; a list holding maps or lists is keyed by
// index instead (servers.0.url).
func flatten(prefix string, node interface{}, out map[string]string) {
	switch v := node.(type) {
	case []interface{}:
		if !scalars(v) {
			for i, child := range v {
				flatten(fmt.Sprintf("%s.%d", prefix, i), child, out)
			}
			return
		}
		parts := make([]string, 0, len(v))
		for _, child := range v {
			if child != nil {
				parts = append(parts, fmt.Sprint(child))
			}
		}
		out[prefix] = strings.Join(parts, ",")
	case map[string]interface{}:
		for k, child := range v {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			flatten(key, child, out)
		}
	case nil:
		if prefix != "" {
			out[prefix] = ""
		}
	default:
		out[prefix] = fmt.Sprint(v)
	}
}

func scalars(list []interface{}) bool {
	for _, v := range list {
		switch v.(type) {
		case map[string]interface{}, []interface{}:
			return false
		}
	}
	return true
}

// maxSuggestDistance bounds how far a typo may be from a known key.
const maxSuggestDistance = 3

// SuggestKey reports whether key is unknown and, if so, the closest known key
// within a small edit distance.
func SuggestKey(key string, known []string) (suggestion string, unknown bool) {
	for _, k := range known {
		if k == key {
			return "", false
		}
	}

	candidates := append([]string(nil), known...)
	sort.Strings(candidates)

	best := maxSuggestDistance + 1
	for _, k := range candidates {
		if d := levenshtein.ComputeDistance(key, k); d < best {
			best = d
			suggestion = k
		}
	}
	if best > maxSuggestDistance {
		suggestion = ""
	}
	return suggestion, true
}

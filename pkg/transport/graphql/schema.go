package graphql

import (
	"os"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/saturnines/gqlprobe/pkg/errors"
)

// LoadSchema reads an SDL file for use with Builder.WithSchema.
func LoadSchema(path string) (*ast.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrConfiguration, "read schema file")
	}
	return ParseSchema(path, string(data))
}

// ParseSchema parses SDL source.
func ParseSchema(name, sdl string) (*ast.Schema, error) {
	schema, err := gqlparser.LoadSchema(&ast.Source{Name: name, Input: sdl})
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrConfiguration, "parse schema")
	}
	return schema, nil
}

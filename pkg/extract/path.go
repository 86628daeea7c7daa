package extract

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/saturnines/gqlprobe/pkg/errors"
)

// Path extracts a value from decoded JSON using a dotted path.
// Supports:
//   - Nested fields: "data.createUser.id"
//   - Array indices: "items[0]", "items[-1]" (negative for last)
//   - Array wildcards: "items[*].name"
//   - Implicit spread: "data.getAllUsers.firstName" collects firstName from every element
//
// A missing segment anywhere along the path yields (nil, false); Path never
// fails on shape mismatches.
func Path(data interface{}, path string) (interface{}, bool) {
	if path == "" {
		return nil, false
	}

	segments, err := parsePath(path)
	if err != nil {
		return nil, false
	}

	return traversePath(data, segments)
}

// FromJSON decodes raw and extracts path from it. The error is only set for
// undecodable input.
func FromJSON(raw []byte, path string) (interface{}, bool, error) {
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, false, errors.WrapError(err, errors.ErrExtraction, "decode response body")
	}
	v, ok := Path(doc, path)
	return v, ok, nil
}

// PathSegment represents a single segment in a path
type PathSegment struct {
	Field string
	Type  SegmentType
	Index int
}

type SegmentType int

const (
	FieldSegment  SegmentType = iota // Regular field access
	ArrayIndex                       // Specific array index [0], [-1]
	ArrayWildcard                    // Array wildcard [*]
)

// parsePath converts a string path into structured segments
func parsePath(path string) ([]PathSegment, error) {
	var segments []PathSegment

	for _, part := range strings.Split(path, ".") {
		if part == "" {
			continue
		}

		idx := strings.Index(part, "[")
		if idx == -1 {
			segments = append(segments, PathSegment{Field: part, Type: FieldSegment})
			continue
		}
		if idx > 0 {
			segments = append(segments, PathSegment{Field: part[:idx], Type: FieldSegment})
		}

		// One or more chained brackets, e.g. [0][1] or [*]
		remaining := part[idx:]
		for len(remaining) > 0 {
			if !strings.HasPrefix(remaining, "[") {
				return nil, fmt.Errorf("invalid syntax after bracket: %s", remaining)
			}
			end := strings.Index(remaining, "]")
			if end == -1 {
				return nil, fmt.Errorf("unclosed bracket in path: %s", part)
			}

			indexStr := remaining[1:end]
			if indexStr == "*" {
				segments = append(segments, PathSegment{Type: ArrayWildcard})
			} else {
				index, err := strconv.Atoi(indexStr)
				if err != nil {
					return nil, fmt.Errorf("invalid array index: %s", indexStr)
				}
				segments = append(segments, PathSegment{Type: ArrayIndex, Index: index})
			}
			remaining = remaining[end+1:]
		}
	}

	return segments, nil
}

// traversePath walks through data following the path segments
func traversePath(data interface{}, segments []PathSegment) (interface{}, bool) {
	current := data

	for i, segment := range segments {
		switch segment.Type {
		case FieldSegment:
			switch v := current.(type) {
			case map[string]interface{}:
				val, ok := v[segment.Field]
				if !ok {
					return nil, false
				}
				current = val

			case []interface{}:
				// A field on a list applies to every element.
				return spread(v, segments[i:])

			default:
				return nil, false
			}

		case ArrayIndex:
			arr, ok := current.([]interface{})
			if !ok {
				return nil, false
			}

			index := segment.Index
			if index < 0 {
				index = len(arr) + index
			}
			if index < 0 || index >= len(arr) {
				return nil, false
			}

			current = arr[index]

		case ArrayWildcard:
			arr, ok := current.([]interface{})
			if !ok {
				return nil, false
			}
			if i == len(segments)-1 {
				return arr, true
			}
			return spread(arr, segments[i+1:])
		}
	}

	return current, true
}

// spread applies the remaining path to each element and flattens list results.
func spread(arr []interface{}, rest []PathSegment) (interface{}, bool) {
	results := make([]interface{}, 0, len(arr))
	for _, elem := range arr {
		result, ok := traversePath(elem, rest)
		if !ok {
			continue
		}
		if resultArr, isArr := result.([]interface{}); isArr {
			results = append(results, resultArr...)
		} else {
			results = append(results, result)
		}
	}
	return results, len(results) > 0
}

// PathBuilder helps construct paths programmatically
type PathBuilder struct {
	segments []string
}

// NewPathBuilder creates a new path builder
func NewPathBuilder() *PathBuilder {
	return &PathBuilder{}
}

// Field adds a field segment
func (pb *PathBuilder) Field(name string) *PathBuilder {
	pb.segments = append(pb.segments, name)
	return pb
}

// Index adds an array index segment
func (pb *PathBuilder) Index(idx int) *PathBuilder {
	return pb.suffix(fmt.Sprintf("[%d]", idx))
}

// Wildcard adds an array wildcard segment
func (pb *PathBuilder) Wildcard() *PathBuilder {
	return pb.suffix("[*]")
}

func (pb *PathBuilder) suffix(s string) *PathBuilder {
	if len(pb.segments) == 0 {
		pb.segments = append(pb.segments, s)
	} else {
		pb.segments[len(pb.segments)-1] += s
	}
	return pb
}

// Build returns the constructed path
func (pb *PathBuilder) Build() string {
	return strings.Join(pb.segments, ".")
}

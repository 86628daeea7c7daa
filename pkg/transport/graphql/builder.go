package graphql

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"

	"github.com/saturnines/gqlprobe/pkg/errors"
)

// OperationKind is the root operation type of a built request.
type OperationKind int

const (
	OperationNone OperationKind = iota
	OperationQuery
	OperationMutation
)

func (k OperationKind) String() string {
	switch k {
	case OperationQuery:
		return "query"
	case OperationMutation:
		return "mutation"
	default:
		return ""
	}
}

// Builder accumulates a single GraphQL operation and renders it into an
// Envelope. Either a raw query (Query) or an operation kind and field
// (QueryOperation, MutationOperation) must be set before building.
//
// The first misuse is remembered and returned by Text, Envelope and Build.
type Builder struct {
	query         string
	variables     map[string]interface{}
	operationName string

	kind   OperationKind
	field  string
	args   []Arg
	fields []string
	decls  []Arg
	scalar bool

	schema *ast.Schema
	err    error
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Query sets raw query text, sent as is.
func (b *Builder) Query(query string) *Builder {
	b.query = query
	return b
}

// QueryOperation selects a read of the given root field.
func (b *Builder) QueryOperation(field string) *Builder {
	return b.operation(OperationQuery, field)
}

// MutationOperation selects a write through the given root field.
func (b *Builder) MutationOperation(field string) *Builder {
	return b.operation(OperationMutation, field)
}

func (b *Builder) operation(kind OperationKind, field string) *Builder {
	if field == "" {
		b.fail("operation field name is empty")
	} else if !validName(field) {
		b.fail(fmt.Sprintf("invalid field name %q", field))
	}
	b.kind = kind
	b.field = field
	return b
}

// Argument adds or replaces a named argument. A replaced argument keeps its
// original position.
func (b *Builder) Argument(name string, value interface{}) *Builder {
	if !validName(name) {
		b.fail(fmt.Sprintf("invalid argument name %q", name))
		return b
	}
	for i := range b.args {
		if b.args[i].Name == name {
			b.args[i].Value = value
			return b
		}
	}
	b.args = append(b.args, Arg{Name: name, Value: value})
	return b
}

// Arguments adds arguments in order.
func (b *Builder) Arguments(args ...Arg) *Builder {
	for _, a := range args {
		b.Argument(a.Name, a.Value)
	}
	return b
}

// Fields appends requested result fields.
func (b *Builder) Fields(names ...string) *Builder {
	for _, name := range names {
		if !validName(name) {
			b.fail(fmt.Sprintf("invalid result field name %q", name))
			continue
		}
		b.fields = append(b.fields, name)
	}
	return b
}

// Scalar declares that the operation returns a scalar, so no field block
// may be requested.
func (b *Builder) Scalar() *Builder {
	b.scalar = true
	return b
}

// Declare adds a variable definition to the rendered operation,
// e.g. Declare("id", "Int!").
func (b *Builder) Declare(name, gqlType string) *Builder {
	if !validName(name) || strings.TrimSpace(gqlType) == "" {
		b.fail(fmt.Sprintf("invalid variable definition %q: %q", name, gqlType))
		return b
	}
	b.decls = append(b.decls, Arg{Name: name, Value: gqlType})
	return b
}

// Variable sets a single variable in the payload.
func (b *Builder) Variable(name string, value interface{}) *Builder {
	if b.variables == nil {
		b.variables = make(map[string]interface{})
	}
	b.variables[name] = value
	return b
}

// Variables merges a variables payload.
func (b *Builder) Variables(vars map[string]interface{}) *Builder {
	for k, v := range vars {
		b.Variable(k, v)
	}
	return b
}

// OperationName names the operation. It is sent in the envelope and, for
// built operations, rendered into the query text.
func (b *Builder) OperationName(name string) *Builder {
	if !validName(name) {
		b.fail(fmt.Sprintf("invalid operation name %q", name))
		return b
	}
	b.operationName = name
	return b
}

// WithSchema validates every rendered query against schema.
func (b *Builder) WithSchema(schema *ast.Schema) *Builder {
	b.schema = schema
	return b
}

func (b *Builder) fail(msg string) {
	if b.err == nil {
		b.err = errors.WrapError(fmt.Errorf("%s", msg), errors.ErrBuild, "invalid builder state")
	}
}

// Kind returns the selected operation kind.
func (b *Builder) Kind() OperationKind {
	return b.kind
}

// Text renders the query text.
func (b *Builder) Text() (string, error) {
	if b.err != nil {
		return "", b.err
	}

	text := b.query
	if text == "" {
		if b.kind == OperationNone || b.field == "" {
			return "", errors.WrapError(
				fmt.Errorf("neither an operation nor a raw query was set"),
				errors.ErrBuild,
				"build query",
			)
		}
		if b.scalar && len(b.fields) > 0 {
			return "", errors.WrapError(
				fmt.Errorf("%s returns a scalar but fields %v were requested", b.field, b.fields),
				errors.ErrBuild,
				"build query",
			)
		}
		text = b.render()
	}

	if err := b.check(text); err != nil {
		return "", err
	}
	return text, nil
}

func (b *Builder) render() string {
	var sb strings.Builder

	sb.WriteString(b.kind.String())
	if b.operationName != "" {
		sb.WriteString(" ")
		sb.WriteString(b.operationName)
	}
	if len(b.decls) > 0 {
		parts := make([]string, 0, len(b.decls))
		for _, d := range b.decls {
			parts = append(parts, fmt.Sprintf("$%s: %s", d.Name, d.Value))
		}
		sb.WriteString("(" + strings.Join(parts, ", ") + ")")
	}
	sb.WriteString(" {\n  ")
	sb.WriteString(b.field)

	if len(b.args) > 0 {
		parts := make([]string, 0, len(b.args))
		for _, a := range b.args {
			parts = append(parts, a.Name+": "+formatValue(a.Value))
		}
		sb.WriteString("(" + strings.Join(parts, ", ") + ")")
	}

	if len(b.fields) > 0 {
		sb.WriteString(" {\n")
		for _, f := range b.fields {
			sb.WriteString("    ")
			sb.WriteString(f)
			sb.WriteString("\n")
		}
		sb.WriteString("  }")
	}

	sb.WriteString("\n}")
	return sb.String()
}

// check parses text and, with a schema attached, validates it.
func (b *Builder) check(text string) error {
	if b.schema != nil {
		if _, errs := gqlparser.LoadQuery(b.schema, text); len(errs) > 0 {
			return errors.WrapError(errs, errors.ErrBuild, "query does not validate against schema")
		}
		return nil
	}
	if _, err := parser.ParseQuery(&ast.Source{Name: "query", Input: text}); err != nil {
		return errors.WrapError(err, errors.ErrBuild, "query does not parse")
	}
	return nil
}

// Envelope returns the wire payload.
func (b *Builder) Envelope() (Envelope, error) {
	text, err := b.Text()
	if err != nil {
		return Envelope{}, err
	}

	env := Envelope{Query: text, OperationName: b.operationName}
	if len(b.variables) > 0 {
		env.Variables = make(map[string]interface{}, len(b.variables))
		for k, v := range b.variables {
			env.Variables[k] = v
		}
	}
	return env, nil
}

// Build serialises the envelope.
func (b *Builder) Build() ([]byte, error) {
	env, err := b.Envelope()
	if err != nil {
		return nil, err
	}
	return env.Marshal()
}

// Envelope is the request body sent to the GraphQL endpoint. Variables
// serialise as null, never {}, when there are none.
type Envelope struct {
	Query         string                 `json:"query"`
	Variables     map[string]interface{} `json:"variables"`
	OperationName string                 `json:"operationName,omitempty"`
}

// Marshal encodes the envelope without HTML escaping and without a trailing
// newline.
func (e Envelope) Marshal() ([]byte, error) {
	if len(e.Variables) == 0 {
		e.Variables = nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(e); err != nil {
		return nil, errors.WrapError(err, errors.ErrBuild, "encode envelope")
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

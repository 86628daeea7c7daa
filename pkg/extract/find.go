package extract

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/saturnines/gqlprobe/pkg/errors"
)

// Predicates are CEL expressions over a single list element bound to "it",
// e.g. `it.id == 21` or `it.firstName.startsWith("Den")`.
var (
	celEnvOnce sync.Once
	celEnv     *cel.Env
	celEnvErr  error

	programs sync.Map // expression -> cel.Program
)

func environment() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("it", cel.DynType),
			cel.CrossTypeNumericComparisons(true),
		)
	})
	return celEnv, celEnvErr
}

func compile(expr string) (cel.Program, error) {
	if p, ok := programs.Load(expr); ok {
		return p.(cel.Program), nil
	}

	env, err := environment()
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrExtraction, "create predicate environment")
	}
	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, errors.WrapError(iss.Err(), errors.ErrExtraction, fmt.Sprintf("compile predicate %q", expr))
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrExtraction, fmt.Sprintf("plan predicate %q", expr))
	}

	programs.Store(expr, prg)
	return prg, nil
}

// Find returns the first element of list matching expr. Elements for which
// the predicate cannot be evaluated (a missing field, say) do not match.
// The error is only set for an expression that does not compile.
func Find(list interface{}, expr string) (interface{}, bool, error) {
	matches, err := filter(list, expr, 1)
	if err != nil || len(matches) == 0 {
		return nil, false, err
	}
	return matches[0], true, nil
}

// FindAll returns every element of list matching expr, in order.
func FindAll(list interface{}, expr string) ([]interface{}, error) {
	return filter(list, expr, -1)
}

func filter(list interface{}, expr string, limit int) ([]interface{}, error) {
	prg, err := compile(expr)
	if err != nil {
		return nil, err
	}

	arr, ok := list.([]interface{})
	if !ok {
		return nil, nil
	}

	var out []interface{}
	for _, elem := range arr {
		val, _, err := prg.Eval(map[string]interface{}{"it": elem})
		if err != nil {
			continue
		}
		if matched, ok := val.Value().(bool); ok && matched {
			out = append(out, elem)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

// String converts an extracted scalar to a string.
func String(v interface{}) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	default:
		return "", false
	}
}

// Int converts an extracted number to an int. Integral JSON numbers and
// numeric strings (GraphQL ID values) are accepted.
func Int(v interface{}) (int, bool) {
	switch t := v.(type) {
	case float64:
		if t != float64(int(t)) {
			return 0, false
		}
		return int(t), true
	case int:
		return t, true
	case int64:
		return int(t), true
	case string:
		n, err := strconv.Atoi(t)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// Strings converts an extracted list of scalars to strings. A single scalar
// becomes a one-element slice.
func Strings(v interface{}) ([]string, bool) {
	arr, ok := v.([]interface{})
	if !ok {
		s, ok := String(v)
		if !ok {
			return nil, false
		}
		return []string{s}, true
	}

	out := make([]string, 0, len(arr))
	for _, elem := range arr {
		s, ok := String(elem)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

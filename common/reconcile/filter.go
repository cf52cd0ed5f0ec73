package reconcile

import (
	"fmt"
	"path"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/lyzr/portfolio/common/storage"
)

// ObjectFilter is an optional CEL predicate applied to each listed image.
// The expression sees name, key, ext, size and content_type.
type ObjectFilter struct {
	expr string
	prg  cel.Program
}

// NewObjectFilter compiles expr. An empty expression returns nil, which
// Match treats as "accept everything".
func NewObjectFilter(expr string) (*ObjectFilter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}

	env, err := cel.NewEnv(
		cel.Variable("name", cel.StringType),
		cel.Variable("key", cel.StringType),
		cel.Variable("ext", cel.StringType),
		cel.Variable("size", cel.IntType),
		cel.Variable("content_type", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("CEL compilation error: %w", issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("object filter must return bool, got %s", ast.OutputType())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL program: %w", err)
	}

	return &ObjectFilter{expr: expr, prg: prg}, nil
}

// String returns the source expression
func (f *ObjectFilter) String() string {
	if f == nil {
		return ""
	}
	return f.expr
}

// Match evaluates the filter against obj
func (f *ObjectFilter) Match(obj storage.Object) (bool, error) {
	if f == nil {
		return true, nil
	}

	out, _, err := f.prg.Eval(map[string]any{
		"name":         obj.Name,
		"key":          obj.Key,
		"ext":          extension(obj.Name),
		"size":         obj.Size,
		"content_type": obj.ContentType,
	})
	if err != nil {
		return false, fmt.Errorf("CEL evaluation error: %w", err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("CEL expression did not return boolean, got %T", out.Value())
	}
	return result, nil
}

// extension returns the lower-cased extension without the dot
func extension(name string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
}

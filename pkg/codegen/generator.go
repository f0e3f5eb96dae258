// Package codegen generates the export file that registers a skill function
// with the host runtime. The function is located and checked statically, so
// generation works on packages that do not build yet.
package codegen

import (
	"bytes"
	"context"
	_ "embed"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/template"

	"github.com/pkg/errors"

	"github.com/jingkaihe/skillet/pkg/logger"
)

// DefaultOutput is the name of the generated file
const DefaultOutput = "skill_export.go"

//go:embed templates/skill_export.go.tmpl
var exportTemplate string

// Options selects the skill function and where the export file goes
type Options struct {
	// Dir is the package directory, the working directory when empty
	Dir string
	// Function is the name of the skill function
	Function string
	// Output is the file name inside Dir, DefaultOutput when empty
	Output string
	// Name is the skill name, the function name when empty
	Name string
}

// SkillFunc is a skill function found in the package sources
type SkillFunc struct {
	Package     string
	Function    string
	Name        string
	Doc         []string
	File        string
	WithContext bool
	Fallible    bool
}

// Generator renders the export file of one skill function
type Generator struct {
	opts      Options
	templates *template.Template
}

// NewGenerator creates a generator, filling in defaults
func NewGenerator(opts Options) *Generator {
	if opts.Dir == "" {
		opts.Dir = "."
	}
	if opts.Output == "" {
		opts.Output = DefaultOutput
	}

	tmpl := template.New("skill_export.go.tmpl").Funcs(template.FuncMap{
		"quote": strconv.Quote,
	})
	template.Must(tmpl.Parse(exportTemplate))

	return &Generator{opts: opts, templates: tmpl}
}

// OutputPath is the file Generate writes
func (g *Generator) OutputPath() string {
	return filepath.Join(g.opts.Dir, g.opts.Output)
}

// Generate locates the skill function and writes the export file next to it.
// It returns the function that was exported.
func (g *Generator) Generate(ctx context.Context) (*SkillFunc, error) {
	fn, err := g.Inspect()
	if err != nil {
		return nil, err
	}

	source, err := g.Render(fn)
	if err != nil {
		return nil, err
	}

	if err := os.WriteFile(g.OutputPath(), source, 0o644); err != nil {
		return nil, errors.Wrapf(err, "failed to write %s", g.OutputPath())
	}

	logger.G(ctx).WithFields(map[string]any{
		"function": fn.Function,
		"package":  fn.Package,
		"output":   g.OutputPath(),
	}).Debug("generated skill export")
	return fn, nil
}

// Render returns the gofmt'ed export file for fn
func (g *Generator) Render(fn *SkillFunc) ([]byte, error) {
	var buf bytes.Buffer
	if err := g.templates.Execute(&buf, fn); err != nil {
		return nil, errors.Wrap(err, "failed to render export file")
	}
	source, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, errors.Wrap(err, "failed to format export file")
	}
	return source, nil
}

// Inspect parses the non-test Go files of the package and checks the shape
// of the skill function
func (g *Generator) Inspect() (*SkillFunc, error) {
	if g.opts.Function == "" {
		return nil, errors.New("no skill function given")
	}

	files, err := g.sourceFiles()
	if err != nil {
		return nil, err
	}

	fset := token.NewFileSet()
	for _, path := range files {
		file, err := parser.ParseFile(fset, path, nil, parser.ParseComments|parser.SkipObjectResolution)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse %s", path)
		}

		for _, decl := range file.Decls {
			fd, ok := decl.(*ast.FuncDecl)
			if !ok || fd.Recv != nil || fd.Name.Name != g.opts.Function {
				continue
			}
			fn, err := checkFunc(fd)
			if err != nil {
				return nil, errors.Wrapf(err, "%s: %s", fset.Position(fd.Pos()), fd.Name.Name)
			}
			fn.Package = file.Name.Name
			fn.File = path
			fn.Name = g.opts.Name
			if fn.Name == "" {
				fn.Name = fn.Function
			}
			return fn, nil
		}
	}

	return nil, errors.Errorf("function %s not found in %s", g.opts.Function, g.opts.Dir)
}

func (g *Generator) sourceFiles() ([]string, error) {
	entries, err := os.ReadDir(g.opts.Dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read package directory %s", g.opts.Dir)
	}

	var files []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") || name == g.opts.Output {
			continue
		}
		files = append(files, filepath.Join(g.opts.Dir, name))
	}
	sort.Strings(files)
	return files, nil
}

// checkFunc accepts func([context.Context,] C, In) Out and
// func([context.Context,] C, In) (Out, error). Types are only checked as far
// as the syntax allows; the rest is left to skill.MustPackage at init.
func checkFunc(fd *ast.FuncDecl) (*SkillFunc, error) {
	if fd.Type.TypeParams != nil && len(fd.Type.TypeParams.List) > 0 {
		return nil, errors.New("skill function must not be generic")
	}

	params := flatten(fd.Type.Params)
	fn := &SkillFunc{Function: fd.Name.Name}

	switch len(params) {
	case 3:
		if !isContext(params[0]) {
			return nil, errors.New("first of three parameters must be context.Context")
		}
		fn.WithContext = true
	case 2:
	default:
		return nil, errors.Errorf("skill function takes a capability interface and an input, found %d parameters", len(params))
	}
	for _, p := range params {
		if _, ok := p.(*ast.Ellipsis); ok {
			return nil, errors.New("skill function must not be variadic")
		}
	}

	results := flatten(fd.Type.Results)
	switch len(results) {
	case 1:
		if isError(results[0]) {
			return nil, errors.New("skill function must return an output value")
		}
	case 2:
		if !isError(results[1]) {
			return nil, errors.New("second result must be error")
		}
		fn.Fallible = true
	default:
		return nil, errors.Errorf("skill function returns an output, optionally followed by an error, found %d results", len(results))
	}

	fn.Doc = docLines(fd.Doc)
	return fn, nil
}

// flatten expands grouped fields such as (a, b string) into one type per name
func flatten(fields *ast.FieldList) []ast.Expr {
	if fields == nil {
		return nil
	}
	var out []ast.Expr
	for _, f := range fields.List {
		n := len(f.Names)
		if n == 0 {
			n = 1
		}
		for range n {
			out = append(out, f.Type)
		}
	}
	return out
}

func isContext(expr ast.Expr) bool {
	sel, ok := expr.(*ast.SelectorExpr)
	if !ok {
		return false
	}
	pkg, ok := sel.X.(*ast.Ident)
	return ok && pkg.Name == "context" && sel.Sel.Name == "Context"
}

func isError(expr ast.Expr) bool {
	ident, ok := expr.(*ast.Ident)
	return ok && ident.Name == "error"
}

// docLines returns the doc comment line by line, without directives such as
// //go:generate. An undocumented function has no lines.
func docLines(doc *ast.CommentGroup) []string {
	if doc == nil {
		return nil
	}
	text := strings.TrimRight(doc.Text(), "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

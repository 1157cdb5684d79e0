package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/rulego/formula"
	"github.com/rulego/formula/functions"
	"github.com/rulego/formula/ir"
	"github.com/rulego/formula/logger"
	"github.com/rulego/formula/scope"
	"github.com/rulego/formula/syntax"
	"github.com/rulego/formula/utils/table"
)

// errReported marks a failure already written to the output.
var errReported = errors.New("reported")

// env carries the streams and the compiler into commands.
type env struct {
	stdin    io.Reader
	stdout   io.Writer
	stderr   io.Writer
	compiler *formula.Compiler
}

// CLI is the top-level command line.
type CLI struct {
	LogLevel string `name:"log-level" env:"FORMULAC_LOG_LEVEL" default:"warn" enum:"debug,info,warn,error,off" help:"Set log level."`

	Compile   Compile   `cmd:"" default:"withargs" help:"Compile a formula to IR JSON."`
	Format    Format    `cmd:"" help:"Render IR JSON back to formula source."`
	Functions Functions `cmd:"" help:"List the function catalogue."`
}

// Compile compiles one formula.
type Compile struct {
	Rule   string `short:"r" env:"FORMULAC_RULE" default:"expression" enum:"expression,boolean,aggregation" help:"Start rule."`
	Scope  string `short:"s" env:"FORMULAC_SCOPE" type:"existingfile" help:"YAML scope file with columns, expressions, segments and metrics."`
	Indent int    `short:"i" default:"2" help:"Indent width for JSON output; 0 for compact."`

	Source []string `arg:"" optional:"" help:"Formula source; read from stdin when omitted."`
}

// Run executes the compile command.
func (c *Compile) Run(ctx context.Context, e *env) error {
	rule, err := syntax.ParseStartRule(c.Rule)
	if err != nil {
		return err
	}
	sc, err := loadScope(c.Scope)
	if err != nil {
		return err
	}
	source, err := readSource(c.Source, e.stdin)
	if err != nil {
		return err
	}

	result := e.compiler.CompileExpression(formula.Request{Source: source, Rule: rule, Scope: sc})
	if err := writeJSON(e.stdout, result, c.Indent); err != nil {
		return err
	}
	if d := result.Error; d != nil {
		fmt.Fprintf(e.stderr, "%s: %s\n%s\n", d.Code, d.Message,
			syntax.FormatErrorContext(source, d.Position.Offset, 20))
		if len(d.Suggestions) > 0 {
			fmt.Fprintf(e.stderr, "did you mean: %s\n", strings.Join(d.Suggestions, ", "))
		}
		return errReported
	}
	return nil
}

// Format decompiles IR JSON.
type Format struct {
	Scope string `short:"s" env:"FORMULAC_SCOPE" type:"existingfile" help:"YAML scope file used to name columns, segments and metrics."`

	Clause []string `arg:"" optional:"" help:"IR JSON; read from stdin when omitted."`
}

// Run executes the format command.
func (f *Format) Run(ctx context.Context, e *env) error {
	sc, err := loadScope(f.Scope)
	if err != nil {
		return err
	}
	text, err := readSource(f.Clause, e.stdin)
	if err != nil {
		return err
	}
	clause, err := ir.Decode([]byte(text))
	if err != nil {
		return fmt.Errorf("decode clause: %w", err)
	}
	source, err := e.compiler.Format(clause, sc)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(e.stdout, source)
	return err
}

// Functions prints the function catalogue.
type Functions struct {
	Type   string `short:"t" help:"Only list functions of this type (aggregation, math, string, datetime, conversion, conditional, predicate)."`
	Output string `short:"o" default:"table" enum:"table,json" help:"Output format."`
}

type functionEntry struct {
	Name        string   `json:"name"`
	Aliases     []string `json:"aliases,omitempty"`
	Keyword     string   `json:"keyword"`
	Type        string   `json:"type"`
	Returns     string   `json:"returns"`
	Arity       string   `json:"arity"`
	Options     []string `json:"options,omitempty"`
	Description string   `json:"description,omitempty"`
}

// Run executes the functions command.
func (f *Functions) Run(ctx context.Context, e *env) error {
	if f.Type != "" && !functions.IsType(f.Type) {
		return fmt.Errorf("unknown function type %q", f.Type)
	}

	var entries []functionEntry
	for _, fn := range e.compiler.Functions() {
		if f.Type != "" && !strings.EqualFold(string(fn.Type), f.Type) {
			continue
		}
		entries = append(entries, functionEntry{
			Name:        fn.Name,
			Aliases:     fn.Aliases,
			Keyword:     fn.Keyword,
			Type:        string(fn.Type),
			Returns:     string(fn.Return),
			Arity:       fn.Arity(),
			Options:     fn.FlagLiterals(),
			Description: fn.Description,
		})
	}
	if f.Output == "json" {
		return writeJSON(e.stdout, entries, 2)
	}

	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, []string{entry.Name, entry.Keyword, entry.Type, entry.Returns, entry.Arity, entry.Description})
	}
	return table.Write(e.stdout, []string{"NAME", "KEYWORD", "TYPE", "RETURNS", "ARITY", "DESCRIPTION"}, rows)
}

func loadScope(path string) (*scope.Static, error) {
	if path == "" {
		return scope.NewStatic(), nil
	}
	return scope.LoadFile(path)
}

func readSource(args []string, stdin io.Reader) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

func writeJSON(w io.Writer, v any, indent int) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if indent > 0 {
		enc.SetIndent("", strings.Repeat(" ", indent))
	}
	return enc.Encode(v)
}

// run parses args and executes the selected command, returning the exit
// code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) (code int) {
	var cli CLI
	exited := false
	parser, err := kong.New(&cli,
		kong.Name("formulac"),
		kong.Description("Compile formulas into query IR."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(c int) {
			exited = true
			code = c
		}),
		kong.UsageOnError(),
		kong.BindTo(ctx, (*context.Context)(nil)),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true, Summary: true}),
	)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	ktx, err := parser.Parse(args)
	if exited {
		return code
	}
	if err != nil {
		parser.Errorf("%s", err)
		return 2
	}

	level, err := logger.ParseLevel(cli.LogLevel)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	log := logger.NewLogger(level, stderr)
	e := &env{
		stdin:    stdin,
		stdout:   stdout,
		stderr:   stderr,
		compiler: formula.New(formula.WithLogger(log)),
	}

	if err := ktx.Run(e); err != nil {
		if !errors.Is(err, errReported) {
			log.Error("%s failed: %v", ktx.Command(), err)
		}
		return 1
	}
	return 0
}

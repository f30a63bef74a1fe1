// FILE: lixenwraith/nodeconf/cli/cli.go

// Package cli wraps a schema in a cobra command: it loads a configuration
// file, applies "path=value" overrides given as arguments, prints the
// requested views and hands the constructed tree to the program.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/lixenwraith/nodeconf"
	"github.com/lixenwraith/nodeconf/render"
)

// PrintMode selects what the command prints before running.
type PrintMode string

const (
	// PrintParsed prints the constructed configuration
	PrintParsed PrintMode = "parsed"
	// PrintInputs prints the raw mapping of every source
	PrintInputs PrintMode = "inputs"
	// PrintDefaults prints the schema's parameter listing
	PrintDefaults PrintMode = "defaults"
	// PrintContinue runs the program after printing
	PrintContinue PrintMode = "continue"
)

// DefaultPrintModes prints the parsed configuration and runs the program.
var DefaultPrintModes = []PrintMode{PrintParsed, PrintContinue}

var modeAliases = map[string]PrintMode{
	"p": PrintParsed, "parsed": PrintParsed,
	"i": PrintInputs, "inputs": PrintInputs,
	"d": PrintDefaults, "defaults": PrintDefaults,
	"c": PrintContinue, "continue": PrintContinue,
}

// RunFunc receives the constructed configuration.
type RunFunc func(ctx context.Context, root *nodeconf.Node) error

// Options configures the generated command.
type Options struct {
	Use     string
	Short   string
	Version string

	// EnvPrefix enables environment overrides, e.g. "TRAIN_"
	EnvPrefix string

	// Discovery locates a configuration file when --config is not given
	Discovery *nodeconf.FileDiscoveryOptions

	Stdout io.Writer
	Stderr io.Writer
}

type flags struct {
	config  string
	print   []string
	debug   bool
	lenient bool
	format  string
	noColor bool
}

// NewCommand builds the cobra command for schema. Positional arguments are
// "path=value" overrides applied over the configuration file.
func NewCommand(schema *nodeconf.Schema, run RunFunc, opts Options) *cobra.Command {
	var f flags

	use := opts.Use
	if use == "" {
		use = schema.Name()
	}

	cmd := &cobra.Command{
		Use:     use + " [path=value ...]",
		Short:   opts.Short,
		Version: opts.Version,
		Args:    cobra.ArbitraryArgs,
		// Errors are reported once by the caller
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(cmd, schema, run, opts, f, args)
		},
	}
	if opts.Stdout != nil {
		cmd.SetOut(opts.Stdout)
	}
	if opts.Stderr != nil {
		cmd.SetErr(opts.Stderr)
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.config, "config", "c", "", "configuration file (yaml, json, jsonc or toml)")
	fl.StringSliceVarP(&f.print, "print", "p", modeNames(DefaultPrintModes),
		"what to print: parsed, inputs, defaults, continue (or p, i, d, c)")
	fl.BoolVarP(&f.debug, "debug", "d", false, "enable debug logging")
	fl.BoolVar(&f.lenient, "lenient", false, "ignore unknown configuration keys")
	fl.StringVarP(&f.format, "format", "f", "yaml", "format for printed configuration: yaml, json, toml or tree")
	fl.BoolVar(&f.noColor, "no-color", false, "disable syntax highlighting")

	return cmd
}

// Main runs the command for schema with os.Args and exits with ExitCode.
func Main(schema *nodeconf.Schema, run RunFunc, opts Options) {
	cmd := NewCommand(schema, run, opts)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		os.Exit(ExitCode(err))
	}
}

// ExitCode maps an error to a process exit status: 0 for nil, 2 for
// malformed overrides, 3 for values rejected by the schema, 4 for schema
// declaration errors and 1 otherwise.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, nodeconf.ErrCLIParse):
		return 2
	case errors.Is(err, nodeconf.ErrValidation), errors.Is(err, nodeconf.ErrCast):
		return 3
	case errors.Is(err, nodeconf.ErrConfig):
		return 4
	default:
		return 1
	}
}

func execute(cmd *cobra.Command, schema *nodeconf.Schema, run RunFunc, opts Options, f flags, args []string) error {
	modes, err := parseModes(f.print)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	logger := newLogger(cmd.ErrOrStderr(), f.debug).With("schema", schema.Name())

	if modes[PrintDefaults] {
		fmt.Fprintln(out, "DEFAULT PARAMETERS:")
		fmt.Fprintln(out, render.Params(schema))
	}

	b := nodeconf.NewBuilder(schema).
		WithArgs(args).
		WithEnvPrefix(opts.EnvPrefix).
		WithStrict(!f.lenient)
	if opts.EnvPrefix == "" {
		b.WithSources(nodeconf.SourceCLI, nodeconf.SourceFile, nodeconf.SourceDefault)
	}
	switch {
	case f.config != "":
		b.WithFile(f.config)
	case opts.Discovery != nil:
		b.WithFileDiscovery(*opts.Discovery)
	}

	res, err := b.Resolve()
	if res == nil {
		return err
	}
	if res.FileErr != nil {
		// A file named with --config must exist
		if f.config != "" {
			return res.FileErr
		}
		// A path from the discovery env var may not; the defaults still apply
		logger.Warn("configuration file not found", "file", res.FilePath)
	}
	logger.Debug("configuration resolved",
		"file", res.FilePath,
		"sources", res.Order,
		"overrides", len(args))

	if modes[PrintInputs] {
		if err := printInputs(out, res); err != nil {
			return err
		}
	}
	// Construction failed; the inputs above show what was merged
	if res.Root == nil {
		return err
	}

	if f.debug {
		if sum, err := res.Root.Fingerprint(); err == nil {
			logger.Debug("configuration fingerprint", "blake3", sum)
		}
	}

	if modes[PrintParsed] {
		fmt.Fprintln(out, "PARSED CONFIG:")
		text, err := formatTree(res.Root, f.format)
		if err != nil {
			return err
		}
		if f.format != "tree" && !f.noColor && isTerminal(out) {
			text = render.Highlight(text, f.format)
		}
		fmt.Fprintln(out, strings.TrimRight(text, "\n"))
	}

	if !modes[PrintContinue] || run == nil {
		return nil
	}
	logger.Debug("running program")
	return run(cmd.Context(), res.Root)
}

func printInputs(out io.Writer, res *nodeconf.Resolution) error {
	fmt.Fprintln(out, "INPUT PARAMETERS:")
	// Highest precedence first
	for _, src := range slices.Backward(res.Order) {
		m := res.Sources[src]
		if m.Len() == 0 {
			continue
		}
		data, err := nodeconf.MarshalMap(m, nodeconf.FormatYAML)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s:\n%s", strings.ToUpper(string(src)), render.Indent(string(data), 1))
	}
	return nil
}

func formatTree(root *nodeconf.Node, format string) (string, error) {
	if format == "tree" {
		return render.Tree(root, root.Schema().Name()), nil
	}
	data, err := nodeconf.Marshal(root, nodeconf.Format(format))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func parseModes(names []string) (map[PrintMode]bool, error) {
	modes := make(map[PrintMode]bool, len(names))
	for _, name := range names {
		mode, ok := modeAliases[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("unknown print mode %q", name)
		}
		modes[mode] = true
	}
	return modes, nil
}

func modeNames(modes []PrintMode) []string {
	names := make([]string, len(modes))
	for i, m := range modes {
		names[i] = string(m)
	}
	return names
}

// newLogger creates the command logger. Terminals get text output, anything
// else JSON. debug lowers the level from warn to debug.
func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	options := &slog.HandlerOptions{Level: level}
	if isTerminal(w) {
		return slog.New(slog.NewTextHandler(w, options))
	}
	return slog.New(slog.NewJSONHandler(w, options))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

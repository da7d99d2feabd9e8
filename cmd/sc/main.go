// Package main provides the sc command, the front end for sc scripts.
// It handles subcommand routing and delegates to the lexer, parser and
// the tooling built around them.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/sclang/sc/internal/cli"
	"github.com/sclang/sc/internal/config"
	"github.com/sclang/sc/internal/diagnostic"
	"github.com/sclang/sc/internal/errors"
	"github.com/sclang/sc/internal/term"
)

// defaultScript is parsed when no file is given
const defaultScript = "examples/script.sc"

// env carries the process streams so commands can be driven from tests
type env struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

type command struct {
	info cli.CommandInfo
	run  func(e *env, args []string) error
}

var commands []command

func init() {
	commands = []command{
		{cli.CommandInfo{
			Name:        "parse",
			Usage:       "sc parse [-format debug|json|yaml|text] [-permissive] [file]",
			Description: "Parse a script and print its syntax tree",
			Examples:    []string{"sc parse", "sc parse -format json examples/script.sc"},
		}, cmdParse},
		{cli.CommandInfo{
			Name:        "tokens",
			Usage:       "sc tokens [-format debug|json|yaml|text] [file]",
			Description: "Print the token sequence of a script",
			Examples:    []string{"sc tokens -format text examples/script.sc"},
		}, cmdTokens},
		{cli.CommandInfo{
			Name:        "check",
			Usage:       "sc check [-jobs N] <files...>",
			Description: "Parse files concurrently and report every error",
			Examples:    []string{"sc check -jobs 4 a.sc b.sc"},
		}, cmdCheck},
		{cli.CommandInfo{
			Name:        "fmt",
			Usage:       "sc fmt [-w | -l | -d] <files...>",
			Description: "Rewrite scripts in canonical layout",
			Examples:    []string{"sc fmt -d examples/script.sc", "sc fmt -w a.sc b.sc"},
		}, cmdFmt},
		{cli.CommandInfo{
			Name:        "watch",
			Usage:       "sc watch [-format ...] <files...>",
			Description: "Re-parse files whenever they change",
			Examples:    []string{"sc watch examples/script.sc"},
		}, cmdWatch},
		{cli.CommandInfo{
			Name:        "repl",
			Usage:       "sc repl [-history file] [-tokens]",
			Description: "Start an interactive parse shell",
		}, cmdRepl},
		{cli.CommandInfo{
			Name:        "serve",
			Usage:       "sc serve [-addr host:port] (-cert file -key file | -self-signed)",
			Description: "Serve the parser over HTTP/3",
			Examples:    []string{"sc serve -addr :4433 -cert cert.pem -key key.pem"},
		}, cmdServe},
		{cli.CommandInfo{
			Name:        "version",
			Usage:       "sc version [-json]",
			Description: "Print version information",
		}, cmdVersion},
	}
}

func main() {
	os.Exit(run(os.Args[1:], &env{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}))
}

// run executes one invocation and returns the process exit code
func run(args []string, e *env) int {
	if len(args) < 1 {
		usage(e.stderr)
		return errors.ExitUsage
	}

	sub, rest := args[0], args[1:]
	switch sub {
	case "help", "-h", "--help":
		if len(rest) > 0 {
			if c := lookup(rest[0]); c != nil {
				cli.PrintCommandUsage(e.stdout, "sc", c.info)
				return errors.ExitOK
			}
		}
		usage(e.stdout)
		return errors.ExitOK
	case "-v", "--version":
		cli.PrintVersion(e.stdout, "sc", false)
		return errors.ExitOK
	}

	c := lookup(sub)
	if c == nil {
		fmt.Fprintf(e.stderr, "unknown subcommand: %s\n", sub)
		usage(e.stderr)
		return errors.ExitUsage
	}

	if err := c.run(e, rest); err != nil {
		report(e.stderr, err)
		return errors.ExitCode(err)
	}
	return errors.ExitOK
}

func lookup(name string) *command {
	for i := range commands {
		if commands[i].info.Name == name {
			return &commands[i]
		}
	}
	return nil
}

func usage(w io.Writer) {
	infos := make([]cli.CommandInfo, 0, len(commands)+1)
	for _, c := range commands {
		infos = append(infos, c.info)
	}
	infos = append(infos, cli.CommandInfo{Name: "help", Description: "Show help for sc or a command"})
	cli.PrintUsage(w, "sc", infos)
}

// report prints err, rendering located failures with their source line
func report(w io.Writer, err error) {
	if d, ok := err.(*diagnostic.Diagnostic); ok {
		_ = renderer(w).Render(w, d)
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}

func renderer(w io.Writer) diagnostic.Renderer {
	f, ok := w.(*os.File)
	return diagnostic.Renderer{Color: ok && term.ColorEnabled(f)}
}

// globalFlags are accepted by every subcommand
type globalFlags struct {
	config  string
	verbose bool
	debug   bool
}

func (g *globalFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&g.config, "config", config.DefaultFile, "project config file (TOML or YAML)")
	fs.BoolVar(&g.verbose, "v", false, "verbose output")
	fs.BoolVar(&g.debug, "debug", false, "debug output")
}

// setup loads and validates the config and builds the logger
func (g *globalFlags) setup(e *env) (*config.Config, *cli.Logger, error) {
	var log *cli.Logger
	if f, ok := e.stderr.(*os.File); ok && f == os.Stderr {
		log = cli.NewLogger(g.verbose, g.debug)
	} else {
		log = cli.NewLoggerTo(e.stderr, g.verbose, g.debug)
	}

	cfg, err := config.Load(g.config)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(cli.Version); err != nil {
		return nil, nil, err
	}
	if cfg.Path != "" {
		log.Debug("loaded config %s", cfg.Path)
	}
	return cfg, log, nil
}

// newFlagSet returns a flag set that reports errors instead of exiting
func newFlagSet(e *env, name string, g *globalFlags) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	fs.Usage = func() {
		if c := lookup(name); c != nil {
			cli.PrintCommandUsage(e.stderr, "sc", c.info)
		}
		fmt.Fprintln(e.stderr, "OPTIONS:")
		fs.PrintDefaults()
	}
	g.register(fs)
	return fs
}

// parseFlags parses args, mapping -h to a clean exit
func parseFlags(fs *flag.FlagSet, args []string) (bool, error) {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return false, nil
		}
		return false, errors.InvalidUsage("%v", err)
	}
	return true, nil
}

// readSource reads path, or standard input for "-"
func readSource(e *env, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(e.stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", errors.ReadFailed(path, err)
	}
	return string(data), nil
}

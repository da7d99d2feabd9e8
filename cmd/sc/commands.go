package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/sclang/sc/internal/ast"
	"github.com/sclang/sc/internal/cli"
	"github.com/sclang/sc/internal/config"
	"github.com/sclang/sc/internal/diagnostic"
	"github.com/sclang/sc/internal/encode"
	"github.com/sclang/sc/internal/errors"
	"github.com/sclang/sc/internal/lexer"
	"github.com/sclang/sc/internal/parser"
	"github.com/sclang/sc/internal/watch"
)

// outputFormat resolves the -format flag against the config default
func outputFormat(cfg *config.Config, flagValue string) (encode.Format, error) {
	if flagValue == "" {
		return cfg.OutputFormat(), nil
	}
	f, err := encode.ParseFormat(flagValue)
	if err != nil {
		return "", errors.InvalidUsage("%v", err)
	}
	return f, nil
}

func parseFile(e *env, path string, opts parser.Options) (*ast.Ast, error) {
	src, err := readSource(e, path)
	if err != nil {
		return nil, err
	}
	program, err := parser.ParseWithOptions(src, opts)
	if err != nil {
		return nil, diagnostic.New(path, src, opts.Normalize, err)
	}
	return program, nil
}

func cmdParse(e *env, args []string) error {
	var g globalFlags
	fs := newFlagSet(e, "parse", &g)
	format := fs.String("format", "", "output format: debug, json, yaml or text (default from config)")
	permissive := fs.Bool("permissive", false, "replace unrecognised top-level tokens with a placeholder")
	if ok, err := parseFlags(fs, args); !ok {
		return err
	}

	cfg, log, err := g.setup(e)
	if err != nil {
		return err
	}
	f, err := outputFormat(cfg, *format)
	if err != nil {
		return err
	}
	opts := cfg.ParserOptions()
	if *permissive {
		opts.Permissive = true
	}

	path := defaultScript
	if fs.NArg() > 0 {
		path = fs.Arg(0)
	}
	log.Debug("parsing %s (permissive=%t normalize=%t)", path, opts.Permissive, opts.Normalize)

	program, err := parseFile(e, path, opts)
	if err != nil {
		writeStructuredError(e, f, err)
		return err
	}
	log.Info("parsed %s: %d top-level nodes", path, len(program.Nodes))
	return encode.WriteProgram(e.stdout, f, program)
}

func cmdTokens(e *env, args []string) error {
	var g globalFlags
	fs := newFlagSet(e, "tokens", &g)
	format := fs.String("format", "", "output format: debug, json, yaml or text (default from config)")
	if ok, err := parseFlags(fs, args); !ok {
		return err
	}

	cfg, log, err := g.setup(e)
	if err != nil {
		return err
	}
	f, err := outputFormat(cfg, *format)
	if err != nil {
		return err
	}

	path := defaultScript
	if fs.NArg() > 0 {
		path = fs.Arg(0)
	}
	src, err := readSource(e, path)
	if err != nil {
		return err
	}

	tokens, err := lexer.NewWithOptions(src, lexer.Options{Normalize: cfg.Normalize}).Tokenise()
	if err != nil {
		d := diagnostic.New(path, src, cfg.Normalize, err)
		writeStructuredError(e, f, d)
		return d
	}
	log.Info("tokenised %s: %d tokens", path, len(tokens))
	return encode.WriteTokens(e.stdout, f, tokens)
}

// writeStructuredError mirrors a failure on stdout for json and yaml consumers
func writeStructuredError(e *env, f encode.Format, err error) {
	if f != encode.FormatJSON && f != encode.FormatYAML {
		return
	}
	_ = encode.WriteError(e.stdout, f, err, string(errors.CategoryOf(err)))
}

// checkResult is the outcome for one file
type checkResult struct {
	path  string
	nodes int
	err   error
}

func cmdCheck(e *env, args []string) error {
	var g globalFlags
	fs := newFlagSet(e, "check", &g)
	jobs := fs.Int("jobs", 0, "files parsed in parallel (default from config)")
	permissive := fs.Bool("permissive", false, "replace unrecognised top-level tokens with a placeholder")
	if ok, err := parseFlags(fs, args); !ok {
		return err
	}

	cfg, log, err := g.setup(e)
	if err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.InvalidUsage("no files given\nUsage: sc check [-jobs N] <files...>")
	}
	limit := cfg.Jobs
	if *jobs > 0 {
		limit = *jobs
	}
	opts := cfg.ParserOptions()
	if *permissive {
		opts.Permissive = true
	}

	results := checkFiles(context.Background(), e, fs.Args(), opts, limit)

	var (
		diags diagnostic.Engine
		worst error
	)
	for _, r := range results {
		if r.err == nil {
			log.Info("ok %s (%d top-level nodes)", r.path, r.nodes)
			continue
		}
		if d, ok := r.err.(*diagnostic.Diagnostic); ok {
			diags.Add(d)
		} else {
			log.Error("%v", r.err)
		}
		if worst == nil || errors.ExitCode(r.err) > errors.ExitCode(worst) {
			worst = r.err
		}
	}
	_ = diags.Render(e.stderr, renderer(e.stderr))

	if worst != nil {
		failed := 0
		for _, r := range results {
			if r.err != nil {
				failed++
			}
		}
		return fmt.Errorf("%d of %d files failed (%s): %w", failed, len(results), diags.Summary(len(results)), worst)
	}
	log.Info(diags.Summary(len(results)))
	return nil
}

// checkFiles parses paths with at most limit parsers running at once.
// Results keep the order of paths.
func checkFiles(ctx context.Context, e *env, paths []string, opts parser.Options, limit int) []checkResult {
	results := make([]checkResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, path := range paths {
		g.Go(func() error {
			results[i].path = path
			if err := gctx.Err(); err != nil {
				results[i].err = err
				return nil
			}
			program, err := parseFile(e, path, opts)
			if err != nil {
				results[i].err = err
				return nil
			}
			results[i].nodes = len(program.Nodes)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func cmdWatch(e *env, args []string) error {
	var g globalFlags
	fs := newFlagSet(e, "watch", &g)
	format := fs.String("format", "", "output format: debug, json, yaml or text (default from config)")
	if ok, err := parseFlags(fs, args); !ok {
		return err
	}

	cfg, log, err := g.setup(e)
	if err != nil {
		return err
	}
	f, err := outputFormat(cfg, *format)
	if err != nil {
		return err
	}
	paths := fs.Args()
	if len(paths) == 0 {
		paths = []string{defaultScript}
	}
	opts := cfg.ParserOptions()

	w, err := watch.New()
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer w.Close()

	reparse := func(path string) {
		program, err := parseFile(e, path, opts)
		if err != nil {
			report(e.stderr, err)
			return
		}
		log.Info("parsed %s: %d top-level nodes", path, len(program.Nodes))
		if err := encode.WriteProgram(e.stdout, f, program); err != nil {
			log.Error("write %s: %v", path, err)
		}
	}

	for _, path := range paths {
		if err := w.Add(path); err != nil {
			return errors.ReadFailed(path, err)
		}
		reparse(path)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("watching %d files", len(paths))
	err = watch.Run(ctx, w, watch.DefaultDebounce, reparse)
	if stderrors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func cmdVersion(e *env, args []string) error {
	var g globalFlags
	fs := newFlagSet(e, "version", &g)
	jsonOutput := fs.Bool("json", false, "output version in JSON format")
	if ok, err := parseFlags(fs, args); !ok {
		return err
	}
	cli.PrintVersion(e.stdout, "sc", *jsonOutput)
	return nil
}

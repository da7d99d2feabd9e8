package main

import (
	"fmt"
	"os"

	"github.com/sclang/sc/internal/diagnostic"
	"github.com/sclang/sc/internal/errors"
	"github.com/sclang/sc/internal/format"
)

func cmdFmt(e *env, args []string) error {
	var g globalFlags
	fs := newFlagSet(e, "fmt", &g)
	write := fs.Bool("w", false, "write result to the source file instead of stdout")
	list := fs.Bool("l", false, "list files whose formatting differs")
	diff := fs.Bool("d", false, "print a unified diff instead of the formatted source")
	if ok, err := parseFlags(fs, args); !ok {
		return err
	}

	cfg, log, err := g.setup(e)
	if err != nil {
		return err
	}
	paths := fs.Args()
	if len(paths) == 0 {
		paths = []string{defaultScript}
	}
	if *write {
		for _, p := range paths {
			if p == "-" {
				return errors.InvalidUsage("cannot use -w with standard input")
			}
		}
	}
	opts := cfg.FormatOptions()

	for _, path := range paths {
		src, err := readSource(e, path)
		if err != nil {
			return err
		}
		out, err := format.Source(src, opts, cfg.Normalize)
		if err != nil {
			return diagnostic.New(path, src, cfg.Normalize, err)
		}

		changed := out != src
		switch {
		case *list:
			if changed {
				fmt.Fprintln(e.stdout, path)
			}
		case *diff:
			d, err := format.Diff(path, src, out)
			if err != nil {
				return err
			}
			fmt.Fprint(e.stdout, d)
		case *write:
			if !changed {
				continue
			}
			info, err := os.Stat(path)
			if err != nil {
				return errors.ReadFailed(path, err)
			}
			if err := os.WriteFile(path, []byte(out), info.Mode().Perm()); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			log.Info("formatted %s", path)
		default:
			fmt.Fprint(e.stdout, out)
		}
	}
	return nil
}

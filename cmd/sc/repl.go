package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/peterh/liner"

	"github.com/sclang/sc/internal/diagnostic"
	"github.com/sclang/sc/internal/encode"
	"github.com/sclang/sc/internal/lexer"
	"github.com/sclang/sc/internal/parser"
)

const replHelp = `Enter declarations and loops; each entry is parsed and printed back.
Commands:
  :tokens       toggle token display
  :permissive   toggle the permissive top level
  :help         show this help
  :quit         exit
`

// session holds the state of one interactive shell
type session struct {
	opts       parser.Options
	showTokens bool
	out        io.Writer
	errOut     io.Writer
}

// handle processes one entry and reports whether the shell should continue
func (s *session) handle(entry string) bool {
	code := strings.TrimSpace(entry)
	if code == "" {
		return true
	}

	if strings.HasPrefix(code, ":") {
		switch strings.ToLower(code) {
		case ":quit", ":q", ":exit":
			return false
		case ":tokens":
			s.showTokens = !s.showTokens
			fmt.Fprintf(s.out, "token display %s\n", onOff(s.showTokens))
		case ":permissive":
			s.opts.Permissive = !s.opts.Permissive
			fmt.Fprintf(s.out, "permissive top level %s\n", onOff(s.opts.Permissive))
		case ":help", ":h":
			fmt.Fprint(s.out, replHelp)
		default:
			fmt.Fprintf(s.out, "unknown command %s. Type :help for a list.\n", code)
		}
		return true
	}

	if s.showTokens {
		tokens, err := lexer.NewWithOptions(entry, lexer.Options{Normalize: s.opts.Normalize}).Tokenise()
		if err != nil {
			report(s.errOut, diagnostic.New("", entry, s.opts.Normalize, err))
			return true
		}
		_ = encode.WriteTokens(s.out, encode.FormatText, tokens)
	}

	program, err := parser.ParseWithOptions(entry, s.opts)
	if err != nil {
		report(s.errOut, diagnostic.New("", entry, s.opts.Normalize, err))
		return true
	}
	_ = encode.WriteProgram(s.out, encode.FormatText, program)
	return true
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func cmdRepl(e *env, args []string) error {
	var g globalFlags
	fs := newFlagSet(e, "repl", &g)
	history := fs.String("history", "", "history file (default from config)")
	tokens := fs.Bool("tokens", false, "show tokens for every entry")
	if ok, err := parseFlags(fs, args); !ok {
		return err
	}

	cfg, log, err := g.setup(e)
	if err != nil {
		return err
	}
	if *history == "" {
		*history = cfg.REPL.History
	}

	s := &session{opts: cfg.ParserOptions(), showTokens: *tokens, out: e.stdout, errOut: e.stderr}
	promptMain := cfg.REPL.Prompt
	promptCont := strings.Repeat(".", max(len(strings.TrimRight(promptMain, " ")), 1)) + " "

	fmt.Fprintf(e.stdout, "sc REPL. Type :help for commands, :quit to exit.\n")

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if *history != "" {
		if f, err := os.Open(*history); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
		defer func() {
			f, err := os.Create(*history)
			if err != nil {
				log.Warn("cannot save history: %v", err)
				return
			}
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}()
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	for {
		entry, ok := readByParseProbe(ln, s.opts, promptMain, promptCont)
		if !ok {
			fmt.Fprintln(e.stdout)
			return nil
		}
		if strings.TrimSpace(entry) != "" {
			ln.AppendHistory(strings.ReplaceAll(entry, "\n", " "))
		}
		if !s.handle(entry) {
			return nil
		}
	}
}

// readByParseProbe reads lines until they form input that is either
// complete or wrong for a reason other than running out of tokens.
func readByParseProbe(ln *liner.State, opts parser.Options, prompt, cont string) (string, bool) {
	var b strings.Builder

	for {
		p := prompt
		if b.Len() > 0 {
			p = cont
		}
		line, err := ln.Prompt(p)
		if stderrors.Is(err, io.EOF) {
			return "", false
		}
		if stderrors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if err != nil {
			return "", false
		}

		if b.Len() == 0 && strings.HasPrefix(strings.TrimSpace(line), ":") {
			return line, true
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if _, perr := parser.ParseWithOptions(src, opts); parser.IsIncomplete(perr) {
			continue
		}
		return src, true
	}
}

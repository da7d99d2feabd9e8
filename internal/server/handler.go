// Package server exposes the lexer and parser as an HTTP service.
//
// Every endpoint takes the raw source text as the request body and answers
// with JSON. Lex and parse failures are reported with status 422 and a body
// of the form {"error": "...", "category": "SYNTAX"}.
package server

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/sclang/sc/internal/cli"
	"github.com/sclang/sc/internal/encode"
	"github.com/sclang/sc/internal/errors"
	"github.com/sclang/sc/internal/lexer"
	"github.com/sclang/sc/internal/parser"
)

// DefaultMaxBody bounds the accepted source size
const DefaultMaxBody = 1 << 20

// Options configures the handler
type Options struct {
	Parser  parser.Options
	MaxBody int64
	Logger  *cli.Logger
}

type handler struct {
	opts Options
}

// NewHandler returns the service mux
func NewHandler(opts Options) http.Handler {
	if opts.MaxBody <= 0 {
		opts.MaxBody = DefaultMaxBody
	}
	h := &handler{opts: opts}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/tokenise", h.tokenise)
	mux.HandleFunc("POST /v1/parse", h.parse)
	mux.HandleFunc("GET /healthz", h.healthz)
	return mux
}

func (h *handler) readSource(w http.ResponseWriter, r *http.Request) (string, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.opts.MaxBody))
	if err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		h.writeJSON(w, status, encode.ErrorBody(err, string(errors.CategoryIO)))
		return "", false
	}
	return string(body), true
}

// parserOptions applies the ?permissive= query override
func (h *handler) parserOptions(r *http.Request) (parser.Options, error) {
	opts := h.opts.Parser
	if v := r.URL.Query().Get("permissive"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, fmt.Errorf("invalid permissive value %q", v)
		}
		opts.Permissive = b
	}
	return opts, nil
}

func (h *handler) tokenise(w http.ResponseWriter, r *http.Request) {
	source, ok := h.readSource(w, r)
	if !ok {
		return
	}
	opts, err := h.parserOptions(r)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, encode.ErrorBody(err, string(errors.CategoryUsage)))
		return
	}

	tokens, err := lexer.NewWithOptions(source, lexer.Options{Normalize: opts.Normalize}).Tokenise()
	if err != nil {
		h.failed(w, r, err)
		return
	}
	h.logDebug("tokenise: %d tokens", len(tokens))
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"tokens": encode.Tokens(tokens)})
}

func (h *handler) parse(w http.ResponseWriter, r *http.Request) {
	source, ok := h.readSource(w, r)
	if !ok {
		return
	}
	opts, err := h.parserOptions(r)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, encode.ErrorBody(err, string(errors.CategoryUsage)))
		return
	}

	program, err := parser.ParseWithOptions(source, opts)
	if err != nil {
		h.failed(w, r, err)
		return
	}
	h.logDebug("parse: %d top-level nodes", len(program.Nodes))
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"nodes": encode.Program(program)})
}

func (h *handler) healthz(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "version": cli.Version})
}

func (h *handler) failed(w http.ResponseWriter, r *http.Request, err error) {
	category := errors.CategoryOf(err)
	if h.opts.Logger != nil {
		h.opts.Logger.Info("%s %s: %v", r.Method, r.URL.Path, err)
	}
	body := encode.ErrorBody(err, string(category))
	if suggestions := parser.Suggest(err); len(suggestions) > 0 {
		body["suggestion"] = suggestions[0].Message
	}
	h.writeJSON(w, http.StatusUnprocessableEntity, body)
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logDebug("write response: %v", err)
	}
}

func (h *handler) logDebug(format string, args ...interface{}) {
	if h.opts.Logger != nil {
		h.opts.Logger.Debug(format, args...)
	}
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sclang/sc/internal/errors"
	"github.com/sclang/sc/internal/parser"
)

func testEnv(stdin string) (*env, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	return &env{stdin: strings.NewReader(stdin), stdout: &stdout, stderr: &stderr}, &stdout, &stderr
}

func script(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseCommand(t *testing.T) {
	path := script(t, "ok.sc", "let x = 5\nwhile x >= 1 { x - 1 }")

	e, stdout, _ := testEnv("")
	code := run([]string{"parse", "-format", "text", path}, e)
	require.Equal(t, errors.ExitOK, code)
	assert.Equal(t, "let x = 5\nwhile x >= 1 { x - 1 }\n", stdout.String())
}

func TestParseCommandJSONFromStdin(t *testing.T) {
	e, stdout, _ := testEnv("let y = 2")
	code := run([]string{"parse", "-format", "json", "-"}, e)
	require.Equal(t, errors.ExitOK, code)

	var out struct {
		Nodes []map[string]interface{} `json:"nodes"`
	}
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &out))
	require.Len(t, out.Nodes, 1)
	assert.Equal(t, "y", out.Nodes[0]["target"])
}

func TestParseCommandErrors(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		stdin  string
		code   int
		stderr string
	}{
		{"syntax", []string{"parse", "-"}, "let = 1", errors.ExitDataErr, `expected Identifier, found Eq "="`},
		{"lexical", []string{"parse", "-"}, "let x = 1x", errors.ExitDataErr, "malformed integer literal"},
		{"hint", []string{"parse", "-"}, "whlie x == 1 { }", errors.ExitDataErr, "hint: did you mean 'while'?"},
		{"missing file", []string{"parse", "does/not/exist.sc"}, "", errors.ExitNoInput, "cannot read"},
		{"bad format", []string{"parse", "-format", "xml", "-"}, "", errors.ExitUsage, "unknown format"},
		{"bad flag", []string{"parse", "-nope"}, "", errors.ExitUsage, ""},
		{"unknown command", []string{"frobnicate"}, "", errors.ExitUsage, "unknown subcommand: frobnicate"},
		{"no command", nil, "", errors.ExitUsage, "COMMANDS:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _, stderr := testEnv(tt.stdin)
			assert.Equal(t, tt.code, run(tt.args, e))
			assert.Contains(t, stderr.String(), tt.stderr)
		})
	}
}

func TestParseCommandStructuredError(t *testing.T) {
	e, stdout, _ := testEnv("let = 1")
	code := run([]string{"parse", "-format", "json", "-"}, e)
	assert.Equal(t, errors.ExitDataErr, code)

	var out map[string]string
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &out))
	assert.Equal(t, "SYNTAX", out["category"])
}

func TestParseCommandPermissive(t *testing.T) {
	e, stdout, _ := testEnv("7 let a = 1")
	code := run([]string{"parse", "-permissive", "-format", "text", "-"}, e)
	require.Equal(t, errors.ExitOK, code)
	assert.Equal(t, "1\nlet a = 1\n", stdout.String())
}

func TestParseCommandConfig(t *testing.T) {
	cfg := script(t, "sc.toml", "format = \"text\"\nstrict = false\n")

	e, stdout, _ := testEnv("} let a = 1")
	code := run([]string{"parse", "-config", cfg, "-"}, e)
	require.Equal(t, errors.ExitOK, code)
	assert.Equal(t, "1\nlet a = 1\n", stdout.String())

	incompatible := script(t, "sc.toml", "requires = \">= 99.0.0\"\n")
	e, _, stderr := testEnv("let a = 1")
	assert.Equal(t, errors.ExitConfig, run([]string{"parse", "-config", incompatible, "-"}, e))
	assert.Contains(t, stderr.String(), "does not satisfy")
}

func TestTokensCommand(t *testing.T) {
	e, stdout, _ := testEnv("let x = 5")
	code := run([]string{"tokens", "-format", "text", "-"}, e)
	require.Equal(t, errors.ExitOK, code)

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "1:1"))
	assert.Contains(t, lines[4], "EndOfInput")
}

func TestCheckCommand(t *testing.T) {
	good := script(t, "good.sc", "let a = 1")
	bad := script(t, "bad.sc", "let a 1")
	missing := filepath.Join(t.TempDir(), "missing.sc")

	e, _, stderr := testEnv("")
	require.Equal(t, errors.ExitOK, run([]string{"check", "-jobs", "2", good, good}, e))
	assert.Empty(t, stderr.String())

	e, _, stderr = testEnv("")
	code := run([]string{"check", good, bad}, e)
	assert.Equal(t, errors.ExitDataErr, code)
	assert.Contains(t, stderr.String(), "1 of 2 files failed")
	assert.Contains(t, stderr.String(), "bad.sc")

	e, _, _ = testEnv("")
	assert.Equal(t, errors.ExitNoInput, run([]string{"check", bad, missing}, e), "worst error wins")

	e, _, _ = testEnv("")
	assert.Equal(t, errors.ExitUsage, run([]string{"check"}, e))
}

func TestCheckFilesKeepsOrder(t *testing.T) {
	paths := []string{
		script(t, "a.sc", "let a = 1"),
		script(t, "b.sc", "let b = 1 let c = 2"),
		script(t, "c.sc", "let"),
	}
	e, _, _ := testEnv("")
	results := checkFiles(context.Background(), e, paths, parser.DefaultOptions(), 1)

	require.Len(t, results, 3)
	assert.Equal(t, 1, results[0].nodes)
	assert.Equal(t, 2, results[1].nodes)
	assert.Error(t, results[2].err)
	for i, r := range results {
		assert.Equal(t, paths[i], r.path)
	}
}

func TestVersionAndHelp(t *testing.T) {
	e, stdout, _ := testEnv("")
	require.Equal(t, errors.ExitOK, run([]string{"version", "-json"}, e))
	assert.Contains(t, stdout.String(), `"tool": "sc"`)

	e, stdout, _ = testEnv("")
	require.Equal(t, errors.ExitOK, run([]string{"help", "check"}, e))
	assert.Contains(t, stdout.String(), "sc check [-jobs N] <files...>")

	e, _, _ = testEnv("")
	assert.Equal(t, errors.ExitOK, run([]string{"parse", "-h"}, e))
}

func TestServeRequiresCertificate(t *testing.T) {
	e, _, stderr := testEnv("")
	assert.Equal(t, errors.ExitUsage, run([]string{"serve", "-addr", "127.0.0.1:0"}, e))
	assert.Contains(t, stderr.String(), "-self-signed")
}

func TestREPLSession(t *testing.T) {
	var out, errOut bytes.Buffer
	s := &session{opts: parser.DefaultOptions(), out: &out, errOut: &errOut}

	assert.True(t, s.handle("let x = 1"))
	assert.Equal(t, "let x = 1\n", out.String())

	out.Reset()
	assert.True(t, s.handle(":tokens"))
	assert.True(t, s.showTokens)
	assert.True(t, s.handle("let y = 2"))
	assert.Contains(t, out.String(), "Identifier")
	assert.True(t, strings.HasSuffix(out.String(), "let y = 2\n"))

	assert.True(t, s.handle("let = 2"))
	assert.Contains(t, errOut.String(), "1:5: error[E0100]: expected Identifier")
	assert.Contains(t, errOut.String(), "1 | let = 2\n  |     ^\n")

	out.Reset()
	assert.True(t, s.handle(":permissive"))
	assert.Contains(t, out.String(), "permissive top level on")
	assert.True(t, s.handle(":what"))
	assert.Contains(t, out.String(), "unknown command :what")

	assert.True(t, s.handle("   "))
	assert.False(t, s.handle(":quit"))
}

func TestFmtCommand(t *testing.T) {
	path := script(t, "messy.sc", "let   a = 1 while a != 3 { a + 1 }")

	e, stdout, _ := testEnv("")
	require.Equal(t, errors.ExitOK, run([]string{"fmt", path}, e))
	assert.Equal(t, "let a = 1\nwhile a != 3 {\n    a + 1\n}\n", stdout.String())

	e, stdout, _ = testEnv("")
	require.Equal(t, errors.ExitOK, run([]string{"fmt", "-l", path}, e))
	assert.Equal(t, path+"\n", stdout.String())

	e, stdout, _ = testEnv("")
	require.Equal(t, errors.ExitOK, run([]string{"fmt", "-d", path}, e))
	assert.Contains(t, stdout.String(), "+while a != 3 {\n")

	e, _, _ = testEnv("")
	require.Equal(t, errors.ExitOK, run([]string{"fmt", "-w", path}, e))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "let a = 1\nwhile a != 3 {\n    a + 1\n}\n", string(data))

	e, stdout, _ = testEnv("")
	require.Equal(t, errors.ExitOK, run([]string{"fmt", "-l", path}, e))
	assert.Empty(t, stdout.String())

	e, _, _ = testEnv("x = 1")
	assert.Equal(t, errors.ExitDataErr, run([]string{"fmt", "-"}, e))

	e, _, _ = testEnv("")
	assert.Equal(t, errors.ExitUsage, run([]string{"fmt", "-w", "-"}, e))
}

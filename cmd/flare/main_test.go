package main

import (
	"bytes"
	"context"
	"io"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lemonberrylabs/flare/pkg/expr"
	"github.com/lemonberrylabs/flare/pkg/runtime"
)

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&errOut)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func TestShellReportsOutcomes(t *testing.T) {
	var out bytes.Buffer
	sh := newShell(runtime.NewDefaultEnvironment(), &out, "> ", false)

	if err := sh.loop(context.Background(), strings.NewReader("let x = 5\n\ndisplay \"x is\" x\n= y 1\n+ x 1\n")); err != nil {
		t.Fatalf("loop: %v", err)
	}

	want := "> // SUCCESS => 0\n" +
		"> " +
		"> x is\n// SUCCESS => 5\n" +
		"> // ERROR => UndefinedVariable: undefined variable for assignment: y\n" +
		"> // SUCCESS => 6\n" +
		"> \n"
	got := out.String()
	if got != want {
		t.Fatalf("output = %q, want %q", got, want)
	}
	if strings.Contains(got, "\x1b[") {
		t.Error("colour escapes written with colour disabled")
	}
}

func TestShellStopsWhenCancelled(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	sh := newShell(runtime.NewDefaultEnvironment(), &out, "> ", false)
	if err := sh.loop(ctx, pr); err != nil {
		t.Fatalf("loop: %v", err)
	}
	if out.String() != "> \n" {
		t.Errorf("output = %q", out.String())
	}
}

func TestShellColour(t *testing.T) {
	var out bytes.Buffer
	sh := newShell(runtime.NewDefaultEnvironment(), &out, "", true)
	sh.evalLine("+ 1 2")
	if !strings.Contains(out.String(), "\x1b[32m") {
		t.Errorf("expected green escape, got %q", out.String())
	}
}

func TestRunLines(t *testing.T) {
	src := "let a = 2\n( - )\nlet b = * a 3\ndisplay b\n"

	var out, errOut bytes.Buffer
	failed, err := runLines(strings.NewReader(src), runtime.NewSessionWithEnv(runtime.NewDefaultEnvironment(), &out), &errOut, "prog.fl", false)
	if err != nil {
		t.Fatalf("runLines: %v", err)
	}
	if failed != 1 || out.Len() != 0 {
		t.Errorf("failed=%d out=%q", failed, out.String())
	}
	if !strings.HasPrefix(errOut.String(), "prog.fl:2: ") {
		t.Errorf("error report = %q", errOut.String())
	}

	out.Reset()
	errOut.Reset()
	failed, _ = runLines(strings.NewReader(src), runtime.NewSessionWithEnv(runtime.NewDefaultEnvironment(), &out), &errOut, "prog.fl", true)
	if failed != 1 || out.String() != "6\n" {
		t.Errorf("keep-going: failed=%d out=%q", failed, out.String())
	}
}

func TestPrintTokensAndAST(t *testing.T) {
	var out bytes.Buffer
	printTokens(&out, expr.Tokenize(`display "a b" x`))
	if out.String() != "bare\tdisplay\nquoted\ta b\nbare\tx\n" {
		t.Errorf("tokens output = %q", out.String())
	}

	out.Reset()
	if err := printAST(strings.NewReader("let x = + 1 2\nif x 1 0\n"), &out, "in"); err != nil {
		t.Fatalf("printAST: %v", err)
	}
	want := "1\tlet\tlet x = 1 + 2\n2\tif\tif x { 1 } else { 0 }\n"
	if out.String() != want {
		t.Errorf("ast output = %q", out.String())
	}

	err := printAST(strings.NewReader("1\nlet\n"), &out, "in")
	if err == nil || !strings.HasPrefix(err.Error(), "in:2: ") {
		t.Errorf("expected positioned syntax error, got %v", err)
	}
}

func TestRunCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prog.fl")
	if err := os.WriteFile(path, []byte("let n = 10\ndisplay ( / n 4 )\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, _, err := execute(t, "", "run", path)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out != "2.5\n" {
		t.Errorf("output = %q", out)
	}

	out, _, err = execute(t, "display 1\n/ 1 0\n", "run", "-")
	if !errors.Is(err, errReported) {
		t.Fatalf("expected reported failure, got %v", err)
	}
	if out != "1\n" {
		t.Errorf("output = %q", out)
	}
}

func TestREPLPersistsState(t *testing.T) {
	state := filepath.Join(t.TempDir(), "state.db")

	if _, _, err := execute(t, "let x = 4\nlet s = \"kept\"\n", "--no-color", "--state", state); err != nil {
		t.Fatalf("first session: %v", err)
	}

	out, _, err := execute(t, "x\ns\n", "repl", "--no-color", "--state", state)
	if err != nil {
		t.Fatalf("second session: %v", err)
	}
	if !strings.Contains(out, "// SUCCESS => 4") || !strings.Contains(out, "// SUCCESS => kept") {
		t.Errorf("state not restored:\n%s", out)
	}
}

func TestConfigPreload(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "flare.yaml")
	data := "prompt: \"$ \"\npreload:\n  - let ten = 10\n"
	if err := os.WriteFile(cfgPath, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	out, _, err := execute(t, "+ ten 1\n", "--config", cfgPath, "--no-color")
	if err != nil {
		t.Fatalf("repl: %v", err)
	}
	if !strings.HasPrefix(out, "$ // SUCCESS => 11\n") {
		t.Errorf("output = %q", out)
	}
}

func TestREPLSavesStateOnInterrupt(t *testing.T) {
	dir := t.TempDir()
	state := filepath.Join(dir, "state.db")
	cfgPath := filepath.Join(dir, "flare.yaml")
	if err := os.WriteFile(cfgPath, []byte("preload:\n  - let kept = 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	// Standard input never reaches EOF; only the cancelled context ends the shell.
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	root := newRootCmd()
	root.SetArgs([]string{"--config", cfgPath, "--state", state, "--no-color"})
	root.SetIn(pr)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	if err := root.ExecuteContext(ctx); err != nil {
		t.Fatalf("interrupted session: %v", err)
	}

	out, _, err := execute(t, "kept\n", "--state", state, "--no-color")
	if err != nil {
		t.Fatalf("second session: %v", err)
	}
	if !strings.Contains(out, "// SUCCESS => 3") {
		t.Errorf("state not saved on interrupt:\n%s", out)
	}
}

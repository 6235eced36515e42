package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lemonberrylabs/flare/pkg/config"
	"github.com/lemonberrylabs/flare/pkg/runtime"
	"github.com/lemonberrylabs/flare/pkg/store"
)

func newREPLCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive shell (default)",
		Args:  cobra.NoArgs,
		RunE:  runREPL,
	}
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <file|->",
		Short: "Evaluate a file line by line",
		Args:  cobra.ExactArgs(1),
		RunE:  runScript,
	}
	cmd.Flags().Bool("keep-going", false, "Continue after a line fails")
	return cmd
}

// shell evaluates lines in one session and reports each outcome.
type shell struct {
	out     io.Writer
	prompt  string
	session *runtime.Session
	ok      *color.Color
	fail    *color.Color
}

func newShell(env *runtime.Environment, out io.Writer, prompt string, useColor bool) *shell {
	sh := &shell{
		out:     out,
		prompt:  prompt,
		session: runtime.NewSessionWithEnv(env, out),
		ok:      color.New(color.FgGreen),
		fail:    color.New(color.FgRed),
	}
	if useColor {
		sh.ok.EnableColor()
		sh.fail.EnableColor()
	} else {
		sh.ok.DisableColor()
		sh.fail.DisableColor()
	}
	return sh
}

// evalLine runs one line and prints its SUCCESS or ERROR report. Blank lines
// print nothing.
func (sh *shell) evalLine(line string) error {
	v, err := sh.session.Run(line)
	if err != nil {
		sh.fail.Fprintf(sh.out, "// ERROR => %v\n", err)
		return err
	}
	if v != nil {
		sh.ok.Fprintf(sh.out, "// SUCCESS => %s\n", v)
	}
	return nil
}

// loop reads lines from in until EOF or until ctx is done. Evaluation
// errors are reported and the loop continues. Lines are read on a separate
// goroutine so that a cancelled ctx ends the loop while a read is blocked;
// evaluation stays on the caller's goroutine.
func (sh *shell) loop(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- scanner.Err()
	}()

	for {
		fmt.Fprint(sh.out, sh.prompt)
		select {
		case line := <-lines:
			sh.evalLine(line)
		case err := <-errc:
			fmt.Fprintln(sh.out)
			return err
		case <-ctx.Done():
			fmt.Fprintln(sh.out)
			return nil
		}
	}
}

// prepareEnv builds the starting environment: defaults, preload lines and
// any bindings saved in the state file. The returned function saves the
// environment back and closes the state file.
func prepareEnv(cfg *config.Config) (*runtime.Environment, func(), error) {
	env := runtime.NewDefaultEnvironment()

	preload := runtime.NewSessionWithEnv(env, io.Discard)
	for _, line := range cfg.Preload {
		if _, err := preload.Run(line); err != nil {
			return nil, nil, fmt.Errorf("preload %q: %w", line, err)
		}
	}

	if cfg.StatePath == "" {
		return env, func() {}, nil
	}

	snaps, err := store.OpenSnapshots(cfg.StatePath)
	if err != nil {
		return nil, nil, err
	}
	n, err := snaps.Load(store.DefaultSnapshot, env)
	if err != nil {
		snaps.Close()
		return nil, nil, err
	}
	if n > 0 {
		log.Printf("Restored %d bindings from %s", n, cfg.StatePath)
	}

	save := func() {
		if n, err := snaps.Save(store.DefaultSnapshot, env); err != nil {
			log.Printf("Warning: failed to save bindings: %v", err)
		} else {
			log.Printf("Saved %d bindings to %s", n, cfg.StatePath)
		}
		if err := snaps.Close(); err != nil {
			log.Printf("Warning: failed to close state: %v", err)
		}
	}
	return env, save, nil
}

func runREPL(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	env, done, err := prepareEnv(cfg)
	if err != nil {
		return err
	}
	defer done()

	// Interrupt ends the shell like EOF does, so state is still saved.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sh := newShell(env, cmd.OutOrStdout(), cfg.Prompt, cfg.Color)
	return sh.loop(ctx, cmd.InOrStdin())
}

func runScript(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	keepGoing, _ := cmd.Flags().GetBool("keep-going")

	in, closeIn, err := openInput(cmd, args[0])
	if err != nil {
		return err
	}
	defer closeIn()

	env, done, err := prepareEnv(cfg)
	if err != nil {
		return err
	}
	defer done()

	failed, err := runLines(in, runtime.NewSessionWithEnv(env, cmd.OutOrStdout()), cmd.ErrOrStderr(), args[0], keepGoing)
	if err != nil {
		return err
	}
	if failed > 0 {
		return errReported
	}
	return nil
}

// runLines evaluates every line of in, reporting failures to errOut as
// name:line: error. It stops at the first failure unless keepGoing is set
// and returns the number of failed lines.
func runLines(in io.Reader, sess *runtime.Session, errOut io.Writer, name string, keepGoing bool) (int, error) {
	scanner := bufio.NewScanner(in)
	failed := 0
	for n := 1; scanner.Scan(); n++ {
		if _, err := sess.Run(scanner.Text()); err != nil {
			fmt.Fprintf(errOut, "%s:%d: %v\n", name, n, err)
			failed++
			if !keepGoing {
				break
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return failed, fmt.Errorf("read %s: %w", name, err)
	}
	return failed, nil
}

// openInput opens path for reading; "-" means standard input.
func openInput(cmd *cobra.Command, path string) (io.Reader, func(), error) {
	if path == "-" {
		return cmd.InOrStdin(), func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open input: %w", err)
	}
	return f, func() { f.Close() }, nil
}

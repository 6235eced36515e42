package runtime

import (
	"errors"
	"io"
	"strings"

	"github.com/tevino/abool/v2"

	"github.com/lemonberrylabs/flare/pkg/expr"
	"github.com/lemonberrylabs/flare/pkg/types"
)

// ErrSessionBusy is returned when Run or Eval is called on a session that is
// still evaluating an earlier input. Session is not safe for concurrent use;
// callers serialize access (the session store holds a per-session lock), so
// this guard only turns a missed lock into an error instead of a data race
// on the environment.
var ErrSessionBusy = errors.New("session is busy evaluating another input")

// Session evaluates lines of source against one environment. The
// environment's bindings are the only state carried between lines.
type Session struct {
	env     *Environment
	eval    *expr.Evaluator
	running *abool.AtomicBool
}

// NewSession creates a session with a fresh default environment. display
// output is written to out.
func NewSession(out io.Writer) *Session {
	return NewSessionWithEnv(NewDefaultEnvironment(), out)
}

// NewSessionWithEnv creates a session over an existing environment.
func NewSessionWithEnv(env *Environment, out io.Writer) *Session {
	return &Session{
		env:     env,
		eval:    expr.NewEvaluator(out),
		running: abool.New(),
	}
}

// Env returns the session environment.
func (s *Session) Env() *Environment {
	return s.env
}

// Run tokenizes and parses line, then evaluates each top-level expression
// in order and returns the value of the last one. The first error stops the
// line; bindings and output produced before it remain. A blank line returns
// a nil value and no error.
func (s *Session) Run(line string) (types.Value, error) {
	if !s.running.SetToIf(false, true) {
		return nil, ErrSessionBusy
	}
	defer s.running.UnSet()

	if strings.TrimSpace(line) == "" {
		return nil, nil
	}

	exprs, err := expr.ParseString(line)
	if err != nil {
		return nil, err
	}

	var last types.Value
	for _, e := range exprs {
		last, err = s.eval.Eval(e, s.env)
		if err != nil {
			return nil, err
		}
	}
	return last, nil
}

// Eval evaluates a single parsed expression in the session environment.
func (s *Session) Eval(e types.Expr) (types.Value, error) {
	if !s.running.SetToIf(false, true) {
		return nil, ErrSessionBusy
	}
	defer s.running.UnSet()

	return s.eval.Eval(e, s.env)
}

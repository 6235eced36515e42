// Package store provides in-memory storage for evaluation sessions and a
// SQLite store for saved bindings.
package store

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/lemonberrylabs/flare/pkg/runtime"
	"github.com/lemonberrylabs/flare/pkg/types"
)

// MaxHistory is the number of evaluation records kept per session.
const MaxHistory = 100

// Session is a stored evaluation session. Name and CreateTime never change
// after creation; everything else is read through methods.
type Session struct {
	Name       string
	CreateTime time.Time

	mu         sync.Mutex
	out        bytes.Buffer
	runner     *runtime.Session
	history    []*EvalRecord
	updateTime time.Time
	evalCount  int64
	errorCount int64
}

// SessionInfo is a point-in-time summary of a session.
type SessionInfo struct {
	Name         string    `json:"name"`
	CreateTime   time.Time `json:"createTime"`
	UpdateTime   time.Time `json:"updateTime"`
	EvalCount    int64     `json:"evalCount"`
	ErrorCount   int64     `json:"errorCount"`
	BindingCount int       `json:"bindingCount"`
}

// EvalRecord is the outcome of evaluating one input in a session.
type EvalRecord struct {
	Source string     `json:"source"`
	Result string     `json:"result,omitempty"`
	Output string     `json:"output,omitempty"`
	Error  *EvalError `json:"error,omitempty"`
	Time   time.Time  `json:"time"`
}

// EvalError describes a failed evaluation.
type EvalError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Binding is a rendered variable binding.
type Binding struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Store is a thread-safe in-memory storage for sessions.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	preload  []string

	// Counter for generating unique IDs
	counter int64
}

// New creates a new empty store. Preload lines are run in every session the
// store creates.
func New(preload ...string) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		preload:  preload,
	}
}

// CreateSession creates a session with a fresh default environment.
func (s *Store) CreateSession() (*Session, error) {
	return s.CreateSessionWithEnv(runtime.NewDefaultEnvironment())
}

// CreateSessionWithEnv creates a session over env, running the preload lines
// first.
func (s *Store) CreateSessionWithEnv(env *runtime.Environment) (*Session, error) {
	sess := &Session{}
	sess.runner = runtime.NewSessionWithEnv(env, &sess.out)

	for _, line := range s.preload {
		if _, err := sess.runner.Run(line); err != nil {
			return nil, fmt.Errorf("preload %q: %w", line, err)
		}
	}
	sess.out.Reset()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.counter++
	now := time.Now()
	sess.Name = fmt.Sprintf("s-%06d", s.counter)
	sess.CreateTime = now
	sess.updateTime = now
	s.sessions[sess.Name] = sess
	return sess, nil
}

// GetSession retrieves a session by name.
func (s *Store) GetSession(name string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[name]
	if !ok {
		return nil, fmt.Errorf("session '%s' not found", name)
	}
	return sess, nil
}

// ListSessions returns all sessions ordered by name.
func (s *Store) ListSessions() []*Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		result = append(result, sess)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}

// DeleteSession removes a session.
func (s *Store) DeleteSession(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[name]; !ok {
		return fmt.Errorf("session '%s' not found", name)
	}
	delete(s.sessions, name)
	return nil
}

// Eval runs source in the named session. Evaluation errors are reported in
// the record, not as the returned error, which is reserved for a missing
// session.
func (s *Store) Eval(name, source string) (*EvalRecord, error) {
	sess, err := s.GetSession(name)
	if err != nil {
		return nil, err
	}
	return sess.Eval(source), nil
}

// Eval runs source in the session and records the outcome. Calls on the same
// session are serialized.
func (sess *Session) Eval(source string) *EvalRecord {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.out.Reset()
	v, err := sess.runner.Run(source)

	rec := &EvalRecord{
		Source: source,
		Output: sess.out.String(),
		Time:   time.Now(),
	}
	if err != nil {
		rec.Error = toEvalError(err)
		sess.errorCount++
	} else if v != nil {
		rec.Result = v.String()
	}

	sess.evalCount++
	sess.updateTime = rec.Time
	sess.history = append(sess.history, rec)
	if len(sess.history) > MaxHistory {
		sess.history = sess.history[len(sess.history)-MaxHistory:]
	}
	return rec
}

// Info returns a summary of the session.
func (sess *Session) Info() SessionInfo {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	return SessionInfo{
		Name:         sess.Name,
		CreateTime:   sess.CreateTime,
		UpdateTime:   sess.updateTime,
		EvalCount:    sess.evalCount,
		ErrorCount:   sess.errorCount,
		BindingCount: sess.runner.Env().Len(),
	}
}

// History returns the most recent evaluation records, oldest first.
func (sess *Session) History() []*EvalRecord {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	out := make([]*EvalRecord, len(sess.history))
	copy(out, sess.history)
	return out
}

// Bindings returns the session's variable bindings in name order.
func (sess *Session) Bindings() []Binding {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	env := sess.runner.Env()
	names := env.Names()
	out := make([]Binding, 0, len(names))
	for _, name := range names {
		v, _ := env.Lookup(name)
		out = append(out, Binding{Name: name, Type: v.Type().String(), Value: v.String()})
	}
	return out
}

// Env returns a copy of the session environment.
func (sess *Session) Env() *runtime.Environment {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.runner.Env().Clone()
}

func toEvalError(err error) *EvalError {
	var fe *types.Error
	if errors.As(err, &fe) {
		return &EvalError{Kind: string(fe.Kind), Message: fe.Message}
	}
	return &EvalError{Kind: "InternalError", Message: err.Error()}
}

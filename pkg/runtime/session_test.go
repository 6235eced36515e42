package runtime

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/lemonberrylabs/flare/pkg/types"
)

func TestDefaultEnvironment(t *testing.T) {
	env := NewDefaultEnvironment()
	for _, name := range []string{"+", "-", "*", "/"} {
		v, ok := env.Lookup(name)
		if !ok {
			t.Fatalf("%s not bound", name)
		}
		if v.Type() != types.TypeFunc {
			t.Errorf("%s bound to %s", name, v.Type())
		}
	}
	if env.Has("x") {
		t.Error("fresh environment should not bind x")
	}
}

func TestEnvironmentDefineAndUpdate(t *testing.T) {
	env := NewEnvironment()
	if env.Update("x", types.NewNumber(1)) {
		t.Fatal("Update of an unbound name must fail")
	}
	if env.Has("x") {
		t.Fatal("failed Update must not bind")
	}

	env.Define("x", types.NewNumber(1))
	env.Define("x", types.NewNumber(2))
	if env.Len() != 1 {
		t.Fatalf("expected one binding, got %d", env.Len())
	}
	if !env.Update("x", types.NewString("s")) {
		t.Fatal("Update of a bound name must succeed")
	}
	v, _ := env.Lookup("x")
	if !types.Equal(v, types.NewString("s")) {
		t.Errorf("x = %v", v)
	}

	env.Define("a", types.Zero)
	if got := env.Names(); !reflect.DeepEqual(got, []string{"a", "x"}) {
		t.Errorf("Names() = %v", got)
	}

	c := env.Clone()
	c.Define("b", types.Zero)
	if env.Has("b") {
		t.Error("clone must not share its table")
	}
	if env.Equal(c) {
		t.Error("environments differ after Define on the clone")
	}
}

func TestSessionScenarios(t *testing.T) {
	type step struct {
		input string
		want  types.Value
		kind  types.ErrorKind
	}

	tests := []struct {
		name  string
		steps []step
	}{
		{"builtin sum", []step{{input: "( + 1 2 )", want: types.NewNumber(3)}}},
		{"op sum", []step{{input: "+ 1 2", want: types.NewNumber(3)}}},
		{"builtin sub", []step{{input: "( - 10 3 2 )", want: types.NewNumber(5)}}},
		{"builtin negate", []step{{input: "( - 7 )", want: types.NewNumber(7)}}},
		{"builtin sub no args", []step{{input: "( - )", kind: types.KindArityMismatch}}},
		{"let then lookup", []step{
			{input: "let x = 5", want: types.Zero},
			{input: "x", want: types.NewNumber(5)},
			{input: "y", kind: types.KindUnboundSymbol},
		}},
		{"assign", []step{
			{input: "= z 1", kind: types.KindUndefinedVariable},
			{input: "let z = 0", want: types.Zero},
			{input: "= z 9", want: types.NewNumber(9)},
			{input: "z", want: types.NewNumber(9)},
		}},
		{"division", []step{
			{input: "/ 4 0", kind: types.KindDivisionByZero},
			{input: "/ 4 2", want: types.NewNumber(2)},
		}},
		{"if", []step{
			{input: "if 0 1 2", want: types.NewNumber(2)},
			{input: "if 1 1 2", want: types.NewNumber(1)},
			{input: `if "s" 1 2`, want: types.NewNumber(2)},
		}},
		{"builtins can be rebound", []step{
			{input: "let + = 1", want: types.Zero},
			{input: "( + 1 )", kind: types.KindNotCallable},
			{input: "+ 1 2", want: types.NewNumber(3)},
		}},
		{"several expressions per line", []step{
			{input: "let a = 2 let b = * a 3 display b", want: types.Zero},
			{input: "b", want: types.NewNumber(6)},
		}},
		{"bare sub takes two operands", []step{
			{input: "- 10 3", want: types.NewNumber(7)},
			{input: "- 10 3 2", kind: types.KindSyntax},
			{input: "- 7", kind: types.KindSyntax},
		}},
		{"syntax error", []step{{input: "let x 5", kind: types.KindSyntax}}},
		{"blank line", []step{{input: "   ", want: nil}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession(nil)
			for _, st := range tt.steps {
				got, err := s.Run(st.input)
				if st.kind != "" {
					if !types.HasKind(err, st.kind) {
						t.Fatalf("%q: expected %s, got %v (value %v)", st.input, st.kind, err, got)
					}
					continue
				}
				if err != nil {
					t.Fatalf("%q: %v", st.input, err)
				}
				if !types.Equal(got, st.want) {
					t.Fatalf("%q: got %v, want %v", st.input, got, st.want)
				}
			}
		})
	}
}

func TestSessionExtraOperandHasNoEffect(t *testing.T) {
	var out bytes.Buffer
	s := NewSession(&out)

	if _, err := s.Run(`display "start" let n = - 10 3 2`); !types.HasKind(err, types.KindSyntax) {
		t.Fatalf("expected SyntaxError, got %v", err)
	}
	if s.Env().Has("n") || out.Len() != 0 {
		t.Errorf("rejected line must not run: n bound=%v, output=%q", s.Env().Has("n"), out.String())
	}

	v, err := s.Run("( - 10 3 2 )")
	if err != nil || !types.Equal(v, types.NewNumber(5)) {
		t.Errorf("call form = %v, %v", v, err)
	}
}

func TestSessionErrorKeepsEarlierEffects(t *testing.T) {
	var out bytes.Buffer
	s := NewSession(&out)

	_, err := s.Run(`let a = 1 display "before" = missing 2 let b = 2`)
	if !types.HasKind(err, types.KindUndefinedVariable) {
		t.Fatalf("expected UndefinedVariable, got %v", err)
	}
	if !s.Env().Has("a") {
		t.Error("binding made before the failure should remain")
	}
	if s.Env().Has("b") {
		t.Error("binding after the failure should not happen")
	}
	if out.String() != "before\n" {
		t.Errorf("output = %q", out.String())
	}
}

func TestSessionIsDeterministic(t *testing.T) {
	lines := []string{
		"let x = 5",
		"let y = ( + x 1 2 )",
		"= x * y 2",
		`display "x is"`,
		"display x",
		"if - x 16 x y",
		"( - x y 1 )",
	}

	runAll := func() (*Environment, []string, string) {
		var out bytes.Buffer
		s := NewSession(&out)
		var results []string
		for _, line := range lines {
			v, err := s.Run(line)
			if err != nil {
				results = append(results, "error: "+err.Error())
				continue
			}
			results = append(results, v.String())
		}
		return s.Env(), results, out.String()
	}

	env1, res1, out1 := runAll()
	env2, res2, out2 := runAll()

	if !env1.Equal(env2) {
		t.Error("final environments differ")
	}
	if !reflect.DeepEqual(res1, res2) {
		t.Errorf("results differ: %v vs %v", res1, res2)
	}
	if out1 != out2 {
		t.Errorf("output differs: %q vs %q", out1, out2)
	}

	want := []string{"0", "0", "16", "0", "0", "8", "7"}
	if !reflect.DeepEqual(res1, want) {
		t.Errorf("results = %v, want %v", res1, want)
	}
	if out1 != "x is\n16\n" {
		t.Errorf("output = %q", out1)
	}
}

func TestSessionLetTwiceKeepsOneBinding(t *testing.T) {
	s := NewSession(nil)
	before := s.Env().Len()
	for i := 0; i < 2; i++ {
		if _, err := s.Run("let x = 5"); err != nil {
			t.Fatal(err)
		}
	}
	if s.Env().Len() != before+1 {
		t.Errorf("expected %d bindings, got %d", before+1, s.Env().Len())
	}
	v, _ := s.Env().Lookup("x")
	if !types.Equal(v, types.NewNumber(5)) {
		t.Errorf("x = %v", v)
	}
}

func TestSessionRejectsReentrantRun(t *testing.T) {
	s := NewSession(nil)
	s.running.Set()
	if _, err := s.Run("1"); err != ErrSessionBusy {
		t.Fatalf("expected ErrSessionBusy, got %v", err)
	}
	if _, err := s.Eval(types.NewNumber(1)); err != ErrSessionBusy {
		t.Fatalf("expected ErrSessionBusy from Eval, got %v", err)
	}
	s.running.UnSet()
	if _, err := s.Run("1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

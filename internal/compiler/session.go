package compiler

import (
	"bytes"
	"context"
	"errors"
	"strings"

	"pywat/internal/diag"
	"pywat/internal/evaluator"
	"pywat/internal/object"
)

var errMixedInput = errors.New("enter definitions and statements separately")

// Session compiles input incrementally for an interactive prompt.
// Definitions accumulate ahead of the statements, and every statement
// entered so far is replayed on each run; only output the new input
// produced is returned.
type Session struct {
	host    evaluator.Host
	defs    []string
	stmts   []string
	printed int
}

// Reply is the outcome of one input.
type Reply struct {
	Output  string
	Value   object.Object // nil when the input is not an expression
	Defined bool          // the input only added definitions
}

// NewSession starts an empty session. host.Stdout is ignored.
func NewSession(host evaluator.Host) *Session {
	return &Session{host: host}
}

// Reset forgets all definitions and statements.
func (s *Session) Reset() {
	s.defs = nil
	s.stmts = nil
	s.printed = 0
}

// Source is the program the session has accumulated.
func (s *Session) Source() string {
	return strings.Join(s.defs, "") + strings.Join(s.stmts, "")
}

// Eval compiles input in the context of the session and runs it unless it
// only defines things.
func (s *Session) Eval(ctx context.Context, input string) (Reply, error) {
	if strings.TrimSpace(input) == "" {
		return Reply{}, nil
	}
	if !strings.HasSuffix(input, "\n") {
		input += "\n"
	}

	alone, err := Parse(input)
	if err != nil {
		return Reply{}, err
	}
	if len(alone.Statements) == 0 {
		defs := append(append([]string{}, s.defs...), input)
		if _, err := Check(strings.Join(defs, "") + strings.Join(s.stmts, "")); err != nil {
			return Reply{}, err
		}
		s.defs = defs
		return Reply{Defined: true}, nil
	}
	if len(alone.VarDefs)+len(alone.FunDefs)+len(alone.ClassDefs) > 0 {
		return Reply{}, &Error{Stage: StageParse, Diagnostic: diag.CodeError{Message: errMixedInput.Error()}, Err: errMixedInput}
	}

	stmts := append(append([]string{}, s.stmts...), input)
	res, err := Compile(strings.Join(s.defs, "") + strings.Join(stmts, ""))
	if err != nil {
		return Reply{}, err
	}
	var out bytes.Buffer
	host := s.host
	host.Stdout = &out
	run, err := evaluator.Run(ctx, res.Module, host)
	reply := Reply{Output: fresh(out.String(), s.printed)}
	if err != nil {
		return reply, err
	}
	s.stmts = stmts
	s.printed = out.Len()
	if run.HasValue {
		reply.Value = object.FromRaw(run.Value, res.Program.Type)
	}
	return reply, nil
}

// fresh drops the output earlier inputs already showed.
func fresh(out string, printed int) string {
	if printed > len(out) {
		return ""
	}
	return out[printed:]
}

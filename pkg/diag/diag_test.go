package diag

import (
	"errors"
	"strings"
	"testing"
)

func TestErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "Plain",
			err:  New(ErrCodeSyntax, Pos{Line: 3, Column: 7}, "unexpected token"),
			want: "SYNTAX_ERROR at 3:7: unexpected token",
		},
		{
			name: "NoPosition",
			err:  New(ErrCodeInternal, Pos{}, "boom"),
			want: "INTERNAL_ERROR: boom",
		},
		{
			name: "Expectation",
			err: New(ErrCodeStructural, Pos{Line: 1, Column: 2}, "bracket has no matching close").
				Expectation("newline", "]", ")"),
			want: "STRUCTURAL_ERROR at 1:2: bracket has no matching close (expected ], ), found newline)",
		},
		{
			name: "Wrapped",
			err:  Wrap(ErrCodeInternal, errors.New("disk gone"), "cannot read source"),
			want: "INTERNAL_ERROR: cannot read source: disk gone",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIs(t *testing.T) {
	err := New(ErrCodeReference, Pos{Line: 4, Column: 1}, "unknown node")

	if !Is(err, ErrCodeReference) {
		t.Error("Is should match the carried code")
	}
	if Is(err, ErrCodeSyntax) {
		t.Error("Is should reject a different code")
	}
	if Is(errors.New("plain"), ErrCodeSyntax) {
		t.Error("Is should reject a non-diagnostic error")
	}
	if Is(nil, ErrCodeSyntax) {
		t.Error("Is should reject nil")
	}
}

func TestIsUnwrapsChain(t *testing.T) {
	inner := New(ErrCodeLex, Pos{Line: 2, Column: 5}, "bad character")
	outer := Wrap(ErrCodeInternal, inner, "tokenize failed")

	// errors.As stops at the first *Error in the chain.
	if !Is(outer, ErrCodeInternal) {
		t.Error("outer code should win")
	}
	if !errors.Is(errors.Unwrap(outer), inner) {
		t.Error("Unwrap should expose the cause")
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(New(ErrCodeEmptyInput, Pos{}, "empty")); got != ErrCodeEmptyInput {
		t.Errorf("GetCode = %q", got)
	}
	if got := GetCode(errors.New("plain")); got != "" {
		t.Errorf("GetCode on plain error = %q, want empty", got)
	}
}

func TestUserMessage(t *testing.T) {
	err := New(ErrCodeUnknownDiagram, Pos{}, "no grammar matches %q", "pie")
	if got := UserMessage(err); got != `no grammar matches "pie"` {
		t.Errorf("UserMessage = %q", got)
	}
	if got := UserMessage(errors.New("plain")); got != "plain" {
		t.Errorf("UserMessage on plain error = %q", got)
	}
}

func TestWarningString(t *testing.T) {
	w := Warningf(WarnCodeUnknownLine, Pos{Line: 9, Column: 1}, "skipped line")
	if got := w.String(); got != "UNKNOWN_LINE at 9:1: skipped line" {
		t.Errorf("String = %q", got)
	}

	w = Warningf(WarnCodeReference, Pos{}, "unknown node")
	if !strings.HasPrefix(w.String(), "UNRESOLVED_REFERENCE: ") {
		t.Errorf("String = %q, want no position segment", w.String())
	}
}

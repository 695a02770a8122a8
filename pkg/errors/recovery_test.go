package errors

import (
	"strings"
	"testing"
)

func TestRecover(t *testing.T) {
	panicky := func() (err error) {
		defer Recover(&err, "chain.run")
		panic("leapfrog blew up")
	}

	err := panicky()
	if err == nil {
		t.Fatal("expected error from recovered panic")
	}

	var panicErr *PanicError
	if !As(err, &panicErr) {
		t.Fatalf("expected *PanicError, got %T", err)
	}
	if panicErr.Operation != "chain.run" {
		t.Errorf("Operation = %q, want chain.run", panicErr.Operation)
	}
	if !strings.Contains(panicErr.StackTrace, "recovery_test.go") {
		t.Error("stack trace should reference the panicking file")
	}
}

func TestRecoverNoPanic(t *testing.T) {
	clean := func() (err error) {
		defer Recover(&err, "chain.run")
		return nil
	}
	if err := clean(); err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
}

func TestSafeExecute(t *testing.T) {
	err := SafeExecute("warmup", func() error {
		panic("bad mass matrix")
	})
	if err == nil {
		t.Fatal("expected error from panicking function")
	}
	if !strings.Contains(err.Error(), "warmup") {
		t.Errorf("error should name the operation: %v", err)
	}

	if err := SafeExecute("warmup", func() error { return nil }); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}

package glsl

import (
	"errors"
	"testing"
)

func TestHooksRunInvokesInOrder(t *testing.T) {
	h := NewHooks()
	var order []int
	h.Add(func(ClockState) bool { order = append(order, 1); return true })
	h.Add(func(ClockState) bool { order = append(order, 2); return true })
	h.Add(func(ClockState) bool { order = append(order, 3); return true })

	if err := h.Run(ClockState{}); err != nil {
		t.Fatal(err)
	}
	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Fatalf("unexpected call order: %v", order)
	}
}

func TestHooksRemoveViaReturnFalse(t *testing.T) {
	h := NewHooks()
	var calls int
	h.Add(func(ClockState) bool { calls++; return false })

	if err := h.Run(ClockState{}); err != nil {
		t.Fatal(err)
	}
	if err := h.Run(ClockState{}); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Fatalf("expected the hook to run exactly once before being dropped, got %v", calls)
	}
}

func TestHooksRemoveFunc(t *testing.T) {
	h := NewHooks()
	var calls int
	remove := h.Add(func(ClockState) bool { calls++; return true })
	remove()

	if err := h.Run(ClockState{}); err != nil {
		t.Fatal(err)
	}
	if calls != 0 {
		t.Fatalf("expected a removed hook never to run, got %v calls", calls)
	}
}

func TestHooksRunStopsOnPanicAndWrapsError(t *testing.T) {
	h := NewHooks()
	var ranSecond bool
	h.Add(func(ClockState) bool { panic(errors.New("boom")) })
	h.Add(func(ClockState) bool { ranSecond = true; return true })

	err := h.Run(ClockState{})
	if err == nil {
		t.Fatalf("expected Run to return an error after a panicking hook")
	}
	hookErr, ok := err.(HookError)
	if !ok {
		t.Fatalf("expected a HookError, got %T: %v", err, err)
	}
	if hookErr.HookID != 1 {
		t.Fatalf("unexpected hook id: %v", hookErr.HookID)
	}
	if hookErr.Unwrap().Error() != "boom" {
		t.Fatalf("unexpected wrapped cause: %v", hookErr.Unwrap())
	}
	if ranSecond {
		t.Fatalf("expected the hook after the panicking one not to run")
	}
}

func TestHooksRunWrapsNonErrorPanicValue(t *testing.T) {
	h := NewHooks()
	h.Add(func(ClockState) bool { panic("plain string panic") })

	err := h.Run(ClockState{})
	if err == nil {
		t.Fatalf("expected an error")
	}
	if err.Error() != "hook 1: plain string panic" {
		t.Fatalf("unexpected error message: %v", err.Error())
	}
}

func TestHooksDestroy(t *testing.T) {
	h := NewHooks()
	h.Add(func(ClockState) bool { return true })
	h.Destroy()
	if err := h.Run(ClockState{}); err != nil {
		t.Fatal(err)
	}
	if len(h.entries) != 0 {
		t.Fatalf("expected Destroy to empty the hook list")
	}
}

package component

import (
	"errors"
	"fmt"
	"testing"
)

type greeter interface{ Greet() string }

type english struct{}

func (english) Greet() string { return "hello" }

func TestLookup(t *testing.T) {
	r := NewRegistry()
	r.Register("greeter", "", english{})

	v, err := r.Lookup("greeter", DefaultHint)
	if err != nil {
		t.Fatalf("Lookup() error: %v", err)
	}
	if _, ok := v.(english); !ok {
		t.Errorf("Lookup() = %T, want english", v)
	}

	g, err := Lookup[greeter](r, "greeter", "")
	if err != nil {
		t.Fatalf("Lookup[greeter]() error: %v", err)
	}
	if g.Greet() != "hello" {
		t.Errorf("Greet() = %q", g.Greet())
	}
}

func TestLookupMissing(t *testing.T) {
	r := NewRegistry()
	r.Register("greeter", "fr", english{})

	if _, err := r.Lookup("greeter", ""); !errors.Is(err, ErrNotRegistered) {
		t.Errorf("Lookup() error = %v, want ErrNotRegistered", err)
	}
}

func TestLookupWrongType(t *testing.T) {
	r := NewRegistry()
	r.Register("greeter", "", 42)

	_, err := Lookup[greeter](r, "greeter", "")
	if err == nil {
		t.Fatal("expected type mismatch error")
	}
	if errors.Is(err, ErrNotRegistered) {
		t.Errorf("type mismatch should not report ErrNotRegistered: %v", err)
	}
	if got := fmt.Sprint(err); got == "" {
		t.Error("empty error message")
	}
}

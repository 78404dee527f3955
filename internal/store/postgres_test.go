package store

import (
	"reflect"
	"testing"
)

func TestPQStringArray(t *testing.T) {
	if v := pqStringArray(nil); v != nil {
		t.Fatalf("nil slice -> nil expected")
	}
	if v := pqStringArray([]string{}); v != nil {
		t.Fatalf("empty slice -> nil expected")
	}
	if v := pqStringArray([]string{"a", "b"}); v != `{"a","b"}` {
		t.Fatalf("got %v", v)
	}
}

func TestParsePGTextArray(t *testing.T) {
	if got := parsePGTextArray(`{"plan.completed","*"}`); !reflect.DeepEqual(got, []string{"plan.completed", "*"}) {
		t.Fatalf("got %v", got)
	}
	if got := parsePGTextArray(`{}`); got != nil {
		t.Fatalf("empty literal: got %v", got)
	}
}

func TestNullIfEmpty(t *testing.T) {
	if v := nullIfEmpty(""); v != nil {
		t.Fatalf("empty -> nil expected")
	}
	if v := nullIfEmpty("x"); v != "x" {
		t.Fatalf("got %v", v)
	}
}

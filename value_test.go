package main

import "testing"

func TestListLeftRightPush(t *testing.T) {
	l := NewList()

	if n := l.LeftPush([]byte("b")); n != 1 {
		t.Errorf("expected length 1, got %d", n)
	}
	if n := l.LeftPush([]byte("a")); n != 2 {
		t.Errorf("expected length 2, got %d", n)
	}
	if n := l.RightPush([]byte("c")); n != 3 {
		t.Errorf("expected length 3, got %d", n)
	}

	popped := l.LeftPop(3)
	want := []string{"a", "b", "c"}
	if len(popped) != len(want) {
		t.Fatalf("expected %d items, got %d", len(want), len(popped))
	}
	for i, w := range want {
		if string(popped[i]) != w {
			t.Errorf("item %d: expected %q, got %q", i, w, popped[i])
		}
	}
}

func TestListPopCountZeroOnPresentList(t *testing.T) {
	l := NewList()
	l.RightPush([]byte("x"))

	popped := l.LeftPop(0)
	if popped == nil {
		t.Error("expected a non-nil empty slice for count=0 on a present list")
	}
	if len(popped) != 0 {
		t.Errorf("expected 0 items, got %d", len(popped))
	}
	if l.Length() != 1 {
		t.Errorf("expected list untouched, length=%d", l.Length())
	}
}

func TestListPopMoreThanLength(t *testing.T) {
	l := NewList()
	l.RightPush([]byte("only"))

	popped := l.RightPop(5)
	if len(popped) != 1 {
		t.Fatalf("expected 1 item, got %d", len(popped))
	}
	if l.Length() != 0 {
		t.Errorf("expected empty list, length=%d", l.Length())
	}
}

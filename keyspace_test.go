package main

import "testing"

func newTestKeyspace() *Keyspace {
	return NewKeyspace(DisabledJournal{}, &ServerStats{})
}

func TestSetGetRoundTrip(t *testing.T) {
	k := newTestKeyspace()

	k.Exec(&Command{Kind: CmdSet, Key: "foo", Value: []byte("bar")})
	reply := k.Exec(&Command{Kind: CmdGet, Key: "foo"})

	if reply.Kind != ReplySimpleString || string(reply.Str) != "bar" {
		t.Fatalf("unexpected reply: %+v", reply)
	}
}

func TestGetOnAbsentKeyIsEmptyString(t *testing.T) {
	k := newTestKeyspace()
	reply := k.Exec(&Command{Kind: CmdGet, Key: "missing"})
	if reply.Kind != ReplyEmptyString {
		t.Fatalf("expected ReplyEmptyString, got %+v", reply)
	}
}

func TestSetExExpiresAfterTTL(t *testing.T) {
	k := newTestKeyspace()
	k.Exec(&Command{Kind: CmdSetEx, Key: "temp", Value: []byte("v"), TTL: 1})

	k.mu.Lock()
	for i := range k.ttl {
		k.ttl[i].deadline = now() - 10
	}
	k.mu.Unlock()

	k.reap()

	reply := k.Exec(&Command{Kind: CmdGet, Key: "temp"})
	if reply.Kind != ReplyEmptyString {
		t.Fatalf("expected key to have expired, got %+v", reply)
	}
}

func TestLPushRPushOrdering(t *testing.T) {
	k := newTestKeyspace()

	k.Exec(&Command{Kind: CmdRPush, Key: "l", Values: [][]byte{[]byte("a"), []byte("b")}})
	k.Exec(&Command{Kind: CmdLPush, Key: "l", Values: [][]byte{[]byte("z")}})

	reply := k.Exec(&Command{Kind: CmdLPop, Key: "l", Count: 3})
	want := []string{"z", "a", "b"}
	if len(reply.Items) != len(want) {
		t.Fatalf("expected %d items, got %d: %v", len(want), len(reply.Items), reply.Items)
	}
	for i, w := range want {
		if string(reply.Items[i]) != w {
			t.Errorf("item %d: expected %q, got %q", i, w, reply.Items[i])
		}
	}
}

func TestWrongTypeDoesNotMutate(t *testing.T) {
	k := newTestKeyspace()
	k.Exec(&Command{Kind: CmdSet, Key: "s", Value: []byte("1")})

	reply := k.Exec(&Command{Kind: CmdLPush, Key: "s", Values: [][]byte{[]byte("x")}})
	if reply.Kind != ReplyErrType {
		t.Fatalf("expected WRONGTYPE, got %+v", reply)
	}

	get := k.Exec(&Command{Kind: CmdGet, Key: "s"})
	if string(get.Str) != "1" {
		t.Fatalf("expected value unchanged, got %+v", get)
	}
}

func TestPushXOnAbsentKeyIsNoop(t *testing.T) {
	k := newTestKeyspace()

	reply := k.Exec(&Command{Kind: CmdLPushX, Key: "absent", Values: [][]byte{[]byte("x")}})
	if reply.Kind != ReplyInteger || reply.Int != 1 {
		t.Fatalf("unexpected reply: %+v", reply)
	}
	if k.Size() != 0 {
		t.Fatalf("expected no key created, size=%d", k.Size())
	}
}

func TestDelIsIdempotent(t *testing.T) {
	k := newTestKeyspace()
	k.Exec(&Command{Kind: CmdSet, Key: "a", Value: []byte("1")})

	first := k.Exec(&Command{Kind: CmdDel, Keys: []string{"a"}})
	if first.Int != 1 {
		t.Fatalf("expected 1 removed, got %d", first.Int)
	}

	second := k.Exec(&Command{Kind: CmdDel, Keys: []string{"a"}})
	if second.Int != 0 {
		t.Fatalf("expected 0 removed on second DEL, got %d", second.Int)
	}
}

func TestIncrOnAbsentKeyStartsAtOne(t *testing.T) {
	k := newTestKeyspace()
	reply := k.Exec(&Command{Kind: CmdIncr, Key: "counter"})
	if reply.Int != 1 {
		t.Fatalf("expected 1, got %d", reply.Int)
	}
}

func TestIncrOverflowIsTypeError(t *testing.T) {
	k := newTestKeyspace()
	k.Exec(&Command{Kind: CmdSet, Key: "n", Value: []byte("9223372036854775807")})

	reply := k.Exec(&Command{Kind: CmdIncr, Key: "n"})
	if reply.Kind != ReplyErrType {
		t.Fatalf("expected overflow to be reported as an error, got %+v", reply)
	}
}

func TestLPopCountZeroDistinguishesEmptyFromAbsent(t *testing.T) {
	k := newTestKeyspace()
	k.Exec(&Command{Kind: CmdRPush, Key: "l", Values: [][]byte{[]byte("x")}})

	present := k.Exec(&Command{Kind: CmdLPop, Key: "l", Count: 0})
	if present.Kind != ReplyArray || len(present.Items) != 0 {
		t.Fatalf("expected empty (not null) array for a present list, got %+v", present)
	}

	absent := k.Exec(&Command{Kind: CmdLPop, Key: "nosuchkey", Count: 0})
	if absent.Kind != ReplyNullArray {
		t.Fatalf("expected null array for an absent key, got %+v", absent)
	}
}

func TestPopDoesNotDeleteEmptiedList(t *testing.T) {
	k := newTestKeyspace()
	k.Exec(&Command{Kind: CmdRPush, Key: "l", Values: [][]byte{[]byte("only")}})
	k.Exec(&Command{Kind: CmdLPop, Key: "l", Count: 1})

	if k.Size() != 1 {
		t.Fatalf("expected the emptied list key to remain, size=%d", k.Size())
	}

	reply := k.Exec(&Command{Kind: CmdLPop, Key: "l", Count: 1})
	if reply.Kind != ReplyArray || len(reply.Items) != 0 {
		t.Fatalf("expected an empty array popping an emptied list, got %+v", reply)
	}
}

func TestExistsCountsOnlyPresentKeys(t *testing.T) {
	k := newTestKeyspace()
	k.Exec(&Command{Kind: CmdSet, Key: "a", Value: []byte("1")})

	reply := k.Exec(&Command{Kind: CmdExists, Keys: []string{"a", "b", "a"}})
	if reply.Int != 2 {
		t.Fatalf("expected 2 (a counted twice, b absent), got %d", reply.Int)
	}
}

func TestExpireZeroCancelsTTL(t *testing.T) {
	k := newTestKeyspace()
	k.Exec(&Command{Kind: CmdSetEx, Key: "k", Value: []byte("v"), TTL: 100})
	k.Exec(&Command{Kind: CmdExpire, Key: "k", TTL: 0})

	reply := k.Exec(&Command{Kind: CmdTTL, Key: "k"})
	if reply.Int != -1 {
		t.Fatalf("expected -1 (no TTL) after EXPIRE 0, got %d", reply.Int)
	}
}

func TestTTLAbsentKeyIsMinusTwo(t *testing.T) {
	k := newTestKeyspace()
	reply := k.Exec(&Command{Kind: CmdTTL, Key: "nosuchkey"})
	if reply.Int != -2 {
		t.Fatalf("expected -2, got %d", reply.Int)
	}
}

func TestMSetMGetRoundTrip(t *testing.T) {
	k := newTestKeyspace()
	k.Exec(&Command{Kind: CmdMSet, Values: [][]byte{[]byte("a"), []byte("1"), []byte("b"), []byte("2")}})

	reply := k.Exec(&Command{Kind: CmdMGet, Keys: []string{"a", "b", "missing"}})
	if len(reply.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(reply.Items))
	}
	if string(reply.Items[0]) != "1" || string(reply.Items[1]) != "2" {
		t.Fatalf("unexpected values: %v", reply.Items)
	}
	if reply.Items[2] != nil {
		t.Fatalf("expected nil for a missing key, got %q", reply.Items[2])
	}
}

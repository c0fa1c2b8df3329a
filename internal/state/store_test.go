package state

import "testing"

func buildSample() *Store {
	s := New("/")
	s.root = NewMap(map[string]Value{
		"a": NewMap(map[string]Value{
			"b": NewSeq([]Value{NewInt(10), NewInt(20), NewInt(30)}),
		}),
	})
	return s
}

// Resolution of nested map/sequence paths, including an out-of-range index.
func TestPathResolutionScenario(t *testing.T) {
	s := buildSample()

	v, err := s.Get("a/b/2")
	if err != nil {
		t.Fatalf("get a/b/2: %v", err)
	}
	if v.Int != 30 {
		t.Errorf("a/b/2 = %d, want 30", v.Int)
	}

	_, err = s.Get("a/b/5")
	perr, ok := err.(*PathError)
	if !ok || perr.Kind != IndexOutOfRange {
		t.Fatalf("a/b/5 err = %v, want IndexOutOfRange", err)
	}

	if err := s.Set("a/b/1", NewInt(99)); err != nil {
		t.Fatalf("set a/b/1: %v", err)
	}
	v, err = s.Get("a/b/1")
	if err != nil {
		t.Fatalf("get a/b/1 after set: %v", err)
	}
	if v.Int != 99 {
		t.Errorf("a/b/1 = %d, want 99", v.Int)
	}
}

// get(set(s,p,v),p) == sanitize(v) for any valid path/value.
func TestGetSetSanitizeInvariant(t *testing.T) {
	cases := []Value{
		NewBool(true),
		NewInt(42),
		NewFloat(3.5),
		NewString("hello"),
		NewSeq([]Value{NewInt(1), NewInt(2)}),
	}
	for _, v := range cases {
		s := buildSample()
		if err := s.Set("a/b/1", v); err != nil {
			t.Fatalf("set: %v", err)
		}
		got, err := s.Get("a/b/1")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		want := Sanitize(v)
		gotSan := Sanitize(got)
		if seqsAreEqual(gotSan, want) {
			continue
		}
		t.Errorf("get(set(s, p, %#v), p) = %#v, want %#v", v, gotSan, want)
	}
}

func seqsAreEqual(a, b interface{}) bool {
	as, aok := a.([]interface{})
	bs, bok := b.([]interface{})
	if aok != bok {
		return a == b
	}
	if aok {
		if len(as) != len(bs) {
			return false
		}
		for i := range as {
			if !seqsAreEqual(as[i], bs[i]) {
				return false
			}
		}
		return true
	}
	return a == b
}

func TestSetEmptyPathFails(t *testing.T) {
	s := buildSample()
	err := s.Set("", NewInt(1))
	perr, ok := err.(*PathError)
	if !ok || perr.Kind != EmptyPath {
		t.Fatalf("err = %v, want EmptyPath", err)
	}
}

func TestGetMissingKey(t *testing.T) {
	s := buildSample()
	_, err := s.Get("a/missing")
	perr, ok := err.(*PathError)
	if !ok || perr.Kind != KeyMissing {
		t.Fatalf("err = %v, want KeyMissing", err)
	}
}

func TestGetThroughScalarIsNotContainer(t *testing.T) {
	s := buildSample()
	_, err := s.Get("a/b/0/x")
	perr, ok := err.(*PathError)
	if !ok || perr.Kind != NotContainer {
		t.Fatalf("err = %v, want NotContainer", err)
	}
}

func TestCameraRecordLifecycle(t *testing.T) {
	s := NewSharedState("/", "0.0.0.0", 5000, map[string]CameraConfig{
		"0": {Width: 16, Height: 16},
	})

	state, err := s.FusionState("0")
	if err != nil || state != StateIdle {
		t.Fatalf("initial fusion_state = %q, %v, want IDLE", state, err)
	}

	var transitions [][2]string
	s.OnTransition(func(id, from, to, reqID string) {
		transitions = append(transitions, [2]string{from, to})
	})

	if err := s.SetFusionState("0", StateRequested, "req-1"); err != nil {
		t.Fatalf("SetFusionState REQUESTED: %v", err)
	}
	if err := s.SetFusionState("0", StateProcessing, "req-1"); err != nil {
		t.Fatalf("SetFusionState PROCESSING: %v", err)
	}
	if err := s.SetFusionState("0", StateReady, "req-1"); err != nil {
		t.Fatalf("SetFusionState READY: %v", err)
	}

	want := [][2]string{{StateIdle, StateRequested}, {StateRequested, StateProcessing}, {StateProcessing, StateReady}}
	if len(transitions) != len(want) {
		t.Fatalf("observed %d transitions, want %d: %v", len(transitions), len(want), transitions)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transition %d = %v, want %v", i, transitions[i], want[i])
		}
	}

	if _, ok, err := s.FusedResult("0"); err != nil || ok {
		t.Fatalf("fused_result should be absent before publish: ok=%v err=%v", ok, err)
	}
}

func TestSetFusionStateNoopDoesNotNotify(t *testing.T) {
	s := NewSharedState("/", "0.0.0.0", 5000, map[string]CameraConfig{"0": {Width: 8, Height: 8}})
	notified := false
	s.OnTransition(func(id, from, to, reqID string) { notified = true })
	if err := s.SetFusionState("0", StateIdle, ""); err != nil {
		t.Fatalf("SetFusionState: %v", err)
	}
	if notified {
		t.Error("setting fusion_state to its current value should not notify listeners")
	}
}

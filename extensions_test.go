package relay

import "testing"

type traceID string
type attempt int

func TestExtensionsTypedKeys(t *testing.T) {
	ext := NewExtensions()

	if _, ok := Get[traceID](ext); ok {
		t.Fatal("expected empty store")
	}

	if _, replaced := Insert(ext, traceID("abc")); replaced {
		t.Error("first insert should not report a previous value")
	}
	Insert(ext, attempt(3))

	if got, ok := Get[traceID](ext); !ok || got != "abc" {
		t.Errorf("expected traceID 'abc', got %q (ok=%v)", got, ok)
	}
	if got, ok := Get[attempt](ext); !ok || got != 3 {
		t.Errorf("expected attempt 3, got %d (ok=%v)", got, ok)
	}
	// Same underlying type, different key.
	if _, ok := Get[string](ext); ok {
		t.Error("string should not alias traceID")
	}
	if ext.Len() != 2 {
		t.Errorf("expected 2 values, got %d", ext.Len())
	}
}

func TestExtensionsReplaceAndRemove(t *testing.T) {
	ext := NewExtensions()
	Insert(ext, attempt(1))

	prev, replaced := Insert(ext, attempt(2))
	if !replaced || prev != 1 {
		t.Errorf("expected to replace 1, got %d (replaced=%v)", prev, replaced)
	}

	removed, ok := Remove[attempt](ext)
	if !ok || removed != 2 {
		t.Errorf("expected to remove 2, got %d (ok=%v)", removed, ok)
	}
	if _, ok := Remove[attempt](ext); ok {
		t.Error("second remove should find nothing")
	}
}

func TestExtensionsClear(t *testing.T) {
	ext := NewExtensions()
	Insert(ext, attempt(1))
	Insert(ext, traceID("x"))

	ext.Clear()

	if ext.Len() != 0 {
		t.Errorf("expected empty store after Clear, got %d", ext.Len())
	}
}

func TestExtensionsPointerValues(t *testing.T) {
	type counter struct{ n int }
	ext := NewExtensions()
	Insert(ext, &counter{})

	c, _ := Get[*counter](ext)
	c.n++

	again, _ := Get[*counter](ext)
	if again.n != 1 {
		t.Errorf("expected shared pointer to see increment, got %d", again.n)
	}
}

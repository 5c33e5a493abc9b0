package native

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func providers(t *testing.T) []Provider {
	t.Helper()
	out := []Provider{NewHeapProvider()}
	if m, err := NewMmapProvider(); err == nil {
		out = append(out, m)
	}
	return out
}

func expectPanic(t *testing.T, contains string, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected panic containing %q", contains)
		}
		if msg := fmt.Sprint(r); !strings.Contains(msg, contains) {
			t.Errorf("panic = %q, want %q", msg, contains)
		}
	}()
	fn()
}

func TestCallocZeroed(t *testing.T) {
	for _, p := range providers(t) {
		t.Run(p.Name(), func(t *testing.T) {
			ptr, err := p.Calloc(4096 + 3)
			if err != nil {
				t.Fatal(err)
			}
			defer ptr.Free()

			if ptr.Size() != 4099 {
				t.Errorf("Size() = %d, expected 4099", ptr.Size())
			}
			for i, b := range ptr.ReadBytes(0, ptr.Size()) {
				if b != 0 {
					t.Fatalf("byte %d = %d, expected 0", i, b)
				}
			}
			if ptr.Address() == 0 {
				t.Error("Address() = 0")
			}
		})
	}
}

func TestReadWrite(t *testing.T) {
	for _, p := range providers(t) {
		t.Run(p.Name(), func(t *testing.T) {
			ptr, err := p.Malloc(8)
			if err != nil {
				t.Fatal(err)
			}
			defer ptr.Free()

			ptr.WriteBytes(0, []byte("abcdefgh"))
			ptr.WriteByteAt(3, 'X')
			if got := ptr.ReadByteAt(3); got != 'X' {
				t.Errorf("ReadByteAt(3) = %q", got)
			}
			if got := ptr.ReadBytes(1, 4); string(got) != "bcXe" {
				t.Errorf("ReadBytes(1, 4) = %q", got)
			}

			dst := make([]byte, 3)
			ptr.ReadInto(5, dst)
			if string(dst) != "fgh" {
				t.Errorf("ReadInto = %q", dst)
			}

			other, err := p.Calloc(4)
			if err != nil {
				t.Fatal(err)
			}
			defer other.Free()
			other.WriteFrom(1, ptr, 0, 3)
			if got := other.ReadBytes(0, 4); !bytes.Equal(got, []byte{0, 'a', 'b', 'c'}) {
				t.Errorf("WriteFrom result = %q", got)
			}
		})
	}
}

func TestBoundsChecks(t *testing.T) {
	ptr, _ := NewHeapProvider().Calloc(4)

	expectPanic(t, "out of range", func() { ptr.ReadByteAt(4) })
	expectPanic(t, "out of range", func() { ptr.WriteByteAt(-1, 0) })
	expectPanic(t, "out of range", func() { ptr.WriteBytes(2, []byte("abc")) })
	expectPanic(t, "out of range", func() { ptr.ReadBytes(0, 5) })
	expectPanic(t, "offset 5 out of range", func() { ptr.Add(5) })
}

func TestView(t *testing.T) {
	ptr, _ := NewHeapProvider().Calloc(6)
	ptr.WriteBytes(0, []byte("hello!"))

	view := ptr.Add(2)
	if !view.IsView() || view.Size() != 4 {
		t.Fatalf("view = %s", view)
	}
	if got := view.ReadBytes(0, 4); string(got) != "llo!" {
		t.Errorf("view bytes = %q", got)
	}
	view.WriteByteAt(0, 'L')
	if ptr.ReadByteAt(2) != 'L' {
		t.Error("write through view not visible in parent")
	}
	if view.ID() != ptr.ID() {
		t.Error("view id differs from parent")
	}
	if err := view.Free(); !errors.Is(err, ErrNotOwner) {
		t.Errorf("view.Free() = %v, expected ErrNotOwner", err)
	}
	if err := view.Release(); !errors.Is(err, ErrNotOwner) {
		t.Errorf("view.Release() = %v, expected ErrNotOwner", err)
	}
	expectPanic(t, "retain through a view", view.Retain)

	if err := ptr.Free(); err != nil {
		t.Fatal(err)
	}
	expectPanic(t, "use of freed pointer", func() { view.ReadByteAt(0) })
}

func TestFreeExactlyOnce(t *testing.T) {
	for _, p := range providers(t) {
		t.Run(p.Name(), func(t *testing.T) {
			ptr, err := p.Calloc(16)
			if err != nil {
				t.Fatal(err)
			}
			if err := ptr.Free(); err != nil {
				t.Fatalf("Free() = %v", err)
			}
			if err := ptr.Free(); !errors.Is(err, ErrAlreadyFreed) {
				t.Errorf("second Free() = %v, expected ErrAlreadyFreed", err)
			}
			if !ptr.Freed() {
				t.Error("Freed() = false")
			}
			expectPanic(t, "use of freed pointer", func() { ptr.ReadByteAt(0) })

			stats := p.Stats()
			if stats.Allocated != 1 || stats.Freed != 1 || stats.Live() != 0 || stats.LiveBytes != 0 {
				t.Errorf("stats = %+v", stats)
			}
		})
	}
}

func TestRefCounting(t *testing.T) {
	p := NewHeapProvider()
	ptr, _ := p.Calloc(8)

	ptr.Retain()
	ptr.Retain()
	if ptr.Refs() != 3 {
		t.Fatalf("Refs() = %d, expected 3", ptr.Refs())
	}

	for i := 0; i < 2; i++ {
		if err := ptr.Release(); err != nil {
			t.Fatal(err)
		}
		if ptr.Freed() {
			t.Fatalf("freed after %d releases", i+1)
		}
	}
	if err := ptr.Release(); err != nil {
		t.Fatal(err)
	}
	if !ptr.Freed() {
		t.Error("not freed after last release")
	}
	if err := ptr.Release(); !errors.Is(err, ErrAlreadyFreed) {
		t.Errorf("extra Release() = %v, expected ErrAlreadyFreed", err)
	}
	if p.Stats().Freed != 1 {
		t.Errorf("Freed = %d, expected 1", p.Stats().Freed)
	}
}

func TestProviderByName(t *testing.T) {
	tests := []struct {
		name     string
		expected string
		err      error
	}{
		{"heap", ProviderHeap, nil},
		{"", DefaultProvider().Name(), nil},
		{" HEAP ", ProviderHeap, nil},
		{"jemalloc", "", ErrUnknownProvider},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ProviderByName(tt.name)
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Errorf("err = %v, expected %v", err, tt.err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if p.Name() != tt.expected {
				t.Errorf("Name() = %q, expected %q", p.Name(), tt.expected)
			}
		})
	}
}

func TestInvalidSize(t *testing.T) {
	for _, p := range providers(t) {
		_, err := p.Calloc(-1)
		if !errors.Is(err, ErrInvalidSize) {
			t.Errorf("%s Calloc(-1) = %v, expected ErrInvalidSize", p.Name(), err)
		}
		var allocErr *AllocError
		if !errors.As(err, &allocErr) || allocErr.Provider != p.Name() {
			t.Errorf("%s error = %#v", p.Name(), err)
		}
	}
}

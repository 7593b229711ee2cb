package realtime

import (
	"testing"
	"time"
)

func TestDebouncerCollapsesBurst(t *testing.T) {
	fired := make(chan string, 8)
	d := NewDebouncer(50*time.Millisecond, func(key string) { fired <- key })
	defer d.Stop()

	for i := 0; i < 10; i++ {
		d.Trigger("s1")
	}

	select {
	case key := <-fired:
		if key != "s1" {
			t.Fatalf("unexpected key: %s", key)
		}
	case <-time.After(time.Second):
		t.Fatalf("callback never fired")
	}
	select {
	case key := <-fired:
		t.Fatalf("burst must collapse into one callback, got extra %q", key)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestDebouncerKeysAreIndependent(t *testing.T) {
	fired := make(chan string, 8)
	d := NewDebouncer(30*time.Millisecond, func(key string) { fired <- key })
	defer d.Stop()

	d.Trigger("a")
	d.Trigger("b")

	got := map[string]int{}
	for i := 0; i < 2; i++ {
		select {
		case key := <-fired:
			got[key]++
		case <-time.After(time.Second):
			t.Fatalf("expected callbacks for both keys, got %v", got)
		}
	}
	if got["a"] != 1 || got["b"] != 1 {
		t.Fatalf("each key fires once: %v", got)
	}
}

func TestDebouncerCancel(t *testing.T) {
	fired := make(chan string, 1)
	d := NewDebouncer(30*time.Millisecond, func(key string) { fired <- key })
	defer d.Stop()

	d.Trigger("s1")
	if !d.Pending("s1") {
		t.Fatalf("trigger must register a pending timer")
	}
	d.Cancel("s1")
	if d.Pending("s1") {
		t.Fatalf("cancel must drop the pending timer")
	}

	select {
	case key := <-fired:
		t.Fatalf("canceled callback fired: %q", key)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDebouncerZeroWindowUsesDefault(t *testing.T) {
	d := NewDebouncer(0, func(string) {})
	defer d.Stop()
	if d.window != DefaultDebounceWindow {
		t.Fatalf("window = %s, want %s", d.window, DefaultDebounceWindow)
	}
}

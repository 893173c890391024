package engine

import (
	"testing"
	"time"
)

type sample struct {
	At    time.Time
	Value float64
}

func TestRingBufferAdd(t *testing.T) {
	rb := NewRingBuffer[sample](5)
	for i := 0; i < 3; i++ {
		rb.Add(sample{At: time.Now(), Value: float64(i)})
	}
	if rb.Len() != 3 {
		t.Errorf("expected len 3, got %d", rb.Len())
	}
}

func TestRingBufferWrap(t *testing.T) {
	rb := NewRingBuffer[sample](3)
	for i := 0; i < 5; i++ {
		rb.Add(sample{Value: float64(i)})
	}
	if rb.Len() != 3 {
		t.Errorf("expected len 3, got %d", rb.Len())
	}
	items := rb.All()
	if items[0].Value != 2 {
		t.Errorf("expected oldest value 2, got %f", items[0].Value)
	}
	if items[2].Value != 4 {
		t.Errorf("expected newest value 4, got %f", items[2].Value)
	}
}

func TestRingBufferEmpty(t *testing.T) {
	rb := NewRingBuffer[sample](10)
	if rb.Len() != 0 {
		t.Error("new ring buffer should be empty")
	}
	if len(rb.All()) != 0 {
		t.Error("All() on empty buffer should return empty slice")
	}
	if _, ok := rb.Last(); ok {
		t.Error("Last() on empty buffer should report false")
	}
}

func TestRingBufferLast(t *testing.T) {
	rb := NewRingBuffer[sample](5)
	rb.Add(sample{Value: 1})
	rb.Add(sample{Value: 2})
	rb.Add(sample{Value: 3})
	last, ok := rb.Last()
	if !ok {
		t.Fatal("Last() should return true for non-empty buffer")
	}
	if last.Value != 3 {
		t.Errorf("expected 3, got %f", last.Value)
	}
}

func TestRingBufferZeroCapacity(t *testing.T) {
	rb := NewRingBuffer[sample](0)
	rb.Add(sample{Value: 1})
	if rb.Len() != 1 {
		t.Errorf("capacity below 1 should hold one item, got len %d", rb.Len())
	}
}

func TestRingBufferValues(t *testing.T) {
	rb := NewRingBuffer[sample](4)
	for _, v := range []float64{5, 6, 7} {
		rb.Add(sample{Value: v})
	}
	got := Values(rb, func(s sample) float64 { return s.Value })
	want := []float64{5, 6, 7}
	if len(got) != len(want) {
		t.Fatalf("expected %d values, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("value %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

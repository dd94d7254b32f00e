package memmodel

import "testing"

func TestMakeAddrRoundTripsSegmentObjectOffset(t *testing.T) {
	tests := []struct {
		seg    Segment
		id     uint32
		offset uint64
	}{
		{SegGlobal, 1, 0},
		{SegStack, 12345, 64},
		{SegHeap, 1, 1 << 20},
		{SegMeta, 7, 0},
	}
	for _, tt := range tests {
		a := makeAddr(tt.seg, tt.id, tt.offset)
		if a.Segment() != tt.seg {
			t.Errorf("Segment() = %s, want %s", a.Segment(), tt.seg)
		}
		if a.ObjectID() != tt.id {
			t.Errorf("ObjectID() = %d, want %d", a.ObjectID(), tt.id)
		}
		if a.Offset() != tt.offset {
			t.Errorf("Offset() = %d, want %d", a.Offset(), tt.offset)
		}
	}
}

func TestWithOffsetPreservesSegmentAndObject(t *testing.T) {
	a := makeAddr(SegStack, 42, 8)
	b := a.withOffset(16)
	if b.Segment() != a.Segment() || b.ObjectID() != a.ObjectID() {
		t.Errorf("withOffset changed segment/object identity")
	}
	if b.Offset() != 16 {
		t.Errorf("withOffset's Offset() = %d, want 16", b.Offset())
	}
}

func TestSegmentString(t *testing.T) {
	tests := map[Segment]string{
		SegGlobal: "global",
		SegStack:  "stack",
		SegHeap:   "heap",
		SegMeta:   "meta",
	}
	for seg, want := range tests {
		if got := seg.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", seg, got, want)
		}
	}
}

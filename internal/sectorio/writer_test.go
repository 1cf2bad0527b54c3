package sectorio

import (
	"bytes"
	"os"
	"testing"
)

func TestWriteSectorAtRespectsOrigin(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "sec")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := f.Truncate(4 * SectorSize); err != nil {
		t.Fatal(err)
	}

	w := New(f)
	w.SetOrigin(2)

	buf := w.Scratch(1)
	for i := range buf {
		buf[i] = 0xAB
	}
	if err := w.WriteSectorAt(0); err != nil {
		t.Fatalf("WriteSectorAt: %v", err)
	}

	got := make([]byte, SectorSize)
	if _, err := f.ReadAt(got, 2*SectorSize); err != nil {
		t.Fatal(err)
	}
	want := bytes.Repeat([]byte{0xAB}, SectorSize)
	if !bytes.Equal(got, want) {
		t.Errorf("sector at absolute LBA 2 was not written through the origin offset")
	}
}

func TestStickyFailureAfterFirstError(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "sec")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := f.Truncate(1 * SectorSize); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	w := New(f)
	w.Scratch(1)
	if err := w.WriteSectorAt(0); err == nil {
		t.Fatal("expected a write error against a closed file")
	}
	if w.Good() {
		t.Error("Good() returned true after a write failure")
	}
	firstErr := w.Err()
	if err := w.WriteSectorAt(0); err != firstErr {
		t.Errorf("second WriteSectorAt returned %v, want the sticky first error %v", err, firstErr)
	}
}

func TestZeroFillAndLastLBA(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "sec")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := f.Truncate(4 * SectorSize); err != nil {
		t.Fatal(err)
	}

	w := New(f)
	if err := w.ZeroFill(4); err != nil {
		t.Fatalf("ZeroFill: %v", err)
	}
	last, err := w.LastLBA()
	if err != nil {
		t.Fatal(err)
	}
	if last != 3 {
		t.Errorf("LastLBA() = %d, want 3", last)
	}

	size, err := w.SizeBytes()
	if err != nil {
		t.Fatal(err)
	}
	if size != 4*SectorSize {
		t.Errorf("SizeBytes() = %d, want %d", size, 4*SectorSize)
	}
}

func TestWriteSectorRangeSlicesScratch(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "sec")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := f.Truncate(4 * SectorSize); err != nil {
		t.Fatal(err)
	}

	w := New(f)
	buf := w.Scratch(2)
	for i := 0; i < SectorSize; i++ {
		buf[i] = 0x11
	}
	for i := SectorSize; i < 2*SectorSize; i++ {
		buf[i] = 0x22
	}
	if err := w.WriteSectorRange(3, 1, 1); err != nil {
		t.Fatalf("WriteSectorRange: %v", err)
	}

	got := make([]byte, SectorSize)
	if _, err := f.ReadAt(got, 3*SectorSize); err != nil {
		t.Fatal(err)
	}
	want := bytes.Repeat([]byte{0x22}, SectorSize)
	if !bytes.Equal(got, want) {
		t.Errorf("WriteSectorRange wrote the wrong scratch slice")
	}
}

package guid

import "testing"

func TestNewDistinctAcrossCalls(t *testing.T) {
	a := New()
	b := New()
	if a == b {
		t.Errorf("New() returned the same value twice: %x", a)
	}
	var zero [16]byte
	if a == zero {
		t.Errorf("New() returned the all-zero GUID")
	}
}

func TestToGPTBytesFieldSwap(t *testing.T) {
	var u [16]byte
	for i := range u {
		u[i] = byte(i)
	}
	got := toGPTBytes(u)
	want := [16]byte{3, 2, 1, 0, 5, 4, 7, 6, 8, 9, 10, 11, 12, 13, 14, 15}
	if got != want {
		t.Errorf("toGPTBytes(%x) = %x, want %x", u, got, want)
	}
}

func TestVolumeSerialVaries(t *testing.T) {
	a := VolumeSerial()
	b := VolumeSerial()
	if a == b {
		t.Errorf("VolumeSerial() returned the same value twice: %#x", a)
	}
}

package gpt

import (
	"bytes"
	"encoding/binary"
	"os"
	"testing"

	"github.com/efibootgen/efibootgen/internal/crc32check"
	"github.com/efibootgen/efibootgen/internal/sectorio"
)

func TestStructSizes(t *testing.T) {
	if got := len(Header{}.Marshal()); got != HeaderSize {
		t.Errorf("Header{}.Marshal() length = %d, want %d", got, HeaderSize)
	}
	if got := len(Entry{}.Marshal()); got != EntrySize {
		t.Errorf("Entry{}.Marshal() length = %d, want %d", got, EntrySize)
	}
}

func TestWriteGPT(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "image")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	const totalSectors = 1 << 18 // 128 MiB / 512
	if err := f.Truncate(int64(totalSectors) * SectorSize); err != nil {
		t.Fatal(err)
	}

	w := sectorio.New(f)
	window, err := WriteGPT(w)
	if err != nil {
		t.Fatalf("WriteGPT: %v", err)
	}
	if window.FirstUsableLBA != 34 {
		t.Errorf("FirstUsableLBA = %d, want 34", window.FirstUsableLBA)
	}
	lastLBA := uint64(totalSectors - 1)
	if window.LastUsableLBA != lastLBA-34 {
		t.Errorf("LastUsableLBA = %d, want %d", window.LastUsableLBA, lastLBA-34)
	}

	readSector := func(lba uint64) []byte {
		t.Helper()
		buf := make([]byte, SectorSize)
		if _, err := f.ReadAt(buf, int64(lba)*SectorSize); err != nil {
			t.Fatalf("reading LBA %d: %v", lba, err)
		}
		return buf
	}

	// Property 1: sector 0 ends with 0x55 0xAA and OS type 0xEE at 446+4.
	mbr := readSector(0)
	if mbr[510] != 0x55 || mbr[511] != 0xAA {
		t.Errorf("MBR signature = %02x %02x, want 55 aa", mbr[510], mbr[511])
	}
	if mbr[446+4] != 0xEE {
		t.Errorf("MBR OS type = %#x, want 0xEE", mbr[446+4])
	}

	// Property 2: primary header fields.
	primary := UnmarshalHeader(readSector(1))
	if string(primary.Signature[:]) != "EFI PART" {
		t.Errorf("primary.Signature = %q, want %q", primary.Signature, "EFI PART")
	}
	if primary.HeaderSize != HeaderSize {
		t.Errorf("primary.HeaderSize = %d, want %d", primary.HeaderSize, HeaderSize)
	}
	if primary.MyLBA != 1 {
		t.Errorf("primary.MyLBA = %d, want 1", primary.MyLBA)
	}
	if primary.AlternateLBA != lastLBA {
		t.Errorf("primary.AlternateLBA = %d, want %d", primary.AlternateLBA, lastLBA)
	}
	if primary.FirstUsableLBA != 34 {
		t.Errorf("primary.FirstUsableLBA = %d, want 34", primary.FirstUsableLBA)
	}
	if primary.LastUsableLBA != lastLBA-34 {
		t.Errorf("primary.LastUsableLBA = %d, want %d", primary.LastUsableLBA, lastLBA-34)
	}
	if primary.PartitionEntryCount != 1 {
		t.Errorf("primary.PartitionEntryCount = %d, want 1", primary.PartitionEntryCount)
	}
	if primary.PartitionEntrySize != EntrySize {
		t.Errorf("primary.PartitionEntrySize = %d, want %d", primary.PartitionEntrySize, EntrySize)
	}
	if primary.PartitionEntryLBA != 2 {
		t.Errorf("primary.PartitionEntryLBA = %d, want 2", primary.PartitionEntryLBA)
	}

	// Property 3: header CRC32 verifies with header_crc32 zeroed.
	checkHeaderCRC := func(h Header) {
		t.Helper()
		want := h.HeaderCRC32
		h.HeaderCRC32 = 0
		got := crc32check.Checksum(h.Marshal())
		if got != want {
			t.Errorf("recomputed header CRC32 = %#x, want %#x", got, want)
		}
	}
	checkHeaderCRC(primary)

	// Property 4: partition array CRC32.
	primaryEntryBytes := readSector(2)[:EntrySize]
	primaryEntry := UnmarshalEntry(primaryEntryBytes)
	if got := crc32check.Checksum(primaryEntryBytes); got != primary.PartitionArrayCRC32 {
		t.Errorf("recomputed partition array CRC32 = %#x, want %#x", got, primary.PartitionArrayCRC32)
	}
	if primaryEntry.TypeGUID != ESPTypeGUID {
		t.Errorf("primaryEntry.TypeGUID = %x, want %x", primaryEntry.TypeGUID, ESPTypeGUID)
	}
	for i := 0; i < len(primaryEntry.Name)/2; i++ {
		got := binary.LittleEndian.Uint16(primaryEntry.Name[i*2:])
		want := uint16(0x0020)
		if i < len("EFI BOOT") {
			want = uint16("EFI BOOT"[i])
		}
		if got != want {
			t.Errorf("partition name code unit %d = %#x, want %#x", i, got, want)
		}
	}

	// Property 5: primary/backup arrays identical, backup header fields.
	backupEntryBytes := readSector(lastLBA - 32)[:EntrySize]
	if !bytes.Equal(primaryEntryBytes, backupEntryBytes) {
		t.Errorf("backup partition entry differs from primary")
	}
	zero := make([]byte, SectorSize)
	for _, lba := range []uint64{3, 33, lastLBA - 31, lastLBA - 1} {
		if !bytes.Equal(readSector(lba), zero) {
			t.Errorf("partition array tail sector at LBA %d is not zero", lba)
		}
	}

	backup := UnmarshalHeader(readSector(lastLBA))
	checkHeaderCRC(backup)
	if backup.MyLBA != lastLBA {
		t.Errorf("backup.MyLBA = %d, want %d", backup.MyLBA, lastLBA)
	}
	if backup.AlternateLBA != 1 {
		t.Errorf("backup.AlternateLBA = %d, want 1", backup.AlternateLBA)
	}
	if backup.PartitionEntryLBA != lastLBA-32 {
		t.Errorf("backup.PartitionEntryLBA = %d, want %d", backup.PartitionEntryLBA, lastLBA-32)
	}
}

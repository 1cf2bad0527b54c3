package gpt

import (
	"github.com/efibootgen/efibootgen/internal/crc32check"
	"github.com/efibootgen/efibootgen/internal/guid"
	"github.com/efibootgen/efibootgen/internal/sectorio"
	"github.com/efibootgen/efibootgen/internal/status"
)

// PartitionWindow is the ESP's usable LBA range, as returned by WriteGPT.
type PartitionWindow struct {
	FirstUsableLBA uint64
	LastUsableLBA  uint64
}

// WriteGPT writes the protective MBR, the primary GPT header and partition
// array, and the backup partition array and header, per the UEFI
// Specification's GUID Partition Table Disk Layout chapter, returning the
// single ESP's usable LBA range. w must already be sized to its final byte
// length and have its origin at absolute LBA 0.
func WriteGPT(w *sectorio.Writer) (PartitionWindow, error) {
	lastLBA, err := w.LastLBA()
	if err != nil {
		return PartitionWindow{}, status.Internal("determining image size: " + err.Error())
	}

	mbrSector := w.Scratch(1)
	buildProtectiveMBR(mbrSector, lastLBA)
	if err := w.WriteSectorAt(0); err != nil {
		return PartitionWindow{}, status.Internal("writing protective MBR: " + err.Error())
	}

	firstUsable := uint64(FirstUsableLBA)
	lastUsable := lastLBA - FirstUsableLBA

	entry := Entry{
		TypeGUID:   ESPTypeGUID,
		PartGUID:   guid.New(),
		StartLBA:   firstUsable,
		EndLBA:     lastUsable,
		Attributes: RequiredAttribute,
		Name:       partitionName(espPartitionName),
	}
	entryBytes := entry.Marshal()
	entryCRC := crc32check.Checksum(entryBytes)

	primary := Header{
		Revision:            Revision,
		HeaderSize:          HeaderSize,
		MyLBA:               1,
		AlternateLBA:        lastLBA,
		FirstUsableLBA:      firstUsable,
		LastUsableLBA:       lastUsable,
		DiskGUID:            guid.New(),
		PartitionEntryLBA:   2,
		PartitionEntryCount: 1,
		PartitionEntrySize:  EntrySize,
		PartitionArrayCRC32: entryCRC,
	}
	primary.HeaderCRC32 = crc32check.Checksum(primary.Marshal())

	both := w.Scratch(2)
	copy(both[0:SectorSize], primary.Marshal())
	copy(both[SectorSize:2*SectorSize], entryBytes)
	if err := w.WriteSectorsAt(1, 2); err != nil {
		return PartitionWindow{}, status.Internal("writing primary GPT header and partition array: " + err.Error())
	}

	// The 127 entries after the ESP entry in each array are zero. The 31
	// sectors following each array's first entry sector are written
	// explicitly so a reused image's array region cannot carry stale bytes
	// past the first entry sector.
	w.Scratch(EntryArraySectors - 1)
	if err := w.WriteSectorsAt(3, EntryArraySectors-1); err != nil {
		return PartitionWindow{}, status.Internal("zeroing primary partition array tail: " + err.Error())
	}
	if err := w.WriteSectorsAt(lastLBA-(EntryArraySectors-1), EntryArraySectors-1); err != nil {
		return PartitionWindow{}, status.Internal("zeroing backup partition array tail: " + err.Error())
	}

	backup := primary
	backup.MyLBA, backup.AlternateLBA = lastLBA, 1
	backup.PartitionEntryLBA = lastLBA - EntryArraySectors
	backup.HeaderCRC32 = 0
	backup.HeaderCRC32 = crc32check.Checksum(backup.Marshal())

	both = w.Scratch(2)
	copy(both[0:SectorSize], backup.Marshal())
	copy(both[SectorSize:2*SectorSize], entryBytes)
	if err := w.WriteSectorRange(lastLBA-EntryArraySectors, 1, 1); err != nil {
		return PartitionWindow{}, status.Internal("writing backup partition array: " + err.Error())
	}
	if err := w.WriteSectorRange(lastLBA, 0, 1); err != nil {
		return PartitionWindow{}, status.Internal("writing backup GPT header: " + err.Error())
	}

	return PartitionWindow{FirstUsableLBA: firstUsable, LastUsableLBA: lastUsable}, nil
}

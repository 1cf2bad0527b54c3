package gpt

import (
	"bytes"
	"encoding/binary"
)

// mbrPartitionRecord is the 16-byte legacy partition record the protective
// MBR carries at offset 446, per the UEFI Specification's protective-MBR
// requirements.
type mbrPartitionRecord struct {
	BootIndicator byte
	StartCHS      [3]byte
	OSType        byte
	EndCHS        [3]byte
	StartLBA      uint32
	SizeLBA       uint32
}

const (
	mbrPartitionRecordOffset = 446
	mbrSignatureOffset       = 510
	mbrProtectiveOSType      = 0xEE
)

// buildProtectiveMBR fills a zeroed 512-byte sector in place with a
// protective MBR: a single partition record advertising the whole disk as
// type 0xEE, and the 0xAA55 boot signature, so legacy non-GPT-aware tools
// see the disk as fully allocated.
func buildProtectiveMBR(sector []byte, lastLBA uint64) {
	sizeLBA := lastLBA
	if sizeLBA > 0xFFFFFFFF {
		sizeLBA = 0xFFFFFFFF
	}
	rec := mbrPartitionRecord{
		BootIndicator: 0,
		StartCHS:      [3]byte{0, 2, 0},
		OSType:        mbrProtectiveOSType,
		EndCHS:        [3]byte{0xFF, 0xFF, 0xFF},
		StartLBA:      1,
		SizeLBA:       uint32(sizeLBA),
	}
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, rec)
	copy(sector[mbrPartitionRecordOffset:], buf.Bytes())
	sector[mbrSignatureOffset] = 0x55
	sector[mbrSignatureOffset+1] = 0xAA
}

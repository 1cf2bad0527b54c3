// Package guid produces the 16-byte disk/partition identifiers a GPT embeds
// and the small random volume serial number a FAT BPB embeds. Per spec, no
// field-wise GUID version/variant encoding is required: firmware treats these
// purely as opaque locally-unique identifiers.
package guid

import (
	"math/rand"

	"github.com/google/uuid"
)

// New returns 16 random bytes laid out the way a GPT partition/disk GUID is
// stored on disk: the first three fields little-endian, the last two raw,
// per the mixed-endian GUID encoding the UEFI Specification defines.
func New() [16]byte {
	return toGPTBytes(uuid.New())
}

func toGPTBytes(u uuid.UUID) [16]byte {
	var b [16]byte
	b[0], b[1], b[2], b[3] = u[3], u[2], u[1], u[0]
	b[4], b[5] = u[5], u[4]
	b[6], b[7] = u[7], u[6]
	copy(b[8:], u[8:])
	return b
}

// VolumeSerial returns a small pseudo-random integer suitable for a FAT
// BPB's bs_vol_id/bs_vol_id32 field. It carries no semantic meaning beyond
// letting two images of the same volume label be told apart.
func VolumeSerial() uint32 {
	return rand.Uint32()
}

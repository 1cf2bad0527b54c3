package fat

import "encoding/binary"

// Directory entry attribute bits (fatgen103.doc §6, DIR_Attr).
const (
	AttrReadOnly  = 0x01
	AttrHidden    = 0x02
	AttrSystem    = 0x04
	AttrVolumeID  = 0x08
	AttrDirectory = 0x10
	AttrArchive   = 0x20
	AttrLongName  = 0x0F
)

// Offsets within a 32-byte directory entry (fatgen103.doc §6).
const (
	direntShortName      = 0
	direntAttrib         = 11
	direntReserved       = 12
	direntCrtTimeTenth   = 13
	direntCrtTime        = 14
	direntCrtDate        = 16
	direntLastAccessDate = 18
	direntFirstClusterHi = 20
	direntWrtTime        = 22
	direntWrtDate        = 24
	direntFirstClusterLo = 26
	direntSize           = 28
)

// BuildDirEntry writes one 32-byte FAT directory entry. Time/date fields
// are always left zero; this project never stamps directory entries.
func BuildDirEntry(shortName [11]byte, attrib byte, cluster uint32, size uint32) [32]byte {
	var e [32]byte
	copy(e[direntShortName:], shortName[:])
	e[direntAttrib] = attrib
	binary.LittleEndian.PutUint16(e[direntFirstClusterHi:], uint16(cluster>>16))
	binary.LittleEndian.PutUint16(e[direntFirstClusterLo:], uint16(cluster))
	binary.LittleEndian.PutUint32(e[direntSize:], size)
	return e
}

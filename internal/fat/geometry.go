// Package fat implements the FAT formatter: FAT16/FAT32 auto-selection,
// BPB/FSInfo construction, FAT table synthesis from a depth-first walk of a
// logical FS tree, and directory/file emission.
//
// Byte offsets for the BPB, extended BPBs and FSInfo follow Microsoft's
// "FAT32 File System Specification" (fatgen103.doc); cluster/LBA math
// (cluster-to-sector, FAT size, first data sector) follows the same
// document's reference computation. Fields are serialized with explicit
// byte-slice writes rather than struct-tag-based packing, matching how the
// UEFI specification's own appendices present these structures field by
// field.
package fat

import "github.com/efibootgen/efibootgen/internal/status"

// Width is the FAT entry width this project supports: 16 or 32 bits. FAT12
// is not supported.
type Width int

const (
	Width16 Width = 16
	Width32 Width = 32
)

const (
	SectorSize     = 512
	DirEntrySize   = 32
	BootSectorSize = 512
	FSInfoSize     = 512

	fat32Boundary    = 0x20000000 // 512 MiB
	mediaDescriptor  = 0xF8
	numFATs          = 2
	extBootSignature = 0x29
)

// SelectWidth picks FAT16 below the 512 MiB boundary, FAT32 at or above it.
func SelectWidth(partitionBytes uint64) Width {
	if partitionBytes < fat32Boundary {
		return Width16
	}
	return Width32
}

// headsForCapacity implements the CHS-compatibility capacity ladder from
// fatgen103.doc's reference formatter. UEFI never consults CHS; this exists
// purely so the BPB carries a plausible legacy geometry.
func headsForCapacity(partitionBytes uint64) uint16 {
	switch {
	case partitionBytes <= 0x1F800000:
		return 16
	case partitionBytes <= 0x3F000000:
		return 32
	case partitionBytes <= 0x7E000000:
		return 64
	case partitionBytes <= 0xFC000000:
		return 128
	default:
		return 255
	}
}

func sectorsPerCluster16(totalSectors uint64) uint8 {
	switch {
	case totalSectors <= 262144:
		return 4
	case totalSectors <= 524288:
		return 8
	default:
		return 16
	}
}

func sectorsPerCluster32(totalSectors uint64) uint8 {
	switch {
	case totalSectors <= 16777216:
		return 8
	case totalSectors <= 33554432:
		return 16
	case totalSectors <= 67108864:
		return 32
	default:
		return 64
	}
}

// Geometry holds every computed BPB field plus the derived cluster-layout
// values the FAT table and directory/file emission need.
type Geometry struct {
	Width             Width
	SectorsPerCluster uint8
	ReservedSectors   uint16
	NumFATs           uint8
	RootEntryCount    uint16
	RootDirSectors    uint16
	TotalSectors      uint64
	SectorsPerFAT     uint32
	Heads             uint16
	HiddenSectors     uint32
	VolumeLabel       [11]byte
	VolumeSerial      uint32
	RootCluster       uint32 // FAT32 only
	FSInfoSector      uint16 // FAT32 only
	FirstDataLBA      uint64
}

func (g Geometry) bytesPerCluster() uint32 {
	return uint32(g.SectorsPerCluster) * SectorSize
}

// entryByteWidth is the on-disk size of one FAT entry: 2 bytes for FAT16,
// 4 bytes for FAT32.
func (g Geometry) entryByteWidth() int {
	if g.Width == Width32 {
		return 4
	}
	return 2
}

// ClusterToLBA maps a data cluster number (>=2) to its partition-relative
// starting LBA (fatgen103.doc §3, "Sector, Cluster and Partition Calculations").
func (g Geometry) ClusterToLBA(cluster uint32) uint64 {
	return g.FirstDataLBA + uint64(cluster-2)*uint64(g.SectorsPerCluster)
}

// ComputeGeometry derives the full BPB/cluster geometry for a partition of
// partitionSectors total sectors, following fatgen103.doc's BPB field
// derivation and FAT-size approximation.
func ComputeGeometry(partitionSectors uint64, hiddenSectors uint32, volumeLabel [11]byte, volumeSerial uint32) (Geometry, error) {
	if partitionSectors == 0 {
		return Geometry{}, status.FailedPrecondition("FAT formatter invoked with zero sectors")
	}
	partitionBytes := partitionSectors * SectorSize
	width := SelectWidth(partitionBytes)

	g := Geometry{
		Width:         width,
		NumFATs:       numFATs,
		TotalSectors:  partitionSectors,
		Heads:         headsForCapacity(partitionBytes),
		HiddenSectors: hiddenSectors,
		VolumeLabel:   volumeLabel,
		VolumeSerial:  volumeSerial,
	}

	var rootDirSectorCount uint16
	if width == Width16 {
		g.SectorsPerCluster = sectorsPerCluster16(partitionSectors)
		g.ReservedSectors = 1
		g.RootEntryCount = 512
		rootDirSectorCount = uint16(uint32(g.RootEntryCount) * DirEntrySize / SectorSize)
	} else {
		g.SectorsPerCluster = sectorsPerCluster32(partitionSectors)
		g.ReservedSectors = 32
		g.RootEntryCount = 0
		rootDirSectorCount = 0
		g.RootCluster = 2
		g.FSInfoSector = 1
	}
	g.RootDirSectors = rootDirSectorCount

	tmp1 := partitionSectors - (uint64(g.ReservedSectors) + uint64(rootDirSectorCount))
	tmp2 := uint64(256)*uint64(g.SectorsPerCluster) + uint64(numFATs)
	if width == Width32 {
		tmp2 /= 2
	}
	sectorsPerFAT := (tmp1 + tmp2 - 1) / tmp2
	g.SectorsPerFAT = uint32(sectorsPerFAT)

	g.FirstDataLBA = uint64(g.ReservedSectors) + uint64(g.NumFATs)*uint64(g.SectorsPerFAT) + uint64(rootDirSectorCount)

	return g, nil
}

package fat

import "encoding/binary"

const oemName = "jOSX 64 "

// Offsets within the 512-byte boot sector, named after the field names in
// Microsoft's "FAT32 File System Specification" (fatgen103.doc) §3.
const (
	offJmpBoot    = 0
	offOEMName    = 3
	offBytsPerSec = 11
	offSecPerClus = 13
	offRsvdSecCnt = 14
	offNumFATs    = 16
	offRootEntCnt = 17
	offTotSec16   = 19
	offMedia      = 21
	offFATSz16    = 22
	offSecPerTrk  = 24
	offNumHeads   = 26
	offHiddSec    = 28
	offTotSec32   = 32

	// FAT16 extended BPB.
	off16DrvNum     = 36
	off16BootSig    = 38
	off16VolID      = 39
	off16VolLab     = 43
	off16FilSysType = 54

	// FAT32 extended BPB.
	off32FATSz32    = 36
	off32ExtFlags   = 40
	off32FSVer      = 42
	off32RootClus   = 44
	off32FSInfo     = 48
	off32BkBootSec  = 50
	off32DrvNum     = 64
	off32BootSig    = 66
	off32VolID      = 67
	off32VolLab     = 71
	off32FilSysType = 82

	offSignature = 510
)

// BuildBootSector writes the 512-byte FAT boot sector for g: the common
// BPB at offset 11, followed immediately by the FAT16 or FAT32 extended
// BPB, per fatgen103.doc §3.
func BuildBootSector(g Geometry) []byte {
	b := make([]byte, BootSectorSize)

	b[offJmpBoot] = 0xE9
	copy(b[offOEMName:], oemName)

	binary.LittleEndian.PutUint16(b[offBytsPerSec:], SectorSize)
	b[offSecPerClus] = g.SectorsPerCluster
	binary.LittleEndian.PutUint16(b[offRsvdSecCnt:], g.ReservedSectors)
	b[offNumFATs] = g.NumFATs
	binary.LittleEndian.PutUint16(b[offRootEntCnt:], g.RootEntryCount)

	var totSec16 uint16
	var totSec32 uint32
	if g.TotalSectors < 0x1000 {
		totSec16 = uint16(g.TotalSectors & 0xFFFF)
	} else {
		totSec32 = uint32(g.TotalSectors)
	}
	binary.LittleEndian.PutUint16(b[offTotSec16:], totSec16)
	b[offMedia] = mediaDescriptor

	var fatSz16 uint16
	if g.Width == Width16 {
		fatSz16 = uint16(g.SectorsPerFAT)
	}
	binary.LittleEndian.PutUint16(b[offFATSz16:], fatSz16)

	binary.LittleEndian.PutUint16(b[offSecPerTrk:], 63)
	binary.LittleEndian.PutUint16(b[offNumHeads:], g.Heads)
	binary.LittleEndian.PutUint32(b[offHiddSec:], g.HiddenSectors)
	binary.LittleEndian.PutUint32(b[offTotSec32:], totSec32)

	if g.Width == Width16 {
		b[off16DrvNum] = 0x80
		b[off16BootSig] = extBootSignature
		binary.LittleEndian.PutUint32(b[off16VolID:], g.VolumeSerial)
		copy(b[off16VolLab:], g.VolumeLabel[:])
		copy(b[off16FilSysType:], "FAT16   ")
	} else {
		binary.LittleEndian.PutUint32(b[off32FATSz32:], g.SectorsPerFAT)
		binary.LittleEndian.PutUint16(b[off32ExtFlags:], 0x0080)
		binary.LittleEndian.PutUint16(b[off32FSVer:], 0)
		binary.LittleEndian.PutUint32(b[off32RootClus:], g.RootCluster)
		binary.LittleEndian.PutUint16(b[off32FSInfo:], g.FSInfoSector)
		binary.LittleEndian.PutUint16(b[off32BkBootSec:], 0)
		b[off32DrvNum] = 0x80
		b[off32BootSig] = extBootSignature
		binary.LittleEndian.PutUint32(b[off32VolID:], g.VolumeSerial)
		copy(b[off32VolLab:], g.VolumeLabel[:])
		copy(b[off32FilSysType:], "FAT32   ")
	}

	b[offSignature] = 0x55
	b[offSignature+1] = 0xAA
	return b
}

// FAT32 FSInfo sector signatures (fatgen103.doc §5, "FSINFO").
const (
	fsiLeadSig  = 0x41615252
	fsiStrucSig = 0x61417272
	fsiTrailSig = 0xAA550000

	offFSILeadSig  = 0
	offFSIStrucSig = 484
	offFSIFreeCnt  = 488
	offFSINxtFree  = 492
	offFSITrailSig = 508
)

// BuildFSInfo writes the 512-byte FAT32 FSInfo sector. Free/next-free
// counts are left zero: a freshly formatted volume has never cached either
// hint, and firmware/OS drivers recompute both by scanning the FAT on first
// mount when they find zero here.
func BuildFSInfo() []byte {
	b := make([]byte, FSInfoSize)
	binary.LittleEndian.PutUint32(b[offFSILeadSig:], fsiLeadSig)
	binary.LittleEndian.PutUint32(b[offFSIStrucSig:], fsiStrucSig)
	binary.LittleEndian.PutUint32(b[offFSIFreeCnt:], 0)
	binary.LittleEndian.PutUint32(b[offFSINxtFree:], 0)
	binary.LittleEndian.PutUint32(b[offFSITrailSig:], fsiTrailSig)
	return b
}

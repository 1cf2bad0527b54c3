package fat

import (
	"encoding/binary"

	"github.com/efibootgen/efibootgen/internal/fstree"
	"github.com/efibootgen/efibootgen/internal/sectorio"
	"github.com/efibootgen/efibootgen/internal/status"
)

func eocMarker(w Width) uint32 {
	if w == Width32 {
		return 0x0FFFFFF8
	}
	return 0xFFF8
}

func reservedEntry0(w Width) uint32 {
	if w == Width32 {
		return 0x0FFFFF00 | mediaDescriptor
	}
	return 0xFF00 | mediaDescriptor
}

// buildFAT performs a single depth-first walk of tree, generalized over FAT
// width so FAT16 and FAT32 share one allocation path instead of diverging
// for wide entries. It assigns every directory and file's StartCluster in
// tree and returns the in-memory FAT entries (width-independent; widened
// to uint32 regardless of on-disk width, narrowed by writeFATCopies).
func buildFAT(tree *fstree.Tree, g Geometry) ([]uint32, error) {
	entriesPerSector := SectorSize / g.entryByteWidth()
	totalEntries := int(g.SectorsPerFAT) * entriesPerSector
	if totalEntries < 2 {
		return nil, status.FailedPrecondition("FAT region too small to hold reserved entries")
	}
	fatEntries := make([]uint32, totalEntries)
	fatEntries[0] = reservedEntry0(g.Width)
	fatEntries[1] = eocMarker(g.Width)

	nextFree := uint32(2)
	root := tree.Node(fstree.RootIndex)
	if g.Width == Width32 {
		root.StartCluster = g.RootCluster
		if err := setFATEntry(fatEntries, g.RootCluster, eocMarker(g.Width)); err != nil {
			return nil, err
		}
		nextFree = g.RootCluster + 1
	}

	bytesPerCluster := g.bytesPerCluster()
	var walk func(dirIdx int) error
	walk = func(dirIdx int) error {
		children := tree.SortedChildren(dirIdx)
		entryCount := len(children)
		if dirIdx != fstree.RootIndex {
			entryCount += 2 // synthetic "." and ".."
		} else {
			entryCount += 1 // volume label
		}
		if uint32(entryCount)*DirEntrySize > bytesPerCluster && dirIdx != fstree.RootIndex {
			return status.InvalidArgument("directory has too many entries to fit in one cluster")
		}
		if dirIdx == fstree.RootIndex && g.Width == Width16 && entryCount > int(g.RootEntryCount) {
			return status.InvalidArgument("root directory has too many entries for its fixed region")
		}

		for _, childIdx := range children {
			child := tree.Node(childIdx)
			if child.Kind == fstree.KindDir {
				start := nextFree
				child.StartCluster = start
				if err := setFATEntry(fatEntries, start, eocMarker(g.Width)); err != nil {
					return err
				}
				nextFree++
				if err := walk(childIdx); err != nil {
					return err
				}
				continue
			}

			if child.Size == 0 {
				child.StartCluster = 0
				continue
			}
			numClusters := (uint32(child.Size) + bytesPerCluster - 1) / bytesPerCluster
			start := nextFree
			child.StartCluster = start
			for i := uint32(0); i < numClusters; i++ {
				cur := start + i
				var val uint32
				if i == numClusters-1 {
					val = eocMarker(g.Width)
				} else {
					val = cur + 1
				}
				if err := setFATEntry(fatEntries, cur, val); err != nil {
					return err
				}
			}
			nextFree += numClusters
		}
		return nil
	}
	if err := walk(fstree.RootIndex); err != nil {
		return nil, err
	}
	return fatEntries, nil
}

func setFATEntry(fat []uint32, cluster uint32, val uint32) error {
	if int(cluster) >= len(fat) {
		return status.FailedPrecondition("FS tree requires more clusters than the partition has room for")
	}
	fat[cluster] = val
	return nil
}

// writeFATCopies writes NumFATs identical on-disk copies of fat,
// sector-by-sector, starting at ReservedSectors, as fatgen103.doc requires:
// every FAT copy must be kept in sync, not just the first.
func writeFATCopies(w *sectorio.Writer, g Geometry, fat []uint32) error {
	entryWidth := g.entryByteWidth()
	entriesPerSector := SectorSize / entryWidth
	lba := uint64(g.ReservedSectors)
	for copyIdx := uint8(0); copyIdx < g.NumFATs; copyIdx++ {
		for sec := uint32(0); sec < g.SectorsPerFAT; sec++ {
			buf := w.Scratch(1)
			base := sec * uint32(entriesPerSector)
			for i := 0; i < entriesPerSector; i++ {
				idx := int(base) + i
				var val uint32
				if idx < len(fat) {
					val = fat[idx]
				}
				if entryWidth == 2 {
					binary.LittleEndian.PutUint16(buf[i*2:], uint16(val))
				} else {
					binary.LittleEndian.PutUint32(buf[i*4:], val&0x0FFFFFFF)
				}
			}
			if err := w.WriteSectorAt(lba); err != nil {
				return err
			}
			lba++
		}
	}
	return nil
}

package fat

import (
	"strings"

	"github.com/efibootgen/efibootgen/internal/fstree"
	"github.com/efibootgen/efibootgen/internal/sectorio"
	"github.com/efibootgen/efibootgen/internal/status"
)

const entriesPerDirSector = SectorSize / DirEntrySize // 16

// normalizeLabel blank-pads label to the 11-byte BPB volume-label field,
// uppercasing unless preserveCase is set, truncating any label longer than
// 11 bytes.
func normalizeLabel(label string, preserveCase bool) [11]byte {
	if !preserveCase {
		label = strings.ToUpper(label)
	}
	var out [11]byte
	for i := range out {
		out[i] = ' '
	}
	copy(out[:], label)
	return out
}

// Format writes a complete FAT volume: given a partition-relative sector
// writer already positioned at the ESP's origin, the partition's sector
// count, and a populated logical FS tree, it selects FAT16 or FAT32,
// computes the BPB, writes the boot sector (and FSInfo for FAT32), writes
// NumFATs copies of the FAT, and writes the root directory and every
// subdirectory and file.
func Format(w *sectorio.Writer, partitionSectors uint64, hiddenSectors uint32, label string, preserveCase bool, volumeSerial uint32, tree *fstree.Tree) error {
	if !w.Good() {
		return status.FailedPrecondition("sector writer is not good")
	}
	if partitionSectors == 0 {
		return status.FailedPrecondition("FAT formatter invoked with zero sectors")
	}

	label11 := normalizeLabel(label, preserveCase)
	g, err := ComputeGeometry(partitionSectors, hiddenSectors, label11, volumeSerial)
	if err != nil {
		return err
	}

	fatEntries, err := buildFAT(tree, g)
	if err != nil {
		return err
	}

	bootSector := BuildBootSector(g)
	buf := w.Scratch(1)
	copy(buf, bootSector)
	if err := w.WriteSectorAt(0); err != nil {
		return status.Internal("writing boot sector: " + err.Error())
	}

	if g.Width == Width32 {
		fsinfo := BuildFSInfo()
		buf = w.Scratch(1)
		copy(buf, fsinfo)
		if err := w.WriteSectorAt(uint64(g.FSInfoSector)); err != nil {
			return status.Internal("writing FSInfo sector: " + err.Error())
		}
	}

	if err := writeFATCopies(w, g, fatEntries); err != nil {
		return status.Internal("writing FAT: " + err.Error())
	}

	if err := emitTree(w, g, tree, label11); err != nil {
		return status.Internal("writing directories and files: " + err.Error())
	}
	return nil
}

func rootDirLBA(g Geometry) uint64 {
	if g.Width == Width16 {
		return g.FirstDataLBA - uint64(g.RootDirSectors)
	}
	return g.ClusterToLBA(g.RootCluster)
}

func rootDirMaxSectors(g Geometry) int {
	if g.Width == Width16 {
		return int(g.RootDirSectors)
	}
	return int(g.SectorsPerCluster)
}

func childDirEntry(child *fstree.Entry) [32]byte {
	if child.Kind == fstree.KindDir {
		return BuildDirEntry(child.ShortName, AttrDirectory, child.StartCluster, 0)
	}
	return BuildDirEntry(child.ShortName, AttrArchive, child.StartCluster, uint32(child.Size))
}

func writeRootDirectory(w *sectorio.Writer, g Geometry, tree *fstree.Tree, label [11]byte) error {
	entries := make([][32]byte, 0, 1+len(tree.Node(fstree.RootIndex).Children))
	entries = append(entries, BuildDirEntry(label, AttrVolumeID, 0, 0))
	for _, idx := range tree.SortedChildren(fstree.RootIndex) {
		entries = append(entries, childDirEntry(tree.Node(idx)))
	}
	return writeEntries(w, entries, rootDirLBA(g), rootDirMaxSectors(g))
}

func writeDirectoryCluster(w *sectorio.Writer, g Geometry, tree *fstree.Tree, dirIdx int) error {
	dir := tree.Node(dirIdx)
	var dotdotCluster uint32
	if dir.Parent != fstree.RootIndex {
		dotdotCluster = tree.Node(dir.Parent).StartCluster
	}
	entries := make([][32]byte, 0, 2+len(dir.Children))
	entries = append(entries,
		BuildDirEntry(fstree.DotEntry(), AttrDirectory, dir.StartCluster, 0),
		BuildDirEntry(fstree.DotDotEntry(), AttrDirectory, dotdotCluster, 0),
	)
	for _, idx := range tree.SortedChildren(dirIdx) {
		entries = append(entries, childDirEntry(tree.Node(idx)))
	}
	return writeEntries(w, entries, g.ClusterToLBA(dir.StartCluster), int(g.SectorsPerCluster))
}

func writeEntries(w *sectorio.Writer, entries [][32]byte, startLBA uint64, maxSectors int) error {
	needed := (len(entries) + entriesPerDirSector - 1) / entriesPerDirSector
	if needed > maxSectors {
		return status.InvalidArgument("directory has too many entries for its allocated region")
	}
	for sec := 0; sec < maxSectors; sec++ {
		buf := w.Scratch(1)
		base := sec * entriesPerDirSector
		for i := 0; i < entriesPerDirSector; i++ {
			idx := base + i
			if idx < len(entries) {
				copy(buf[i*DirEntrySize:], entries[idx][:])
			}
		}
		if err := w.WriteSectorAt(startLBA + uint64(sec)); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(w *sectorio.Writer, g Geometry, file *fstree.Entry) error {
	if file.Size == 0 {
		return nil
	}
	bytesPerCluster := g.bytesPerCluster()
	numClusters := (uint32(file.Size) + bytesPerCluster - 1) / bytesPerCluster
	data := file.Data
	for i := uint32(0); i < numClusters; i++ {
		buf := w.Scratch(int(g.SectorsPerCluster))
		start := i * bytesPerCluster
		end := start + bytesPerCluster
		if end > uint32(len(data)) {
			end = uint32(len(data))
		}
		copy(buf, data[start:end])
		lba := g.ClusterToLBA(file.StartCluster + i)
		if err := w.WriteSectorsAt(lba, int(g.SectorsPerCluster)); err != nil {
			return err
		}
	}
	return nil
}

// emitTree writes the root directory, then every non-root directory's
// cluster and every file's data, in the same depth-first order buildFAT
// walked. Write order across distinct, non-overlapping LBA ranges has no
// effect on the emitted bytes, only on wall-clock sequencing.
func emitTree(w *sectorio.Writer, g Geometry, tree *fstree.Tree, label [11]byte) error {
	if err := writeRootDirectory(w, g, tree, label); err != nil {
		return err
	}
	var walk func(dirIdx int) error
	walk = func(dirIdx int) error {
		for _, childIdx := range tree.SortedChildren(dirIdx) {
			child := tree.Node(childIdx)
			if child.Kind == fstree.KindDir {
				if err := writeDirectoryCluster(w, g, tree, childIdx); err != nil {
					return err
				}
				if err := walk(childIdx); err != nil {
					return err
				}
				continue
			}
			if err := writeFile(w, g, child); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(fstree.RootIndex)
}

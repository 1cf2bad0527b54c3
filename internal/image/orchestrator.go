// Package image implements the top-level image orchestrator: it opens or
// reuses the output file, zero-fills it unless reused, and drives the GPT engine and FAT
// formatter over it in sequence.
package image

import (
	"log"
	"os"

	"github.com/efibootgen/efibootgen/internal/fat"
	"github.com/efibootgen/efibootgen/internal/fstree"
	"github.com/efibootgen/efibootgen/internal/gpt"
	"github.com/efibootgen/efibootgen/internal/guid"
	"github.com/efibootgen/efibootgen/internal/sectorio"
	"github.com/efibootgen/efibootgen/internal/status"
)

// MinImageBytes is the smallest image this project ever produces.
const MinImageBytes = 128 * 1024 * 1024

// Options collects the process-wide flags threaded through every component
// as an explicit value rather than as module-level mutable state.
type Options struct {
	OutputPath   string
	Label        string
	PreserveCase bool
	Reformat     bool
	Verbose      bool
}

// TargetSize computes the image capacity: the logical tree's content size
// rounded up to 128 MiB, then up to the sector size.
func TargetSize(contentBytes int64) uint64 {
	capacity := contentBytes
	if capacity < MinImageBytes {
		capacity = MinImageBytes
	}
	capacity = roundUp(capacity, MinImageBytes)
	capacity = roundUp(capacity, sectorio.SectorSize)
	return uint64(capacity)
}

func roundUp(n, multiple int64) int64 {
	return ((n + multiple - 1) / multiple) * multiple
}

// Build computes the target size, opens or reuses the output file,
// zero-fills it unless an existing image is reused, writes the GPT, and
// formats the ESP with tree's contents.
func Build(opts Options, tree *fstree.Tree) error {
	target := TargetSize(tree.ContentBytes())
	totalSectors := target / sectorio.SectorSize

	f, reused, err := openOutput(opts.OutputPath, opts.Reformat, target)
	if err != nil {
		return err
	}
	defer f.Close()

	w := sectorio.New(f)
	if !reused {
		if opts.Verbose {
			log.Printf("efibootgen: zero-filling %d sectors", totalSectors)
		}
		if err := w.ZeroFill(totalSectors); err != nil {
			return status.Internal("zero-filling output file: " + err.Error())
		}
	} else if opts.Verbose {
		log.Printf("efibootgen: reusing existing image, skipping zero-fill")
	}

	if opts.Verbose {
		log.Printf("efibootgen: writing GPT")
	}
	window, err := gpt.WriteGPT(w)
	if err != nil {
		return err
	}

	w.SetOrigin(window.FirstUsableLBA)
	partitionSectors := window.LastUsableLBA - window.FirstUsableLBA
	serial := guid.VolumeSerial()
	if opts.Verbose {
		log.Printf("efibootgen: formatting ESP (%d sectors)", partitionSectors)
	}
	if err := fat.Format(w, partitionSectors, uint32(window.FirstUsableLBA), opts.Label, opts.PreserveCase, serial, tree); err != nil {
		return err
	}

	if err := f.Sync(); err != nil {
		return status.Internal("flushing output file: " + err.Error())
	}
	return nil
}

// openOutput opens the output file, reusing it in place ("reformat mode")
// when it already exists and is at least target bytes; otherwise it is
// created/truncated to exactly target bytes.
func openOutput(path string, reformat bool, target uint64) (f *os.File, reused bool, err error) {
	if reformat {
		if fi, statErr := os.Stat(path); statErr == nil && uint64(fi.Size()) >= target {
			f, err = os.OpenFile(path, os.O_RDWR, 0o644)
			if err != nil {
				return nil, false, status.NotFound("opening existing output file: " + err.Error())
			}
			return f, true, nil
		}
	}
	f, err = os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, false, status.NotFound("creating output file: " + err.Error())
	}
	if err := f.Truncate(int64(target)); err != nil {
		f.Close()
		return nil, false, status.NotFound("truncating output file: " + err.Error())
	}
	return f, false, nil
}

// Package cmd implements the command-line surface: a single cobra command
// whose RunE validates flags, builds the logical FS tree, and hands off to
// the image orchestrator.
package cmd

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/efibootgen/efibootgen/internal/fstree"
	"github.com/efibootgen/efibootgen/internal/image"
	"github.com/efibootgen/efibootgen/internal/status"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var flags struct {
	bootPayload  string
	sourceDir    string
	output       string
	label        string
	preserveCase bool
	reformat     bool
	verbose      bool
}

var RootCmd = &cobra.Command{
	Use:   "efibootgen",
	Short: "synthesize a bootable UEFI disk image (protective MBR + GPT + FAT ESP)",
	Long: `efibootgen writes a single output file containing a protective Master
Boot Record, a primary and backup GUID Partition Table, and an EFI System
Partition formatted with FAT16 or FAT32, populated either from a directory
tree or from a single BOOTX64.EFI payload.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          run,
}

func init() {
	registerFlags(RootCmd.Flags())
}

func registerFlags(f *pflag.FlagSet) {
	f.StringVarP(&flags.bootPayload, "boot", "b", "", "path to a BOOTX64.EFI payload (canonical EFI/BOOT/BOOTX64.EFI layout)")
	f.StringVarP(&flags.sourceDir, "dir", "d", "", "populate the ESP from this host directory tree")
	f.StringVarP(&flags.output, "output", "o", "", "output image path (required)")
	f.StringVarP(&flags.label, "label", "l", "NOLABEL", "volume label")
	f.BoolVarP(&flags.preserveCase, "preserve-case", "c", false, "preserve entry name case instead of uppercasing")
	f.BoolVarP(&flags.reformat, "reformat", "f", false, "reuse an existing image file if it is already large enough")
	f.BoolVarP(&flags.verbose, "verbose", "v", false, "verbose logging")
}

func run(c *cobra.Command, args []string) error {
	if flags.bootPayload != "" && flags.sourceDir != "" {
		return status.InvalidArgument("-b and -d are mutually exclusive")
	}
	if flags.output == "" {
		return status.InvalidArgument("-o is required")
	}

	tree := fstree.New(flags.preserveCase)
	switch {
	case flags.bootPayload != "":
		if err := populateFromBootPayload(tree, flags.bootPayload); err != nil {
			return err
		}
	case flags.sourceDir != "":
		if err := tree.CreateFromSource(fstree.RootIndex, flags.sourceDir); err != nil {
			return err
		}
	}

	opts := image.Options{
		OutputPath:   flags.output,
		Label:        flags.label,
		PreserveCase: flags.preserveCase,
		Reformat:     flags.reformat,
		Verbose:      flags.verbose,
	}
	return image.Build(opts, tree)
}

// populateFromBootPayload builds the canonical EFI/BOOT/BOOTX64.EFI layout
// UEFI firmware looks for when no boot entry is configured: directories EFI
// then BOOT, holding the given payload as BOOTX64.EFI.
func populateFromBootPayload(tree *fstree.Tree, path string) error {
	if !strings.EqualFold(filepath.Base(path), "BOOTX64.EFI") {
		return status.InvalidArgument(fmt.Sprintf("boot payload %q must be named BOOTX64.EFI", path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return status.Unavailable("reading boot payload " + path + ": " + err.Error())
	}
	efiDir, err := tree.CreateDirectory(fstree.RootIndex, "EFI")
	if err != nil {
		return err
	}
	bootDir, err := tree.CreateDirectory(efiDir, "BOOT")
	if err != nil {
		return err
	}
	_, err = tree.CreateFile(bootDir, "BOOTX64.EFI", data)
	return err
}

// Execute runs the root command, exiting non-zero on any error: all errors
// here are fatal and surface to the caller as a single exit code with a
// message.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

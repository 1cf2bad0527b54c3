package cmd

import (
	"path/filepath"
	"testing"

	"github.com/efibootgen/efibootgen/internal/status"
)

func resetFlags() {
	flags.bootPayload = ""
	flags.sourceDir = ""
	flags.output = ""
	flags.label = "NOLABEL"
	flags.preserveCase = false
	flags.reformat = false
	flags.verbose = false
}

func TestRunRejectsMutuallyExclusiveFlags(t *testing.T) {
	resetFlags()
	defer resetFlags()
	flags.bootPayload = "a.efi"
	flags.sourceDir = "somedir"
	flags.output = filepath.Join(t.TempDir(), "out.img")

	err := run(RootCmd, nil)
	if !status.IsInvalidArgument(err) {
		t.Errorf("run() with both -b and -d = %v, want an InvalidArgument error", err)
	}
}

func TestRunRequiresOutput(t *testing.T) {
	resetFlags()
	defer resetFlags()

	err := run(RootCmd, nil)
	if !status.IsInvalidArgument(err) {
		t.Errorf("run() with no -o = %v, want an InvalidArgument error", err)
	}
}

func TestPopulateFromBootPayloadRejectsWrongName(t *testing.T) {
	err := populateFromBootPayload(nil, "/tmp/notboot.efi")
	if !status.IsInvalidArgument(err) {
		t.Errorf("populateFromBootPayload with wrong name = %v, want an InvalidArgument error", err)
	}
}

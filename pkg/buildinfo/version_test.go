package buildinfo

import (
	"strings"
	"testing"

	"github.com/matzehuels/pepedot/pkg/archive"
)

func TestArchiveFormat(t *testing.T) {
	if ArchiveFormat != archive.FormatVersion {
		t.Errorf("ArchiveFormat = %d, archive writes format %d", ArchiveFormat, archive.FormatVersion)
	}
}

func TestTemplate(t *testing.T) {
	got := Template()
	for _, want := range []string{"{{.Name}} version " + Version, "commit: " + Commit, "archive format: 3"} {
		if !strings.Contains(got, want) {
			t.Errorf("Template() = %q, missing %q", got, want)
		}
	}
	if !strings.HasPrefix(String(), "version: "+Version) {
		t.Errorf("String() = %q", String())
	}
}

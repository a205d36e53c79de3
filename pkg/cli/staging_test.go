package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
)

func TestLoadStagedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Manual.PDF")
	gt.NoError(t, os.WriteFile(path, []byte("%PDF-1.7"), 0o644))

	file, err := loadStagedFile(path)
	gt.NoError(t, err)
	gt.V(t, file.Name).Equal("Manual.PDF")
	gt.V(t, file.MIMEType).Equal("application/pdf")
	gt.V(t, file.Size()).Equal(8)
}

func TestLoadStagedFileRejectsUnsupportedType(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{"photo.png", "archive.zip", "noext"} {
		path := filepath.Join(dir, name)
		gt.NoError(t, os.WriteFile(path, []byte("data"), 0o644))

		_, err := loadStagedFile(path)
		gt.Error(t, err)
		gt.S(t, err.Error()).Contains("unsupported file type")
	}
}

func TestLoadStagedFileMissing(t *testing.T) {
	_, err := loadStagedFile(filepath.Join(t.TempDir(), "gone.txt"))
	gt.Error(t, err)
}

package util

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

// chdir changes the working directory for the duration of the test,
// mirroring testing.T.Chdir which requires Go 1.24+.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Fatal(err)
		}
	})
}

func TestArchiveDirectory(t *testing.T) {
	t.Run("success - directory files end up in the archive", func(t *testing.T) {
		// arrange
		chdir(t, t.TempDir())
		if err := os.Mkdir("artifacts", 0o755); err != nil {
			t.Fatal(err)
		}
		dir := filepath.Join("artifacts", "7")
		if err := os.Mkdir(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, "report.txt"), []byte("ok"), 0o644); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, "app.bin"), []byte("bin"), 0o644); err != nil {
			t.Fatal(err)
		}

		// act
		name, err := ArchiveDirectory(dir)

		// assert
		assert.NoError(t, err)
		assert.Equal(t, filepath.Join("artifacts", "7.zip"), name)
		zr, err := zip.OpenReader(name)
		assert.NoError(t, err)
		defer zr.Close()
		assert.Len(t, zr.File, 2)
	})
	t.Run("failure - unreadable file fails the archive", func(t *testing.T) {
		// arrange
		chdir(t, t.TempDir())
		if err := os.Mkdir("artifacts", 0o755); err != nil {
			t.Fatal(err)
		}
		dir := filepath.Join("artifacts", "8")
		if err := os.Mkdir(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.Symlink("does-not-exist", filepath.Join(dir, "broken")); err != nil {
			t.Fatal(err)
		}

		// act
		name, err := ArchiveDirectory(dir)

		// assert
		assert.Error(t, err)
		assert.Empty(t, name)
	})
}

// Package storage keeps uploaded files on local disk.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Disk struct {
	dir string
	now func() time.Time
}

// NewDisk creates dir if needed.
func NewDisk(dir string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload directory %s: %w", dir, err)
	}
	return &Disk{dir: dir, now: time.Now}, nil
}

// Save writes data under a name derived from the upload time and the
// original file name and returns that stored name. The write goes to a
// temporary file first, so a partially written upload never appears.
func (d *Disk) Save(original string, data []byte) (string, error) {
	name := StoredName(d.now(), original)
	tmp, err := os.CreateTemp(d.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing upload: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(d.dir, name)); err != nil {
		return "", fmt.Errorf("storing upload as %s: %w", name, err)
	}
	return name, nil
}

// Path returns the on-disk location of a stored name.
func (d *Disk) Path(stored string) string {
	return filepath.Join(d.dir, filepath.Base(stored))
}

// StoredName formats "<unix millis>-<base name>". Directory components are
// dropped and an empty name becomes "upload".
func StoredName(t time.Time, original string) string {
	base := filepath.Base(strings.ReplaceAll(original, "\\", "/"))
	base = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f || r == '/' {
			return -1
		}
		return r
	}, base)
	if base == "" || base == "." || base == ".." {
		base = "upload"
	}
	return strconv.FormatInt(t.UnixMilli(), 10) + "-" + base
}

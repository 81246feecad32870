package storage

import (
	"os"
	"testing"
	"time"
)

func TestStoredName(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	tests := []struct {
		in   string
		want string
	}{
		{"notes.pdf", "1700000000123-notes.pdf"},
		{"../../etc/passwd", "1700000000123-passwd"},
		{`C:\Users\me\lecture 3.pdf`, "1700000000123-lecture 3.pdf"},
		{"", "1700000000123-upload"},
		{"..", "1700000000123-upload"},
		{"bad\x00name.pdf", "1700000000123-badname.pdf"},
	}
	for _, tt := range tests {
		if got := StoredName(at, tt.in); got != tt.want {
			t.Errorf("StoredName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDiskSave(t *testing.T) {
	dir := t.TempDir()
	d, err := NewDisk(dir)
	if err != nil {
		t.Fatalf("NewDisk: %v", err)
	}
	d.now = func() time.Time { return time.UnixMilli(42) }

	name, err := d.Save("a.pdf", []byte("%PDF-1.4"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if name != "42-a.pdf" {
		t.Errorf("name: %q", name)
	}
	data, err := os.ReadFile(d.Path(name))
	if err != nil || string(data) != "%PDF-1.4" {
		t.Errorf("stored content: %q, %v", data, err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %d entries", len(entries))
	}
}

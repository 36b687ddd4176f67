package vfs

import (
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestDirectoryDriver(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "b.anim"), []byte("old content"), 0666); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "a"), 0777); err != nil {
		t.Fatal(err)
	}

	d := NewDirectoryDriver(dir)
	names, err := d.List()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(names, []string{"a", "b.anim"}) {
		t.Errorf("List = %v", names)
	}

	if _, err := DirectoryGetFile(d, "a"); err == nil {
		t.Errorf("directory returned as file")
	}
	for _, bad := range []string{"..", "a/../b.anim", ""} {
		if _, err := d.GetElement(bad); err == nil {
			t.Errorf("GetElement(%q) succeeded", bad)
		}
	}

	f, err := DirectoryGetFile(d, "b.anim")
	if err != nil {
		t.Fatal(err)
	}
	if err := OpenFileAndCopy(f, strings.NewReader("new")); err != nil {
		t.Fatalf("OpenFileAndCopy: %v", err)
	}

	r, err := OpenFileAndGetReader(f)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "new" || f.Size() != 3 {
		t.Errorf("file holds %q (%d bytes)", data, f.Size())
	}
	if err := f.Open(true); err == nil {
		t.Errorf("second Open succeeded")
	}
}

package testutil

import (
	"archive/zip"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

// jmodHeader prefixes the zip payload of a jmod file.
var jmodHeader = []byte{'J', 'M', 0x01, 0x00}

// WriteClassTree writes each class as <dir>/<name>.class, creating packages
// as directories, and returns dir.
func WriteClassTree(t *testing.T, dir string, classes map[string][]byte) string {
	t.Helper()
	for name, data := range classes {
		path := filepath.Join(dir, filepath.FromSlash(name)+".class")
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("failed to create package directory: %v", err)
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			t.Fatalf("failed to write class %s: %v", name, err)
		}
	}
	return dir
}

// WriteArchive writes a jar at path holding each class as <name>.class, or
// a jmod holding them under classes/ when jmod is set. Entries are written in
// name order.
func WriteArchive(t *testing.T, path string, classes map[string][]byte, jmod bool) string {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create archive: %v", err)
	}
	defer f.Close()

	root := ""
	if jmod {
		if _, err := f.Write(jmodHeader); err != nil {
			t.Fatalf("failed to write jmod header: %v", err)
		}
		root = "classes/"
	}

	names := make([]string, 0, len(classes))
	for name := range classes {
		names = append(names, name)
	}
	sort.Strings(names)

	// Offsets are counted from the start of the zip payload, as a jmod
	// requires.
	zw := zip.NewWriter(f)
	if _, err := zw.Create("META-INF/MANIFEST.MF"); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}
	for _, name := range names {
		w, err := zw.Create(root + name + ".class")
		if err != nil {
			t.Fatalf("failed to create entry %s: %v", name, err)
		}
		if _, err := w.Write(classes[name]); err != nil {
			t.Fatalf("failed to write entry %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to finish archive: %v", err)
	}
	return path
}

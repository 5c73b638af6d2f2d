package testutil

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// Document is a named document body for building test inputs.
type Document struct {
	Name string
	Body string
}

// ZipDocuments builds an in-memory zip archive holding docs in order.
func ZipDocuments(t *testing.T, docs ...Document) []byte {
	t.Helper()
	var buf bytes.Buffer
	zipWriter := zip.NewWriter(&buf)
	for _, d := range docs {
		w, err := zipWriter.Create(d.Name)
		if err != nil {
			t.Fatalf("Failed to create entry '%s' in zip: %v", d.Name, err)
		}
		if _, err := w.Write([]byte(d.Body)); err != nil {
			t.Fatalf("Failed to write entry '%s': %v", d.Name, err)
		}
	}
	if err := zipWriter.Close(); err != nil {
		t.Fatalf("Failed to finish zip: %v", err)
	}
	return buf.Bytes()
}

// WriteDocuments writes docs below dir and returns their paths.
func WriteDocuments(t *testing.T, dir string, docs ...Document) []string {
	t.Helper()
	paths := make([]string, 0, len(docs))
	for _, d := range docs {
		p := filepath.Join(dir, d.Name)
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatalf("Failed to create dir for '%s': %v", d.Name, err)
		}
		if err := os.WriteFile(p, []byte(d.Body), 0644); err != nil {
			t.Fatalf("Failed to write '%s': %v", d.Name, err)
		}
		paths = append(paths, p)
	}
	return paths
}

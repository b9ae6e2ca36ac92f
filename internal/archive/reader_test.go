package archive

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"pedimento-audit-service/pkg/errors"
)

// buildZip assembles an in-memory ZIP with the given name/content pairs
func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("Failed to create zip entry %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("Failed to write zip entry %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Failed to close zip writer: %v", err)
	}
	return buf.Bytes()
}

func TestReader_Read(t *testing.T) {
	data := buildZip(t, map[string]string{
		"MYIMPORT_501.txt": "3842|4017883|001",
		"MYIMPORT_551.txt": "3842|4017883|001|12345678",
	})

	reader := NewReader()
	entries, err := reader.Read(data)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}

	byName := make(map[string]string)
	for _, e := range entries {
		byName[e.Name] = string(e.Data)
	}
	if byName["MYIMPORT_501.txt"] != "3842|4017883|001" {
		t.Errorf("Unexpected content for 501 entry: %q", byName["MYIMPORT_501.txt"])
	}
}

func TestReader_Read_SkipsDirectories(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	if _, err := zw.Create("export/"); err != nil {
		t.Fatalf("Failed to create directory entry: %v", err)
	}
	w, err := zw.Create("export/MYIMPORT_505.txt")
	if err != nil {
		t.Fatalf("Failed to create file entry: %v", err)
	}
	w.Write([]byte("3842|4017883|001"))
	zw.Close()

	reader := NewReader()
	entries, err := reader.Read(buf.Bytes())
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	if entries[0].Name != "MYIMPORT_505.txt" {
		t.Errorf("Expected base name MYIMPORT_505.txt, got %s", entries[0].Name)
	}
}

func TestReader_Read_CorruptArchive(t *testing.T) {
	reader := NewReader()
	_, err := reader.Read([]byte("this is not a zip file"))
	if err == nil {
		t.Fatal("Expected error for corrupt archive")
	}

	auditErr, ok := errors.AsAuditError(err)
	if !ok {
		t.Fatalf("Expected AuditError, got %T", err)
	}
	if auditErr.Category != errors.CategoryArchive {
		t.Errorf("Expected archive category, got %s", auditErr.Category)
	}
}

func TestReader_ReadFile(t *testing.T) {
	data := buildZip(t, map[string]string{"501.txt": "3842|4017883|001"})

	dir := t.TempDir()
	archivePath := filepath.Join(dir, "export.zip")
	if err := os.WriteFile(archivePath, data, 0644); err != nil {
		t.Fatalf("Failed to write archive: %v", err)
	}

	reader := NewReader()
	entries, err := reader.ReadFile(archivePath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected 1 entry, got %d", len(entries))
	}
}

func TestReader_ReadFile_NotFound(t *testing.T) {
	reader := NewReader()
	_, err := reader.ReadFile("/nonexistent/export.zip")
	if err == nil {
		t.Fatal("Expected error for missing archive")
	}

	auditErr, ok := errors.AsAuditError(err)
	if !ok {
		t.Fatalf("Expected AuditError, got %T", err)
	}
	if auditErr.Code != errors.CodeArchiveNotFound {
		t.Errorf("Expected code %s, got %s", errors.CodeArchiveNotFound, auditErr.Code)
	}
}

func TestClassifyRecordCode(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		expected string
	}{
		{"underscore suffix with extension", "MYIMPORT_501.txt", "501"},
		{"dot suffix", "pedimento.505", "505"},
		{"bare code name", "551", "551"},
		{"bare code with extension", "551.txt", "551"},
		{"asc extension", "MYIMPORT_551.asc", "551"},
		{"dat extension", "EXPORT_701.dat", "701"},
		{"nested path", "export/MYIMPORT_501.txt", "501"},
		{"no pattern keeps cleaned name", "readme.txt", "readme"},
		{"unknown extension kept", "data.bin", "data.bin"},
		{"four digit suffix not a code", "MYIMPORT_5011.txt", "MYIMPORT_5011"},
		{"code not at end", "501_MYIMPORT.txt", "501_MYIMPORT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyRecordCode(tt.fileName); got != tt.expected {
				t.Errorf("ClassifyRecordCode(%q) = %q, want %q", tt.fileName, got, tt.expected)
			}
		})
	}
}

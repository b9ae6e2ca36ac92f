package datastage

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"pedimento-audit-service/pkg/errors"

	"github.com/shopspring/decimal"
)

// buildArchive assembles an in-memory ZIP from ordered name/content pairs
func buildArchive(t *testing.T, entries [][2]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e[0])
		if err != nil {
			t.Fatalf("Failed to create entry %s: %v", e[0], err)
		}
		if _, err := w.Write([]byte(e[1])); err != nil {
			t.Fatalf("Failed to write entry %s: %v", e[0], err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Failed to close zip writer: %v", err)
	}
	return buf.Bytes()
}

func TestProcessorConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		chunkSize int
		wantErr   bool
	}{
		{"default size", 5, false},
		{"size one", 1, false},
		{"zero size", 0, true},
		{"negative size", -3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &ProcessorConfig{ChunkSize: tt.chunkSize}
			err := config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewProcessor_NilConfigUsesDefaults(t *testing.T) {
	p, err := NewProcessor(nil)
	if err != nil {
		t.Fatalf("NewProcessor(nil) error = %v", err)
	}
	if p.config.ChunkSize != 5 {
		t.Errorf("Expected default chunk size 5, got %d", p.config.ChunkSize)
	}
}

func TestProcessor_Process(t *testing.T) {
	data := buildArchive(t, [][2]string{
		{"MYIMPORT_501.txt", general501Line},
		{"MYIMPORT_505.txt", invoice505Line},
		{"MYIMPORT_551.txt", item551Line},
		{"MYIMPORT_509.txt", "3842|4017883|001|1|0.16|1"},
	})

	p, err := NewProcessor(nil)
	if err != nil {
		t.Fatalf("NewProcessor() error = %v", err)
	}

	result, err := p.Process(context.Background(), data)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if len(result.Declarations) != 1 {
		t.Fatalf("Expected 1 declaration, got %d", len(result.Declarations))
	}

	d := result.Declarations[0]
	if d.ID() != "3842-4017883-001" {
		t.Errorf("Expected declaration 3842-4017883-001, got %s", d.ID())
	}
	if len(d.Invoices) != 1 || len(d.Items) != 1 {
		t.Errorf("Expected 1 invoice and 1 item, got %d and %d", len(d.Invoices), len(d.Items))
	}
	if !d.TotalValueUsd.Equal(decimal.NewFromInt(2510)) {
		t.Errorf("Expected total 2510, got %s", d.TotalValueUsd.String())
	}

	if len(result.Raw) != 4 {
		t.Errorf("Expected 4 raw record files, got %d", len(result.Raw))
	}
}

func TestProcessor_Process_HeaderAfterItems(t *testing.T) {
	// Items enumerate before their header; linking must still attach them
	data := buildArchive(t, [][2]string{
		{"MYIMPORT_551.txt", item551Line},
		{"MYIMPORT_501.txt", general501Line},
	})

	p, _ := NewProcessor(&ProcessorConfig{ChunkSize: 1})
	result, err := p.Process(context.Background(), data)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if len(result.Declarations) != 1 {
		t.Fatalf("Expected 1 declaration, got %d", len(result.Declarations))
	}
	if len(result.Declarations[0].Items) != 1 {
		t.Errorf("Expected item linked despite enumeration order, got %d items", len(result.Declarations[0].Items))
	}
}

func TestProcessor_Process_ProgressPerChunk(t *testing.T) {
	var entries [][2]string
	for i := 0; i < 12; i++ {
		entries = append(entries, [2]string{
			fmt.Sprintf("FILE%02d_509.txt", i),
			"3842|4017883|001|1|0.16|1",
		})
	}
	data := buildArchive(t, entries)

	var calls [][2]int
	p, _ := NewProcessor(&ProcessorConfig{
		ChunkSize: 5,
		Progress: func(processed, total int) {
			calls = append(calls, [2]int{processed, total})
		},
	})

	if _, err := p.Process(context.Background(), data); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	expected := [][2]int{{5, 12}, {10, 12}, {12, 12}}
	if !reflect.DeepEqual(calls, expected) {
		t.Errorf("Progress calls = %v, want %v", calls, expected)
	}
}

func TestProcessor_Process_ChunkSizeDoesNotAffectResult(t *testing.T) {
	data := buildArchive(t, [][2]string{
		{"A_501.txt", general501Line},
		{"B_505.txt", invoice505Line},
		{"C_551.txt", item551Line},
		{"D_551.txt", strings.Replace(item551Line, "|1|", "|2|", 1)},
		{"E_509.txt", "3842|4017883|001|1|0.16|1"},
		{"F_510.txt", "3842|4017883|001|1|0|1500"},
		{"G_511.txt", "3842|4017883|001|1|SIN OBSERVACIONES"},
	})

	var totals []string
	var itemCounts []int
	for _, size := range []int{1, 3, 5, 100} {
		p, _ := NewProcessor(&ProcessorConfig{ChunkSize: size})
		result, err := p.Process(context.Background(), data)
		if err != nil {
			t.Fatalf("Process() with chunk size %d error = %v", size, err)
		}
		if len(result.Declarations) != 1 {
			t.Fatalf("Chunk size %d: expected 1 declaration, got %d", size, len(result.Declarations))
		}
		totals = append(totals, result.Declarations[0].TotalValueUsd.String())
		itemCounts = append(itemCounts, len(result.Declarations[0].Items))
	}

	for i := 1; i < len(totals); i++ {
		if totals[i] != totals[0] || itemCounts[i] != itemCounts[0] {
			t.Errorf("Chunk size must not change results: totals %v, item counts %v", totals, itemCounts)
		}
	}
}

func TestProcessor_Process_CorruptArchive(t *testing.T) {
	data := buildArchive(t, [][2]string{
		{"MYIMPORT_501.txt", general501Line},
	})

	// Corrupt the central directory region to break entry enumeration
	corrupt := append([]byte{}, data...)
	for i := len(corrupt) - 10; i < len(corrupt); i++ {
		corrupt[i] = 0xFF
	}

	p, _ := NewProcessor(nil)
	_, err := p.Process(context.Background(), corrupt)
	if err == nil {
		t.Fatal("Expected error for corrupted archive")
	}

	auditErr, ok := errors.AsAuditError(err)
	if !ok {
		t.Fatalf("Expected AuditError, got %T", err)
	}
	if auditErr.Category != errors.CategoryArchive {
		t.Errorf("Expected archive category, got %s", auditErr.Category)
	}
}

func TestProcessor_Process_CancelledContext(t *testing.T) {
	data := buildArchive(t, [][2]string{
		{"MYIMPORT_501.txt", general501Line},
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p, _ := NewProcessor(nil)
	_, err := p.Process(ctx, data)
	if err == nil {
		t.Fatal("Expected error for cancelled context")
	}
}

func TestProcessor_ProcessFile_NotFound(t *testing.T) {
	p, _ := NewProcessor(nil)
	_, err := p.ProcessFile(context.Background(), "/nonexistent/export.zip")
	if err == nil {
		t.Fatal("Expected error for missing archive")
	}
}

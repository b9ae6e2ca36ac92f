package datastage

import (
	"context"
	"sync"

	"pedimento-audit-service/internal/archive"
	"pedimento-audit-service/internal/models"
	"pedimento-audit-service/pkg/errors"
	"pedimento-audit-service/pkg/logger"
)

// ProgressFunc is invoked once per chunk boundary with the number of
// entries processed so far and the total entry count.
type ProgressFunc func(processed, total int)

// ProcessorConfig holds configuration for archive processing
type ProcessorConfig struct {
	// ChunkSize is the number of archive entries decoded and parsed
	// concurrently before results are merged.
	ChunkSize int

	// Progress, when set, fires at every chunk boundary
	Progress ProgressFunc
}

// DefaultProcessorConfig returns a configuration with sensible defaults
func DefaultProcessorConfig() *ProcessorConfig {
	return &ProcessorConfig{
		ChunkSize: 5,
	}
}

// Validate validates the processor configuration
func (c *ProcessorConfig) Validate() error {
	if c.ChunkSize <= 0 {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "chunk_size", c.ChunkSize, nil)
	}
	return nil
}

// Processor drives the archive-processing pipeline: enumerate entries,
// decode and parse them in fixed-size concurrent chunks, then link the
// accumulated rows sequentially.
type Processor struct {
	config *ProcessorConfig
	reader *archive.Reader
	logger logger.Logger
}

// NewProcessor creates a new Processor with the given configuration
func NewProcessor(config *ProcessorConfig) (*Processor, error) {
	if config == nil {
		config = DefaultProcessorConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Processor{
		config: config,
		reader: archive.NewReader(),
		logger: logger.GetGlobalLogger().WithComponent("datastage_processor"),
	}, nil
}

// ProcessFile processes a Data Stage archive from disk
func (p *Processor) ProcessFile(ctx context.Context, filePath string) (*LinkResult, error) {
	entries, err := p.reader.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return p.process(ctx, entries)
}

// Process processes an in-memory Data Stage archive
func (p *Processor) Process(ctx context.Context, data []byte) (*LinkResult, error) {
	entries, err := p.reader.Read(data)
	if err != nil {
		return nil, err
	}
	return p.process(ctx, entries)
}

func (p *Processor) process(ctx context.Context, entries []archive.Entry) (*LinkResult, error) {
	op := logger.NewOperationLogger("process_archive", p.logger)
	op.WithField("entries", len(entries))

	var (
		generals []*models.GeneralData
		invoices []*models.InvoiceData
		items    []*models.ItemData
		raw      []*models.RawRecordFile
	)

	total := len(entries)
	for start := 0; start < total; start += p.config.ChunkSize {
		// A caller may abandon the operation between chunks; an
		// in-flight chunk always settles.
		if err := ctx.Err(); err != nil {
			op.Error(err, "Archive processing abandoned")
			return nil, errors.InternalError(errors.CodeUnexpectedError, "archive_processing", err)
		}

		end := start + p.config.ChunkSize
		if end > total {
			end = total
		}
		chunk := entries[start:end]

		// Each concurrent task writes only its own result slot; the
		// shared accumulators are touched only after the whole chunk
		// has settled.
		results := make([]*ParsedEntry, len(chunk))
		errs := make([]error, len(chunk))

		var wg sync.WaitGroup
		for i, entry := range chunk {
			wg.Add(1)
			go func(i int, entry archive.Entry) {
				defer wg.Done()
				results[i], errs[i] = ParseEntry(entry.Name, entry.Data)
			}(i, entry)
		}
		wg.Wait()

		// One malformed entry aborts the whole operation, tagged with
		// the offending file name. No partial results are returned.
		for i, err := range errs {
			if err != nil {
				op.Error(err, "Archive processing failed")
				return nil, errors.EntryError(errors.CodeInvalidData, chunk[i].Name, err)
			}
		}

		for _, parsed := range results {
			generals = append(generals, parsed.Generals...)
			invoices = append(invoices, parsed.Invoices...)
			items = append(items, parsed.Items...)
			raw = append(raw, parsed.Raw)
		}

		op.Progress("Processed archive chunk", int64(end), int64(total))
		if p.config.Progress != nil {
			p.config.Progress(end, total)
		}
	}

	result := Link(generals, invoices, items, raw)

	op.WithField("declarations", len(result.Declarations))
	op.Success("Archive processing completed")

	return result, nil
}

// Package archive opens in-memory Data Stage ZIP containers and classifies
// their entries by record code.
//
// The customs system bundles one pipe-delimited text file per record type in
// a single ZIP. The record code is derived from the file name: a trailing
// 3-digit suffix after an underscore or dot (MYIMPORT_501.txt, pedimento.505)
// or a bare 3-digit name (551). Names that match no pattern keep their
// cleaned file name as the code; those groups are retained as raw rows only
// and never dispatched to a typed parser.
package archive

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path"
	"regexp"
	"strings"

	"pedimento-audit-service/pkg/errors"
	"pedimento-audit-service/pkg/logger"
)

// Entry is one non-directory file of the archive
type Entry struct {
	Name string
	Data []byte
}

// textExtensions are the file extensions the customs export uses for its
// plain-text record files
var textExtensions = map[string]bool{
	".txt": true,
	".asc": true,
	".dat": true,
}

var (
	suffixCodePattern = regexp.MustCompile(`[_.](\d{3})$`)
	bareCodePattern   = regexp.MustCompile(`^\d{3}$`)
)

// Reader enumerates the entries of a Data Stage archive
type Reader struct {
	logger logger.Logger
}

// NewReader creates a new archive Reader
func NewReader() *Reader {
	return &Reader{
		logger: logger.GetGlobalLogger().WithComponent("archive_reader"),
	}
}

// ReadFile opens an archive from disk and returns its entries
func (r *Reader) ReadFile(filePath string) ([]Entry, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ArchiveError(errors.CodeArchiveNotFound, filePath, err)
		}
		return nil, errors.ArchiveError(errors.CodeEntryUnreadable, filePath, err)
	}

	return r.Read(data)
}

// Read enumerates the entries of an in-memory ZIP container. Directory
// entries are skipped; no manifest or checksum is validated.
func (r *Reader) Read(data []byte) ([]Entry, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		r.logger.WithError(err).Error("Failed to open archive")
		return nil, errors.ArchiveError(errors.CodeArchiveCorrupted, "archive", err)
	}

	var entries []Entry
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return nil, errors.ArchiveError(errors.CodeEntryUnreadable, f.Name, err)
		}

		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, errors.ArchiveError(errors.CodeEntryUnreadable, f.Name, err)
		}

		entries = append(entries, Entry{
			Name: path.Base(f.Name),
			Data: content,
		})
	}

	r.logger.WithField("entries", len(entries)).Debug("Enumerated archive entries")
	return entries, nil
}

// ClassifyRecordCode derives the 3-digit record code from an entry file
// name. When no pattern matches, the cleaned name is returned verbatim; the
// caller keeps such groups as raw passthrough rows.
func ClassifyRecordCode(fileName string) string {
	name := path.Base(fileName)

	ext := strings.ToLower(path.Ext(name))
	if textExtensions[ext] {
		name = name[:len(name)-len(ext)]
	}

	if m := suffixCodePattern.FindStringSubmatch(name); m != nil {
		return m[1]
	}

	if bareCodePattern.MatchString(name) {
		return name
	}

	return name
}

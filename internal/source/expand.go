// Package source turns files from the outside world (uploads, the inbox
// directory) into batch items.
package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/mholt/archives"
	"github.com/vrsandeep/xmlup/internal/models"
	"github.com/vrsandeep/xmlup/internal/util"
)

// MaxItemSize bounds a single document, including decompressed ones.
const MaxItemSize = 64 << 20

var ErrTooLarge = errors.New("document exceeds size limit")

// IsDocument reports whether name looks like a document the converter reads.
func IsDocument(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xml", ".html", ".htm":
		return true
	}
	return false
}

// Expand turns one file into batch items. Documents pass through unchanged,
// archives are unpacked (documents inside are named by their cleaned path in
// the archive) and compressed documents are decompressed. Anything else
// yields no items and no error.
func Expand(ctx context.Context, name string, data []byte) ([]models.RawItem, error) {
	name = util.CleanItemName(name)
	if name == "" {
		return nil, nil
	}
	if IsDocument(name) {
		return []models.RawItem{{Name: name, Data: data}}, nil
	}

	format, _, err := archives.Identify(ctx, name, bytes.NewReader(data))
	if errors.Is(err, archives.NoMatch) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("identify %s: %w", name, err)
	}

	switch f := format.(type) {
	case archives.Extractor:
		return extract(ctx, name, f, data)
	case archives.Decompressor:
		inner := strings.TrimSuffix(name, path.Ext(name))
		if !IsDocument(inner) {
			return nil, nil
		}
		rc, err := f.OpenReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decompress %s: %w", name, err)
		}
		defer rc.Close()
		body, err := readLimited(rc)
		if err != nil {
			return nil, fmt.Errorf("decompress %s: %w", name, err)
		}
		return []models.RawItem{{Name: inner, Data: body}}, nil
	}
	return nil, nil
}

func extract(ctx context.Context, name string, ex archives.Extractor, data []byte) ([]models.RawItem, error) {
	var items []models.RawItem
	err := ex.Extract(ctx, bytes.NewReader(data), func(ctx context.Context, f archives.FileInfo) error {
		entry := util.CleanItemName(f.NameInArchive)
		if f.IsDir() || entry == "" || !IsDocument(entry) {
			return nil
		}
		file, err := f.Open()
		if err != nil {
			return err
		}
		defer file.Close()
		body, err := readLimited(file)
		if err != nil {
			return fmt.Errorf("%s: %w", entry, err)
		}
		items = append(items, models.RawItem{Name: entry, Data: body})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", name, err)
	}
	return items, nil
}

func readLimited(r io.Reader) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, MaxItemSize+1))
	if err != nil {
		return nil, err
	}
	if len(body) > MaxItemSize {
		return nil, ErrTooLarge
	}
	return body, nil
}

package source

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/vrsandeep/xmlup/internal/models"
	"github.com/vrsandeep/xmlup/internal/util"
)

// ProcessedDir is the inbox subdirectory swept files are moved into.
const ProcessedDir = "processed"

// Inbox is a directory that documents and archives are dropped into.
type Inbox struct {
	Dir string
}

// Sweep is the result of reading the inbox once.
type Sweep struct {
	Items []models.RawItem
	// Files are the inbox files the items came from, including archives
	// that yielded nothing, so they can be moved out of the way.
	Files []string
}

func NewInbox(dir string) *Inbox {
	return &Inbox{Dir: dir}
}

// Load reads every file below the inbox (except ProcessedDir) in natural
// name order and expands it into items. Unreadable files are logged and
// skipped so one bad file does not block the rest.
func (in *Inbox) Load(ctx context.Context) (*Sweep, error) {
	var files []string
	err := filepath.WalkDir(in.Dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != in.Dir && d.Name() == ProcessedDir {
				return filepath.SkipDir
			}
			return nil
		}
		files = append(files, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading inbox %s: %w", in.Dir, err)
	}
	sort.Slice(files, func(i, j int) bool {
		return util.NaturalSortLess(files[i], files[j])
	})

	sweep := &Sweep{}
	for _, p := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rel, err := filepath.Rel(in.Dir, p)
		if err != nil {
			rel = filepath.Base(p)
		}
		data, err := os.ReadFile(p)
		if err != nil {
			log.Printf("Skipping inbox file %s: %v", p, err)
			continue
		}
		items, err := Expand(ctx, filepath.ToSlash(rel), data)
		if err != nil {
			log.Printf("Skipping inbox file %s: %v", p, err)
			continue
		}
		sweep.Items = append(sweep.Items, items...)
		sweep.Files = append(sweep.Files, p)
	}
	return sweep, nil
}

// MarkProcessed moves swept files into ProcessedDir, keeping their relative
// path. Existing files there are overwritten.
func (in *Inbox) MarkProcessed(files []string) error {
	target := filepath.Join(in.Dir, ProcessedDir)
	for _, p := range files {
		rel, err := filepath.Rel(in.Dir, p)
		if err != nil {
			return err
		}
		dst := filepath.Join(target, rel)
		if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return err
		}
		if err := os.Rename(p, dst); err != nil {
			return fmt.Errorf("moving %s: %w", p, err)
		}
	}
	return nil
}

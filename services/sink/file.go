// Package sink persists the crawl corpus: the authoritative JSON file plus an
// optional relational mirror.
package sink

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/Rezanikmanesh-79/Karamoozi/internal/crawler"
	"github.com/Rezanikmanesh-79/Karamoozi/logger"
	crawlerrors "github.com/Rezanikmanesh-79/Karamoozi/pkg/errors"
)

const filePerm = 0o644

// FileSink writes the corpus as one UTF-8 JSON array, replacing any previous file
type FileSink struct {
	path string
}

// NewFileSink creates a sink writing to path
func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

// Path returns the corpus file path
func (s *FileSink) Path() string {
	return s.path
}

// Write serializes corpus to a temp file in the target directory and renames it
// over the target. Readers see either the old file or the complete new one.
func (s *FileSink) Write(ctx context.Context, corpus crawler.Corpus) error {
	if err := ctx.Err(); err != nil {
		return crawlerrors.NewPersistence(s.path, "write cancelled", err)
	}
	if corpus == nil {
		corpus = crawler.Corpus{}
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return crawlerrors.NewPersistence(s.path, "failed to create temp file", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	enc := json.NewEncoder(tmp)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(corpus); err != nil {
		return crawlerrors.NewPersistence(s.path, "failed to encode corpus", err)
	}
	if err := tmp.Chmod(filePerm); err != nil {
		return crawlerrors.NewPersistence(s.path, "failed to set file mode", err)
	}
	if err := tmp.Sync(); err != nil {
		return crawlerrors.NewPersistence(s.path, "failed to sync temp file", err)
	}
	if err := tmp.Close(); err != nil {
		return crawlerrors.NewPersistence(s.path, "failed to close temp file", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		committed = true
		return crawlerrors.NewPersistence(s.path, "failed to replace corpus file", err)
	}
	committed = true

	logger.ForComponent("sink").Info().
		Str("path", s.path).
		Int("products", len(corpus)).
		Msg("Corpus written")
	return nil
}

// ReadCorpus loads a corpus file written by FileSink
func ReadCorpus(path string) (crawler.Corpus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, crawlerrors.NewPersistence(path, "failed to read corpus file", err)
	}
	var corpus crawler.Corpus
	if err := json.Unmarshal(data, &corpus); err != nil {
		return nil, crawlerrors.NewPersistence(path, "corpus file is not a JSON array of products", err)
	}
	if corpus == nil {
		corpus = crawler.Corpus{}
	}
	return corpus, nil
}

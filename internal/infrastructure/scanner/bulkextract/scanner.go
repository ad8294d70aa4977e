// Package bulkextract locates candidate documents by shelling out to
// bulk_extractor in wordlist mode and filtering its output for the keyword.
package bulkextract

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/lawpaw/lawpaw/internal/core/domain"
	"github.com/lawpaw/lawpaw/internal/infrastructure/cmdrunner"
)

const wordlistArtifact = "wordlist.txt"

type Config struct {
	Binary  string        // binary name or absolute path; if empty -> "bulk_extractor"
	Timeout time.Duration // per-invocation bound, default 5m
	Ext     string        // target document extension, default ".pdf"
}

type Scanner struct {
	cfg    Config
	runner cmdrunner.Runner
	logger *slog.Logger
}

func NewScanner(cfg Config, runner cmdrunner.Runner, logger *slog.Logger) *Scanner {
	if cfg.Binary == "" {
		cfg.Binary = "bulk_extractor"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}
	if cfg.Ext == "" {
		cfg.Ext = ".pdf"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{cfg: cfg, runner: runner, logger: logger}
}

// Scan runs the tool restricted to the wordlist scanner, then keeps the
// matched file paths whose line keyword equals the query (case-insensitive)
// and whose path carries the document extension. Matches are deduplicated and
// returned sorted. A tool failure yields an empty set plus the error; the
// caller treats that as a degraded batch, not a fatal one.
func (s *Scanner) Scan(ctx context.Context, rootDir, keyword string) ([]domain.CandidateDocument, error) {
	outDir, err := os.MkdirTemp("", "lawpaw-scan-*")
	if err != nil {
		return nil, domain.WrapError(domain.ErrToolInvocation, "create scan workdir", err)
	}
	defer func() {
		if err := os.RemoveAll(outDir); err != nil {
			s.logger.Warn("scan workdir cleanup failed", "dir", outDir, "error", err)
		}
	}()

	runCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	// bulk_extractor -E wordlist -o <outDir> -R <rootDir>
	_, stderr, err := s.runner.Run(runCtx, s.cfg.Binary,
		"-E", "wordlist",
		"-o", outDir,
		"-R", rootDir,
	)
	if err != nil {
		return nil, domain.WrapError(domain.ErrToolInvocation, "run bulk_extractor",
			fmt.Errorf("%w: %s", err, strings.TrimSpace(string(stderr))))
	}

	artifact := filepath.Join(outDir, wordlistArtifact)
	f, err := os.Open(artifact)
	if err != nil {
		return nil, domain.WrapError(domain.ErrToolInvocation, "read wordlist artifact", err)
	}
	defer f.Close()

	return s.parseWordlist(f, keyword)
}

func (s *Scanner) parseWordlist(f *os.File, keyword string) ([]domain.CandidateDocument, error) {
	seen := make(map[string]struct{})
	var paths []string

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		// Lines are tab-delimited: <keyword>\t<file-URI>
		fields := strings.SplitN(line, "\t", 2)
		if len(fields) != 2 {
			continue
		}
		if !strings.EqualFold(strings.TrimSpace(fields[0]), keyword) {
			continue
		}
		path := strings.TrimPrefix(strings.TrimSpace(fields[1]), "file://")
		if !strings.HasSuffix(strings.ToLower(path), s.cfg.Ext) {
			continue
		}
		if _, dup := seen[path]; dup {
			continue
		}
		seen[path] = struct{}{}
		paths = append(paths, path)
	}
	if err := sc.Err(); err != nil {
		return nil, domain.WrapError(domain.ErrToolInvocation, "scan wordlist artifact", err)
	}

	sort.Strings(paths)
	docs := make([]domain.CandidateDocument, len(paths))
	for i, p := range paths {
		docs[i] = domain.CandidateDocument{Path: p, SourceLabel: "local"}
	}
	s.logger.Info("scan.matched", "keyword", keyword, "candidates", len(docs))
	return docs, nil
}

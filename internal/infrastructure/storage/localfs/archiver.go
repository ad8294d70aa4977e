// Package localfs places processed documents into the derived directory tree
// under the output root. Sources are copied, never moved, so the corpus stays
// intact for re-runs.
package localfs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lawpaw/lawpaw/internal/core/domain"
)

type Archiver struct {
	logger *slog.Logger
}

func NewArchiver(logger *slog.Logger) *Archiver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Archiver{logger: logger}
}

// Place copies sourcePath to outputRoot joined with the derived segments and
// filename. A file already present at the destination is refused with
// ErrPathCollision; two distinct documents can legitimately derive identical
// paths and silently overwriting one of them loses data.
func (a *Archiver) Place(ctx context.Context, sourcePath string, derived domain.DerivedPath, outputRoot string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dir := filepath.Join(append([]string{outputRoot}, derived.Directory...)...)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", domain.WrapError(domain.ErrFilesystem, "create archive directory", err)
	}

	dst := filepath.Join(dir, derived.Filename)
	if _, err := os.Stat(dst); err == nil {
		return "", domain.WrapError(domain.ErrPathCollision, "place document", fmt.Errorf("destination exists: %s", dst))
	} else if !os.IsNotExist(err) {
		return "", domain.WrapError(domain.ErrFilesystem, "probe destination", err)
	}

	if err := copyFile(sourcePath, dst); err != nil {
		return "", domain.WrapError(domain.ErrFilesystem, "copy document", err)
	}

	a.logger.Debug("archive.place.ok", "source", sourcePath, "destination", dst)
	return dst, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return err
	}
	return nil
}

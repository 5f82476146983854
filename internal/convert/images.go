package convert

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
)

// RasterizeFigures converts every PDF under dir to PNG with ImageMagick's
// mogrify at 300 dpi. DOCX output cannot embed PDF figures. A missing dir is
// not an error.
func RasterizeFigures(ctx context.Context, dir string) error {
	pdfs, err := filepath.Glob(filepath.Join(dir, "*.pdf"))
	if err != nil {
		return fmt.Errorf("list figures: %w", err)
	}
	if len(pdfs) == 0 {
		return nil
	}
	if _, err := exec.LookPath("mogrify"); err != nil {
		return fmt.Errorf("%w: %w", ErrBinaryNotFound, err)
	}

	slog.Info("Converting PDF figures to PNG", "count", len(pdfs), "path", dir)
	args := append([]string{"-density", "300", "-format", "png"}, pdfs...)
	out, err := exec.CommandContext(ctx, "mogrify", args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: mogrify: %w: %s", ErrConversionFailed, err, out)
	}
	return nil
}

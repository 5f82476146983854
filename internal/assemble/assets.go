package assemble

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/manuscript/internal/logfields"
	"git.home.luguber.info/inful/manuscript/internal/markdown"
	"git.home.luguber.info/inful/manuscript/internal/report"
)

// localImages returns the image references of body that point at files
// relative to the document.
func localImages(body string) []string {
	var out []string
	for _, dest := range markdown.Images([]byte(body)) {
		if strings.Contains(dest, "://") || strings.HasPrefix(dest, "data:") || filepath.IsAbs(dest) {
			continue
		}
		out = append(out, dest)
	}
	return out
}

// mirrorImages copies every local image referenced by a built member into
// outDir at the same relative path, so links in the outputs keep working.
func mirrorImages(results []MemberResult, outDir string, rep *report.Result, logger *slog.Logger) {
	copied := make(map[string]struct{})
	for _, res := range results {
		for _, ref := range res.Images {
			rel := filepath.Clean(filepath.FromSlash(ref))
			if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
				rep.Warn(report.KindAssetCopy, res.Path, ref, "image outside the manuscript directory is not mirrored")
				continue
			}
			if _, done := copied[rel]; done {
				continue
			}
			copied[rel] = struct{}{}

			src := filepath.Join(filepath.Dir(res.Path), rel)
			dst := filepath.Join(outDir, rel)
			if err := copyFile(src, dst); err != nil {
				rep.Warn(report.KindAssetCopy, res.Path, ref, fmt.Sprintf("cannot mirror image: %v", err))
				continue
			}
			logger.Debug("Mirrored image", logfields.Path(dst))
		}
	}
}

func copyFile(src, dst string) error {
	// #nosec G304 -- images referenced by manuscript files.
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

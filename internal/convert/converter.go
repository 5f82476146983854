package convert

import (
	"context"
	"errors"
	"log/slog"

	"git.home.luguber.info/inful/manuscript/internal/markers"
)

var (
	// ErrBinaryNotFound is returned when the converter executable is not on PATH.
	ErrBinaryNotFound = errors.New("converter binary not found")
	// ErrConversionFailed wraps a non-zero exit of the converter.
	ErrConversionFailed = errors.New("conversion failed")
)

// Format is a conversion target.
type Format string

const (
	// FormatMarkdown renders Markdown back to Markdown. Garden builds use it so
	// offsets and labels are applied by the filters configured in the defaults.
	FormatMarkdown Format = "markdown"
	FormatPDF      Format = "pdf"
	FormatDOCX     Format = "docx"
)

// Profile selects document-type specific options.
type Profile string

const (
	ProfileMain Profile = "main"
	// ProfileSI numbers figures, tables and pages with an "S" prefix.
	ProfileSI Profile = "si"
)

// Request is one conversion.
type Request struct {
	Input   []byte
	Format  Format
	Offsets markers.Offsets
	Labels  markers.LabelMap
	Profile Profile
	// OutputPath is where binary formats are written. When empty the converted
	// document is returned instead.
	OutputPath string
	// WorkDir receives generated side files such as the metadata file.
	WorkDir string
	// ResourceDir is where relative image and resource paths of Input are
	// looked up, usually the source file's directory.
	ResourceDir string
}

// Converter turns a Request into output.
type Converter interface {
	Convert(ctx context.Context, req Request) ([]byte, error)
}

// Passthrough returns the input unchanged.
type Passthrough struct{}

func (Passthrough) Convert(_ context.Context, req Request) ([]byte, error) {
	slog.Debug("Passthrough converter skipping conversion", "format", string(req.Format))
	return req.Input, nil
}

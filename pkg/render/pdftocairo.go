package render

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/texfig/texfig/pkg/errors"
)

// PDFToCairo vectorizes PDF intermediates by shelling out to pdftocairo
// (part of poppler-utils).
type PDFToCairo struct {
	// Binary is the pdftocairo executable, "pdftocairo" by default.
	Binary string
}

// Vectorize converts PDF bytes to an SVG cropped to the page bounds.
// pdftocairo only reads from files, so the intermediate goes through a
// scratch directory that is removed afterwards.
func (p *PDFToCairo) Vectorize(ctx context.Context, pdf []byte) ([]byte, error) {
	binary := p.Binary
	if binary == "" {
		binary = "pdftocairo"
	}
	if _, err := exec.LookPath(binary); err != nil {
		return nil, errors.Wrap(errors.ErrCodeVectorize, err,
			"%s not found. Install poppler-utils (apt install poppler-utils, brew install poppler)", binary)
	}

	tmp, err := os.MkdirTemp("", "texfig-svg-")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeVectorize, err, "create scratch directory")
	}
	defer os.RemoveAll(tmp)

	pdfPath := filepath.Join(tmp, "diagram.pdf")
	svgPath := filepath.Join(tmp, "diagram.svg")
	if err := os.WriteFile(pdfPath, pdf, 0o644); err != nil {
		return nil, errors.Wrap(errors.ErrCodeVectorize, err, "write scratch PDF")
	}

	cmd := exec.CommandContext(ctx, binary, "-svg", pdfPath, svgPath)
	var errBuf bytes.Buffer
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(errors.ErrCodeVectorize, ctx.Err(), "%s cancelled", binary)
		}
		return nil, errors.Wrap(errors.ErrCodeVectorize, err,
			"%s failed: %s", binary, truncateDiagnostic(errBuf.String()))
	}

	svg, err := os.ReadFile(svgPath)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeVectorize, err, "%s produced no SVG", binary)
	}
	if len(svg) == 0 {
		return nil, errors.New(errors.ErrCodeVectorize, "%s produced an empty SVG", binary)
	}
	return svg, nil
}

// Ensure PDFToCairo implements Vectorizer.
var _ Vectorizer = (*PDFToCairo)(nil)

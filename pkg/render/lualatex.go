package render

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/texfig/texfig/pkg/errors"
)

// DefaultTypesetTimeout bounds a single typeset run. Malformed TikZ can send
// LaTeX into interactive loops even with -halt-on-error.
const DefaultTypesetTimeout = 2 * time.Minute

// LuaLaTeX typesets documents by shelling out to a LaTeX engine.
type LuaLaTeX struct {
	// Engine is the LaTeX binary, "lualatex" by default.
	Engine string

	// Timeout bounds one invocation. Zero means DefaultTypesetTimeout.
	Timeout time.Duration
}

// Typeset writes the document to a scratch directory, runs the engine with
// -halt-on-error, and returns the produced PDF bytes. The scratch directory
// is removed afterwards; only the cache directory ever holds results.
func (l *LuaLaTeX) Typeset(ctx context.Context, document string) ([]byte, error) {
	engine := l.Engine
	if engine == "" {
		engine = "lualatex"
	}
	if _, err := exec.LookPath(engine); err != nil {
		return nil, errors.Wrap(errors.ErrCodeTypeset, err,
			"%s not found. Install a TeX distribution (e.g. texlive-luatex)", engine)
	}

	timeout := l.Timeout
	if timeout == 0 {
		timeout = DefaultTypesetTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	tmp, err := os.MkdirTemp("", "texfig-tex-")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeTypeset, err, "create scratch directory")
	}
	defer os.RemoveAll(tmp)

	texPath := filepath.Join(tmp, "diagram.tex")
	if err := os.WriteFile(texPath, []byte(document), 0o644); err != nil {
		return nil, errors.Wrap(errors.ErrCodeTypeset, err, "write scratch document")
	}

	cmd := exec.CommandContext(ctx, engine,
		"-halt-on-error",
		"-interaction=nonstopmode",
		"-output-directory", tmp,
		texPath,
	)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(errors.ErrCodeTypeset, ctx.Err(), "%s timed out or was cancelled", engine)
		}
		return nil, errors.Wrap(errors.ErrCodeTypeset, err,
			"%s failed: %s", engine, truncateDiagnostic(out.String()))
	}

	pdf, err := os.ReadFile(filepath.Join(tmp, "diagram.pdf"))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeTypeset, err, "%s produced no PDF", engine)
	}
	if len(pdf) == 0 {
		return nil, errors.New(errors.ErrCodeTypeset, "%s produced an empty PDF", engine)
	}
	return pdf, nil
}

// Ensure LuaLaTeX implements Typesetter.
var _ Typesetter = (*LuaLaTeX)(nil)

package cmdctx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"catalog/src/internal/gitutil"
)

// Snapshot commits the given files of the data directory. Outside a git
// repository it writes a warning to warn and succeeds.
func (c *Context) Snapshot(ctx context.Context, warn io.Writer, paths []string, message string, push bool) error {
	cfg, err := c.Config()
	if err != nil {
		return err
	}
	rel := make([]string, 0, len(paths))
	for _, p := range paths {
		r, err := filepath.Rel(cfg.Paths.DataDir, p)
		if err != nil {
			return err
		}
		rel = append(rel, filepath.ToSlash(r))
	}
	err = gitutil.Snapshot{Dir: cfg.Paths.DataDir, Push: push}.Commit(ctx, rel, message)
	if errors.Is(err, gitutil.ErrNotRepository) {
		_, werr := fmt.Fprintln(warn, "warning: skipping git commit (not a git repository)")
		return werr
	}
	return err
}

// Package gitutil records catalog data changes as git commits when the data
// directory lives in a repository.
package gitutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

var ErrNotRepository = errors.New("not a git repository")

// Runner abstracts command execution for testability.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) (stdout string, stderr string, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, dir, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var out, errB bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errB
	err := cmd.Run()
	return out.String(), errB.String(), err
}

// Snapshot commits paths inside Dir. With Push set, the commit is pushed,
// setting the upstream on first push.
type Snapshot struct {
	Dir    string
	Push   bool
	Runner Runner
}

func (s Snapshot) run(ctx context.Context, args ...string) (string, string, error) {
	r := s.Runner
	if r == nil {
		r = execRunner{}
	}
	return r.Run(ctx, s.Dir, "git", args...)
}

// Commit stages paths (additions, modifications and deletions) and commits
// them with message. "Nothing to commit" is success. Outside a repository
// the error wraps ErrNotRepository.
func (s Snapshot) Commit(ctx context.Context, paths []string, message string) error {
	if len(paths) == 0 {
		return nil
	}
	args := append([]string{"add", "-A", "--"}, paths...)
	if _, stderr, err := s.run(ctx, args...); err != nil {
		if strings.Contains(stderr, "not a git repository") {
			return fmt.Errorf("%w: %s", ErrNotRepository, s.Dir)
		}
		return fmt.Errorf("git add failed: %v: %s", err, stderr)
	}
	noChange, err := s.commit(ctx, message)
	if err != nil {
		return err
	}
	if noChange || !s.Push {
		return nil
	}
	return s.push(ctx)
}

func (s Snapshot) commit(ctx context.Context, message string) (noChange bool, err error) {
	stdout, stderr, runErr := s.run(ctx, "commit", "-m", message)
	if runErr == nil {
		return false, nil
	}
	combined := stderr + stdout
	for _, marker := range []string{"nothing to commit", "no changes added to commit", "working tree clean"} {
		if strings.Contains(combined, marker) {
			return true, nil
		}
	}
	return false, fmt.Errorf("git commit failed: %v: %s%s", runErr, stderr, stdout)
}

func (s Snapshot) push(ctx context.Context) error {
	_, stderr, err := s.run(ctx, "push")
	if err == nil {
		return nil
	}
	if !strings.Contains(stderr, "has no upstream branch") && !strings.Contains(stderr, "no configured push destination") {
		return fmt.Errorf("git push failed: %v: %s", err, stderr)
	}
	branch := "HEAD"
	if br, _, bErr := s.run(ctx, "rev-parse", "--abbrev-ref", "HEAD"); bErr == nil && strings.TrimSpace(br) != "" {
		branch = strings.TrimSpace(br)
	}
	if _, stderr2, err2 := s.run(ctx, "push", "-u", "origin", branch); err2 != nil {
		return fmt.Errorf("git push failed: %v: %s; fallback failed: %v: %s", err, stderr, err2, stderr2)
	}
	return nil
}

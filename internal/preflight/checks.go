package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"

	"cardsight/internal/corpus"
	"cardsight/internal/index"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckIndex verifies that the artifact exists, is readable and carries a
// supported header.
func CheckIndex(path string) Result {
	const name = "Index"

	probe := ProbeIndex(path)
	if probe.Err != nil {
		return Result{Name: name, Detail: probe.Detail()}
	}
	return Result{Name: name, Passed: true, Detail: probe.Detail()}
}

// CheckCorpus verifies that the corpus database opens with the expected
// schema. A database that has not been created yet is reported but passes,
// since manifests can be compiled without it.
func CheckCorpus(ctx context.Context, path string) Result {
	const name = "Corpus database"

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (not created yet)", path)}
	}
	store, err := corpus.Open(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	defer store.Close()
	count, err := store.Count(ctx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s cards)", path, humanize.Comma(int64(count)))}
}

// IndexProbe summarises an index artifact without loading its entries.
type IndexProbe struct {
	Path string
	Size int64
	Meta index.Meta
	Err  error
}

// ProbeIndex reads the artifact header and metadata.
func ProbeIndex(path string) IndexProbe {
	probe := IndexProbe{Path: path}
	info, err := os.Stat(path)
	if err != nil {
		probe.Err = err
		return probe
	}
	probe.Size = info.Size()
	probe.Meta, probe.Err = index.ReadMeta(path)
	return probe
}

// Detail renders a display-friendly summary for status output.
func (p IndexProbe) Detail() string {
	if p.Err != nil {
		if errors.Is(p.Err, os.ErrNotExist) {
			return fmt.Sprintf("%s (error: does not exist, run cardsight compile)", p.Path)
		}
		return fmt.Sprintf("%s (error: %v)", p.Path, p.Err)
	}
	return fmt.Sprintf("%s (%s cards, %s, built %s)",
		p.Path,
		humanize.Comma(int64(p.Meta.Cards)),
		humanize.Bytes(uint64(p.Size)),
		humanize.RelTime(p.Meta.BuiltAt, time.Now(), "ago", "from now"),
	)
}

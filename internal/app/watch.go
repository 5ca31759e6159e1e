package app

import (
	"context"
	"fmt"
	"image"
	"os"
	"time"

	"bananalab/internal/startup"
	"bananalab/internal/thumbnail"
	"bananalab/internal/watch"
)

// DocumentPaths expands arg to the page documents it names: the file
// itself, or every document under a directory.
func DocumentPaths(arg string) ([]string, error) {
	info, err := os.Stat(arg)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{arg}, nil
	}
	return watch.Scan(arg)
}

// ProcessAll renders each document in paths. Failures are logged and
// counted; the returned totals cover the documents that loaded.
func (a *App) ProcessAll(ctx context.Context, paths []string, target image.Point, onProgress thumbnail.ProgressFunc) (*Result, int) {
	total := &Result{}
	failed := 0
	start := time.Now()
	for _, path := range paths {
		if ctx.Err() != nil {
			break
		}
		res, err := a.ProcessDocument(ctx, path, target, onProgress)
		if res != nil {
			total.Pages += res.Pages
			total.Placeholders += res.Placeholders
			total.Files = append(total.Files, res.Files...)
		}
		if err != nil {
			log.Error("%s: %v", path, err)
			failed++
		}
	}
	total.Duration = time.Since(start)
	return total, failed
}

// Watch renders every document under dir, then re-renders documents as
// they change until ctx is done. Removed documents release their cached
// thumbnails and blob handles.
func (a *App) Watch(ctx context.Context, dir string, debounce time.Duration, target image.Point) error {
	paths, err := watch.Scan(dir)
	if err != nil {
		return fmt.Errorf("scan %s: %w", dir, err)
	}
	res, failed := a.ProcessAll(ctx, paths, target, nil)
	startup.LogBatchSummary(res.Pages, res.Placeholders, res.Duration)
	if failed > 0 {
		log.Warn("%d of %d documents failed", failed, len(paths))
	}

	w := watch.New(dir, debounce, watch.Handlers{
		Changed: func(ctx context.Context, path string) {
			res, err := a.ProcessDocument(ctx, path, target, nil)
			if err != nil {
				log.Error("%s: %v", path, err)
				return
			}
			log.Info("%s: %d pages in %v", path, res.Pages, res.Duration)
		},
		Removed: func(_ context.Context, path string) {
			a.Forget(path)
		},
	})
	return w.Run(ctx)
}

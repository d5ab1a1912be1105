package main

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Veraticus/foodlens/internal/cli"
	"github.com/Veraticus/foodlens/internal/model"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var photoExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

func batchCmd() *cobra.Command {
	var concurrency int

	cmd := &cobra.Command{
		Use:   "batch DIR",
		Short: "Recognize every photo in a directory",
		Long: `Recognize every JPEG, PNG, GIF and WebP photo under DIR and print a summary
of which recognition path each took. Duplicate photos are served from cache.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			photos, err := collectPhotos(args[0])
			if err != nil {
				return err
			}
			if len(photos) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatWarning("No photos found in "+args[0]))
				return nil
			}

			settings, err := loadSettings()
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), settings, slog.Default())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			var done atomic.Int64
			interrupts := cli.NewInterruptHandler(cmd.ErrOrStderr())
			ctx, cancel := interrupts.HandleInterrupts(cmd.Context(), func() (int, int) {
				return int(done.Load()), len(photos)
			})
			defer cancel()

			bar := progressbar.NewOptions(len(photos),
				progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowCount(),
				progressbar.OptionShowElapsedTimeOnFinish(),
				progressbar.OptionSetWidth(40),
				progressbar.OptionSetDescription("[cyan][bold]Recognizing photos...[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					_, _ = fmt.Fprintln(cmd.ErrOrStderr())
				}),
			)

			start := time.Now()
			summary := cli.BatchSummary{Total: len(photos), Paths: make(map[model.Path]int)}
			var mu sync.Mutex

			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(max(concurrency, 1))
			for _, photo := range photos {
				photo := photo
				g.Go(func() error {
					image, readErr := os.ReadFile(photo)
					var (
						result model.RecognitionResult
						err    = readErr
					)
					if err == nil {
						result, err = a.orch.Recognize(gctx, image)
					}

					mu.Lock()
					if err != nil {
						summary.Failed = append(summary.Failed, photo)
						slog.Debug("Photo not recognized", "photo", photo, "error", err)
					} else {
						summary.Paths[result.Path]++
					}
					mu.Unlock()

					done.Add(1)
					if barErr := bar.Add(1); barErr != nil {
						slog.Warn("Failed to update progress bar", "error", barErr)
					}
					return gctx.Err()
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			sort.Strings(summary.Failed)
			summary.CacheHits = a.orch.Stats().CacheHits
			summary.Elapsed = time.Since(start)
			_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBatchSummary(summary))
			return err
		},
	}

	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "photos recognized at once")
	return cmd
}

// collectPhotos lists photo files under dir in lexical order.
func collectPhotos(dir string) ([]string, error) {
	var photos []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if photoExtensions[strings.ToLower(filepath.Ext(path))] {
			photos = append(photos, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}
	return photos, nil
}

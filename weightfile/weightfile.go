// Package weightfile persists user mod weights as a JSON object of
// "Target|id" -> weight and keeps a WeightStore in sync with it.
package weightfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	"github.com/exilekit/altar-agent/altar"
)

// Load reads the weights file. A missing file is an empty set.
func Load(path string) (map[string]int, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]int{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read weights file: %w", err)
	}
	entries := map[string]int{}
	if err := sonic.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse weights file: %w", err)
	}
	return entries, nil
}

// Save writes entries through a temp file and rename so watchers never see a
// partial file.
func Save(path string, entries map[string]int) error {
	data, err := sonic.ConfigStd.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal weights: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create weights directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write weights file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace weights file: %w", err)
	}
	return nil
}

// Sync loads path into store, seeds catalog defaults for unset keys and
// writes the file back when seeding added anything. User values are never
// overwritten.
func Sync(path string, store *altar.WeightStore, catalog *altar.Catalog) error {
	entries, err := Load(path)
	if err != nil {
		return err
	}
	store.Replace(entries)
	added := store.Seed(catalog)
	log.Info().Str("path", path).Int("loaded", len(entries)).Int("seeded", added).Msg("<Weights> synced")
	if added == 0 {
		return nil
	}
	return Save(path, store.Snapshot())
}

// Watch reloads store whenever path is written or replaced, until ctx is
// done. Keys removed from the file fall back to catalog defaults. The parent
// directory is watched so editor rename-saves are seen. Files that fail to
// parse are logged and ignored.
func Watch(ctx context.Context, path string, store *altar.WeightStore, catalog *altar.Catalog) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create weights watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch weights directory: %w", err)
	}

	target := filepath.Clean(path)
	// coalesce bursts of events from a single save
	debounce := time.NewTimer(time.Hour)
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				debounce.Reset(100 * time.Millisecond)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("<Weights> watcher error")
		case <-debounce.C:
			entries, err := Load(path)
			if err != nil {
				log.Error().Err(err).Str("path", path).Msg("<Weights> reload failed, keeping previous weights")
				continue
			}
			store.Replace(entries)
			seeded := store.Seed(catalog)
			log.Info().Str("path", path).Int("entries", len(entries)).Int("seeded", seeded).Msg("<Weights> reloaded")
		}
	}
}

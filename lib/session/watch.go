// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchSettleDelay coalesces the burst of events a single save or
// remove produces (create, write, rename) into one reload.
const watchSettleDelay = 50 * time.Millisecond

// Change reports the session file's state after it changed on disk.
// Session is nil when the session was removed or emptied; Err is set
// when the file exists but could not be read.
type Change struct {
	Session *Session
	Err     error
}

// Watch reports changes to the session file until ctx is cancelled,
// then closes the channel.
//
// The parent directory is watched rather than the file itself, so
// atomic replacement (a new inode renamed over the old one) and
// deletion followed by re-creation are both seen.
func (store *Store) Watch(ctx context.Context) (<-chan Change, error) {
	directory := filepath.Dir(store.path)
	if err := os.MkdirAll(directory, 0700); err != nil {
		return nil, fmt.Errorf("creating session directory %s: %w", directory, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating session watcher: %w", err)
	}
	if err := watcher.Add(directory); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching %s: %w", directory, err)
	}

	changes := make(chan Change, 1)
	go store.watchLoop(ctx, watcher, changes)
	return changes, nil
}

func (store *Store) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, changes chan<- Change) {
	defer close(changes)
	defer watcher.Close()

	target := filepath.Clean(store.path)
	relevant := fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename

	settle := time.NewTimer(time.Hour)
	settle.Stop()
	defer settle.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target || event.Op&relevant == 0 {
				continue
			}
			settle.Reset(watchSettleDelay)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			if !deliver(ctx, changes, Change{Err: err}) {
				return
			}

		case <-settle.C:
			session, err := store.Load()
			change := Change{Session: session}
			if err != nil && !errors.Is(err, ErrNoSession) {
				change = Change{Err: err}
			}
			if !deliver(ctx, changes, change) {
				return
			}
		}
	}
}

func deliver(ctx context.Context, changes chan<- Change, change Change) bool {
	select {
	case changes <- change:
		return true
	case <-ctx.Done():
		return false
	}
}

// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package blockwatch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	BlockLogFile     = "log.txt"
	ExtrinsicLogFile = "pallets.txt"
	EventLogFile     = "events.txt"
)

// Sink receives every finalized block the watcher sees.
type Sink interface {
	Write(ctx context.Context, e Event) error
	Close() error
}

// FileSink appends block lines to log.txt, extrinsic lines to pallets.txt
// and runtime event lines to events.txt in one directory.
type FileSink struct {
	mu         sync.Mutex
	blocks     *os.File
	extrinsics *os.File
	events     *os.File
}

func NewFileSink(dir string) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	blocks, err := openAppend(filepath.Join(dir, BlockLogFile))
	if err != nil {
		return nil, err
	}
	extrinsics, err := openAppend(filepath.Join(dir, ExtrinsicLogFile))
	if err != nil {
		_ = blocks.Close()
		return nil, err
	}
	events, err := openAppend(filepath.Join(dir, EventLogFile))
	if err != nil {
		_ = blocks.Close()
		_ = extrinsics.Close()
		return nil, err
	}
	return &FileSink{blocks: blocks, extrinsics: extrinsics, events: events}, nil
}

func openAppend(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}

func (s *FileSink) Write(_ context.Context, e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprintln(s.blocks, e.LogLine()); err != nil {
		return err
	}
	for _, x := range e.Extrinsics {
		if _, err := fmt.Fprintln(s.extrinsics, x.line(e.Chain)); err != nil {
			return err
		}
	}
	for _, r := range e.Events {
		if _, err := fmt.Fprintln(s.events, r.line(e.Chain)); err != nil {
			return err
		}
	}
	return nil
}

func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return errors.Join(s.blocks.Close(), s.extrinsics.Close(), s.events.Close())
}

// MultiSink fans an event out to every sink. A failing sink does not stop
// the others.
type MultiSink []Sink

func (m MultiSink) Write(ctx context.Context, e Event) error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.Write(ctx, e))
	}
	return errors.Join(errs...)
}

func (m MultiSink) Close() error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}

// Package sink stores rendered scenes.
//
// A [Sink] receives one scene per sample together with the image name chosen
// by the pipeline, renders it in its [render.Format] and returns a reference
// to where the image ended up. [Dir] writes files, [Memory] keeps bytes in
// memory, and [Discard] renders nothing.
package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/matzehuels/spatialbench/pkg/errors"
	"github.com/matzehuels/spatialbench/pkg/record"
	"github.com/matzehuels/spatialbench/pkg/render"
)

// Sink stores one rendered scene under name.
type Sink interface {
	Put(ctx context.Context, name string, scene record.Scene) (ref string, err error)
	Format() render.Format
}

// Dir renders scenes into a directory.
type Dir struct {
	path   string
	format render.Format
	opts   []render.Option
}

// NewDir creates path if needed and returns a sink writing images there.
func NewDir(path string, format render.Format, opts ...render.Option) (*Dir, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &Dir{path: path, format: format, opts: opts}, nil
}

// Path returns the output directory.
func (d *Dir) Path() string { return d.path }

func (d *Dir) Format() render.Format { return d.format }

// Put renders scene and writes it to <dir>/<name>. It returns the file path.
func (d *Dir) Put(ctx context.Context, name string, scene record.Scene) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := errors.ValidateImageName(name); err != nil {
		return "", err
	}

	data, err := render.Render(scene, d.format, d.opts...)
	if err != nil {
		return "", err
	}

	path := filepath.Join(d.path, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return path, nil
}

// Memory keeps rendered images in memory. It is safe for concurrent use.
type Memory struct {
	format render.Format
	opts   []render.Option

	mu     sync.Mutex
	images map[string][]byte
}

// NewMemory returns an empty in-memory sink.
func NewMemory(format render.Format, opts ...render.Option) *Memory {
	return &Memory{format: format, opts: opts, images: make(map[string][]byte)}
}

func (m *Memory) Format() render.Format { return m.format }

// Put renders scene and stores it under name.
func (m *Memory) Put(ctx context.Context, name string, scene record.Scene) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := render.Render(scene, m.format, m.opts...)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	m.images[name] = data
	m.mu.Unlock()
	return "mem:" + name, nil
}

// Get returns the stored image.
func (m *Memory) Get(name string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.images[name]
	return data, ok
}

// Names returns the stored image names in sorted order.
func (m *Memory) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.images))
	for name := range m.images {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Discard accepts scenes without rendering them.
type Discard struct{ F render.Format }

func (d Discard) Format() render.Format {
	if d.F == "" {
		return render.PNG
	}
	return d.F
}

func (Discard) Put(ctx context.Context, name string, _ record.Scene) (string, error) {
	return "", ctx.Err()
}

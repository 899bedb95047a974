// Package catalog loads source descriptors. Two layouts are supported: a
// single YAML file mapping source names to descriptors, and a catalog
// directory of Markdown documents whose YAML frontmatter is the descriptor
// and whose body is free-form documentation for the source.
package catalog

import (
	"bytes"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/parser"
	"go.abhg.dev/goldmark/frontmatter"
	"gopkg.in/yaml.v2"

	"github.com/jgivc/earthfetch/internal/common"
	"github.com/jgivc/earthfetch/internal/entity"
)

const maxEntries = 100

type Catalog struct {
	fs  afero.Fs
	md  goldmark.Markdown
	log *slog.Logger
}

func New(log *slog.Logger) *Catalog {
	return NewWithFS(afero.NewOsFs(), log)
}

func NewWithFS(fs afero.Fs, log *slog.Logger) *Catalog {
	md := goldmark.New(
		goldmark.WithExtensions(
			&frontmatter.Extender{},
		),
	)

	return &Catalog{
		fs:  fs,
		md:  md,
		log: log.With(slog.String("item", "Catalog")),
	}
}

// LoadFile reads a YAML sources file: a mapping from source name to
// descriptor.
func (c *Catalog) LoadFile(path string) (map[string]*entity.Source, error) {
	data, err := afero.ReadFile(c.fs, path)
	if err != nil {
		return nil, fmt.Errorf("cannot read sources file %s: %w", path, err)
	}

	var sources map[string]*entity.Source
	if err := yaml.Unmarshal(data, &sources); err != nil {
		return nil, fmt.Errorf("%w: cannot parse sources file %s: %v", common.ErrConfiguration, path, err)
	}

	for name, src := range sources {
		if src == nil {
			return nil, fmt.Errorf("%w: source %q in %s is empty", common.ErrConfiguration, name, path)
		}

		src.Name = name
		if err := src.Validate(); err != nil {
			return nil, fmt.Errorf("source %q in %s: %w", name, path, err)
		}
	}

	c.log.Info("Loaded sources file", slog.String("path", path), slog.Int("sources", len(sources)))

	return sources, nil
}

// LoadDir scans a catalog directory for Markdown entries and decodes each
// frontmatter block into a descriptor. Files without frontmatter are skipped:
// the directory may hold plain documentation too.
func (c *Catalog) LoadDir(dir string) (map[string]*entity.Source, error) {
	entries, err := afero.ReadDir(c.fs, dir)
	if err != nil {
		return nil, fmt.Errorf("cannot read catalog dir %s: %w", dir, err)
	}

	sources := make(map[string]*entity.Source)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		src, err := c.loadEntry(path)
		if err != nil {
			return nil, err
		}
		if src == nil {
			c.log.Debug("No descriptor frontmatter, skipping", slog.String("path", path))

			continue
		}

		if src.Name == "" {
			src.Name = strings.TrimSuffix(entry.Name(), ".md")
		}
		if _, exists := sources[src.Name]; exists {
			return nil, fmt.Errorf("%w: duplicate source %q in %s", common.ErrConfiguration, src.Name, dir)
		}

		sources[src.Name] = src

		if len(sources) >= maxEntries {
			break
		}
	}

	c.log.Info("Scanned catalog dir", slog.String("dir", dir), slog.Int("sources", len(sources)))

	return sources, nil
}

func (c *Catalog) loadEntry(path string) (*entity.Source, error) {
	content, err := afero.ReadFile(c.fs, path)
	if err != nil {
		return nil, fmt.Errorf("cannot read catalog entry %s: %w", path, err)
	}

	var buf bytes.Buffer
	pc := parser.NewContext()
	if err := c.md.Convert(content, &buf, parser.WithContext(pc)); err != nil {
		return nil, fmt.Errorf("%w: cannot parse catalog entry %s: %v", common.ErrConfiguration, path, err)
	}

	fm := frontmatter.Get(pc)
	if fm == nil {
		return nil, nil
	}

	var src entity.Source
	if err := fm.Decode(&src); err != nil {
		return nil, fmt.Errorf("%w: cannot decode descriptor in %s: %v", common.ErrConfiguration, path, err)
	}

	if err := src.Validate(); err != nil {
		return nil, fmt.Errorf("catalog entry %s: %w", path, err)
	}

	return &src, nil
}

// Merge combines source maps; later maps win on name collision.
func Merge(maps ...map[string]*entity.Source) map[string]*entity.Source {
	out := make(map[string]*entity.Source)
	for _, m := range maps {
		for name, src := range m {
			out[name] = src
		}
	}

	return out
}

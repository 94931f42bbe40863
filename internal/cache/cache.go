package cache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/kosmojs/dev/internal/errors"
	"github.com/kosmojs/dev/internal/logger"
	"github.com/kosmojs/dev/internal/paths"
	"github.com/kosmojs/dev/pkg/route"
)

// Cache is a persisted route record.
type Cache struct {
	// Hash is the route file hash at the time the record was written
	Hash uint64 `json:"hash"`

	// ReferencedFiles maps app-root-relative paths to their hashes
	ReferencedFiles map[string]uint64 `json:"referencedFiles"`

	Params           route.APIParams         `json:"params"`
	Methods          []string                `json:"methods"`
	TypeDeclarations []route.TypeDeclaration `json:"typeDeclarations"`
	NumericParams    []string                `json:"numericParams"`
	PayloadTypes     []route.PayloadType     `json:"payloadTypes"`
	ResponseTypes    []route.ResponseType    `json:"responseTypes"`
}

// Data is what Persist needs to build a record.
type Data struct {
	Params           route.APIParams
	Methods          []string
	TypeDeclarations []route.TypeDeclaration
	NumericParams    []string
	PayloadTypes     []route.PayloadType
	ResponseTypes    []route.ResponseType

	// ReferencedFiles are absolute paths
	ReferencedFiles []string
}

// Options configures a Store.
type Options struct {
	AppRoot      string
	SourceFolder string

	// ExtraContext is mixed into the route file hash, so a change in any
	// value invalidates the record.
	ExtraContext map[string]string
}

// Store reads and writes the record of one route.
type Store struct {
	file         string
	fileFullpath string
	appRoot      string
	extra        map[string]string
	log          *zap.SugaredLogger
}

// New returns the store for entry.
func New(entry route.Entry, opts Options) *Store {
	return &Store{
		file:         paths.New(opts.AppRoot, opts.SourceFolder).Resolve(paths.APILib, entry.ImportPath, paths.CacheFile),
		fileFullpath: entry.FileFullpath,
		appRoot:      opts.AppRoot,
		extra:        opts.ExtraContext,
		log:          logger.Named("cache").With("route", entry.Name),
	}
}

// File returns the location of the record.
func (s *Store) File() string {
	return s.file
}

// Get reads the record. With validate it also recomputes the route hash
// and every referenced file hash and reports a miss if any differs.
func (s *Store) Get(ctx context.Context, validate bool) (*Cache, bool) {
	data, err := os.ReadFile(s.file)
	if err != nil {
		return nil, false
	}

	var c Cache
	if err := json.Unmarshal(data, &c); err != nil {
		s.log.Debugw("cache unreadable", "error", err)
		return nil, false
	}

	if !validate {
		return &c, true
	}
	if !s.valid(ctx, &c) {
		return nil, false
	}
	return &c, true
}

func (s *Store) valid(ctx context.Context, c *Cache) bool {
	if c.Hash == 0 {
		return false
	}
	if c.TypeDeclarations == nil || c.ReferencedFiles == nil {
		s.log.Debugw("cache incomplete")
		return false
	}

	if HashFile(s.fileFullpath, s.extra) != c.Hash {
		s.log.Debugw("cache stale", "reason", "route updated")
		return false
	}

	for file, hash := range c.ReferencedFiles {
		if ctx.Err() != nil {
			return false
		}
		if HashFile(s.expand(file), nil) != hash {
			s.log.Debugw("cache stale", "reason", "referenced file updated", "file", file)
			return false
		}
	}

	return true
}

// Persist writes a fresh record built from d and returns it. The record
// replaces the previous one atomically.
func (s *Store) Persist(ctx context.Context, d Data) (*Cache, error) {
	c := &Cache{
		Hash:             HashFile(s.fileFullpath, s.extra),
		ReferencedFiles:  make(map[string]uint64, len(d.ReferencedFiles)),
		Params:           d.Params,
		Methods:          nonNil(d.Methods),
		TypeDeclarations: nonNil(d.TypeDeclarations),
		NumericParams:    nonNil(d.NumericParams),
		PayloadTypes:     make([]route.PayloadType, len(d.PayloadTypes)),
		ResponseTypes:    make([]route.ResponseType, len(d.ResponseTypes)),
	}
	c.Params.Schema = nonNil(c.Params.Schema)

	// source text was only needed to render types.ts
	for i, p := range d.PayloadTypes {
		p.Text = ""
		c.PayloadTypes[i] = p
	}
	for i, r := range d.ResponseTypes {
		r.Text = ""
		c.ResponseTypes[i] = r
	}

	for _, file := range d.ReferencedFiles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c.ReferencedFiles[s.relative(file)] = HashFile(file, nil)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, errors.New("E211").WithFile(s.file).Wrap(err)
	}

	if err := writeFileAtomic(s.file, append(data, '\n')); err != nil {
		return nil, errors.New("E210").WithFile(s.file).Wrap(err)
	}

	s.log.Debugw("cache persisted", "referencedFiles", len(c.ReferencedFiles))
	return c, nil
}

// ReferencedPaths returns the record's referenced files as sorted
// absolute paths.
func (s *Store) ReferencedPaths(c *Cache) []string {
	out := make([]string, 0, len(c.ReferencedFiles))
	for file := range c.ReferencedFiles {
		out = append(out, s.expand(file))
	}
	sort.Strings(out)
	return out
}

func (s *Store) relative(file string) string {
	rel, err := filepath.Rel(s.appRoot, file)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(file)
	}
	return filepath.ToSlash(rel)
}

func (s *Store) expand(file string) string {
	file = filepath.FromSlash(file)
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(s.appRoot, file)
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".cache-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

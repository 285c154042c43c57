// Package catalog loads the static catalogs from YAML.
package catalog

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/evidex/internal/domain"
	domcat "github.com/kailas-cloud/evidex/internal/domain/catalog"
)

//go:embed data/*.yaml
var embedded embed.FS

// Repo holds the loaded catalogs. It is read-only after construction.
type Repo struct {
	catalogs map[string]*domcat.Catalog
	names    []string
}

// New loads the catalogs from dir, or the embedded set when dir is empty.
func New(dir string) (*Repo, error) {
	if dir == "" {
		return Embedded()
	}
	return Load(os.DirFS(dir))
}

// Embedded loads the catalogs compiled into the binary.
func Embedded() (*Repo, error) {
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		return nil, fmt.Errorf("embedded catalogs: %w", err)
	}
	return Load(sub)
}

// Load reads every *.yaml file at the root of fsys as one catalog.
func Load(fsys fs.FS) (*Repo, error) {
	files, err := fs.Glob(fsys, "*.yaml")
	if err != nil {
		return nil, fmt.Errorf("list catalogs: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no catalog files found", domain.ErrInvalidCatalog)
	}
	sort.Strings(files)

	r := &Repo{catalogs: make(map[string]*domcat.Catalog, len(files))}
	for _, f := range files {
		data, err := fs.ReadFile(fsys, f)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f, err)
		}
		cat, err := decode(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path.Base(f), err)
		}
		if _, dup := r.catalogs[cat.Name]; dup {
			return nil, fmt.Errorf("%w: catalog %q defined twice", domain.ErrInvalidCatalog, cat.Name)
		}
		r.catalogs[cat.Name] = cat
		r.names = append(r.names, cat.Name)
	}
	sort.Strings(r.names)
	return r, nil
}

func decode(data []byte) (*domcat.Catalog, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var cat domcat.Catalog
	if err := dec.Decode(&cat); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", domain.ErrInvalidCatalog)
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidCatalog, strings.TrimPrefix(err.Error(), "yaml: "))
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return &cat, nil
}

// Get returns the catalog with the given name or domain.ErrNotFound.
func (r *Repo) Get(name string) (*domcat.Catalog, error) {
	cat, ok := r.catalogs[name]
	if !ok {
		return nil, fmt.Errorf("catalog %q: %w", name, domain.ErrNotFound)
	}
	return cat, nil
}

// Names returns the catalog names in sorted order.
func (r *Repo) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// All returns every catalog, sorted by name.
func (r *Repo) All() []*domcat.Catalog {
	out := make([]*domcat.Catalog, 0, len(r.names))
	for _, n := range r.names {
		out = append(out, r.catalogs[n])
	}
	return out
}

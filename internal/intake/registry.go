package intake

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"intake-backend/internal/textutil"
)

// ErrUnknownService is returned when a service id matches no definition
// and no default service is configured.
var ErrUnknownService = errors.New("unknown service")

//go:embed services/*.yaml services/catalog.md
var builtinServices embed.FS

const builtinCatalog = "services/catalog.md"

// bankFile is the yaml layout of a static question bank.
type bankFile struct {
	Service   string     `yaml:"service"`
	Title     string     `yaml:"title"`
	Aliases   []string   `yaml:"aliases"`
	Questions []Question `yaml:"questions"`
}

// RegistryOptions choose where service definitions come from. Empty paths
// use the definitions embedded in the binary.
type RegistryOptions struct {
	ServicesDir    string
	CatalogFile    string
	DefaultService string
}

// ServiceInfo describes a registered service for listing.
type ServiceInfo struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Aliases     []string `json:"aliases,omitempty"`
	Questions   int      `json:"questions"`
	FromCatalog bool     `json:"fromCatalog"`
}

// Registry is the immutable set of service definitions. Accessors return
// copies.
type Registry struct {
	services map[string]ServiceDef
	aliases  map[string]string
	fallback string
}

// LoadRegistry reads the yaml banks and the service catalog. Catalog
// definitions replace banks for the same service.
func LoadRegistry(opts RegistryOptions) (*Registry, error) {
	var banks fs.FS = builtinServices
	dir := "services"
	if opts.ServicesDir != "" {
		banks, dir = os.DirFS(opts.ServicesDir), "."
	}
	defs, err := loadBanks(banks, dir)
	if err != nil {
		return nil, err
	}

	var catalog []byte
	if opts.CatalogFile != "" {
		catalog, err = os.ReadFile(opts.CatalogFile)
	} else {
		catalog, err = builtinServices.ReadFile(builtinCatalog)
	}
	if err != nil {
		return nil, fmt.Errorf("read service catalog: %w", err)
	}
	catalogDefs, err := ParseCatalog(bytes.NewReader(catalog))
	if err != nil {
		return nil, fmt.Errorf("parse service catalog: %w", err)
	}
	return NewRegistry(append(defs, catalogDefs...), opts.DefaultService)
}

func loadBanks(fsys fs.FS, dir string) ([]ServiceDef, error) {
	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := fs.Glob(fsys, path.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("list service banks: %w", err)
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	defs := make([]ServiceDef, 0, len(files))
	for _, f := range files {
		data, err := fs.ReadFile(fsys, f)
		if err != nil {
			return nil, fmt.Errorf("read service bank %s: %w", f, err)
		}
		def, err := ParseBank(data)
		if err != nil {
			return nil, fmt.Errorf("service bank %s: %w", f, err)
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// ParseBank decodes one yaml question bank.
func ParseBank(data []byte) (ServiceDef, error) {
	var bf bankFile
	if err := yaml.Unmarshal(data, &bf); err != nil {
		return ServiceDef{}, fmt.Errorf("decode yaml: %w", err)
	}
	if strings.TrimSpace(bf.Service) == "" {
		return ServiceDef{}, fmt.Errorf("missing service id")
	}
	title := bf.Title
	if title == "" {
		title = textutil.TitleCase(strings.NewReplacer("-", " ", "_", " ").Replace(bf.Service))
	}
	return ServiceDef{ID: bf.Service, Title: title, Aliases: bf.Aliases, Questions: bf.Questions}, nil
}

// NewRegistry prepares every question and indexes the definitions by
// canonical id and alias. Later definitions replace earlier ones with the
// same id. fallback, when set, must name a registered service.
func NewRegistry(defs []ServiceDef, fallback string) (*Registry, error) {
	r := &Registry{
		services: make(map[string]ServiceDef, len(defs)),
		aliases:  make(map[string]string),
	}
	for _, def := range defs {
		id := serviceKey(def.ID)
		if id == "" {
			return nil, fmt.Errorf("service without id")
		}
		if len(def.Questions) == 0 {
			return nil, fmt.Errorf("service %s has no questions", def.ID)
		}
		qs := make([]Question, 0, len(def.Questions))
		for _, q := range def.Questions {
			pq, err := Prepare(q)
			if err != nil {
				return nil, fmt.Errorf("service %s: %w", def.ID, err)
			}
			qs = append(qs, pq)
		}
		def.Questions = qs
		r.services[id] = def
		for _, a := range append([]string{def.Title}, def.Aliases...) {
			if k := serviceKey(a); k != "" {
				r.aliases[k] = id
			}
		}
	}
	if fallback != "" {
		k := r.resolve(fallback)
		if k == "" {
			return nil, fmt.Errorf("default service %q: %w", fallback, ErrUnknownService)
		}
		r.fallback = k
	}
	return r, nil
}

func serviceKey(s string) string {
	return textutil.Slug(s)
}

func (r *Registry) resolve(service string) string {
	k := serviceKey(service)
	if _, ok := r.services[k]; ok {
		return k
	}
	if id, ok := r.aliases[k]; ok {
		return id
	}
	return ""
}

// Lookup returns the definition for service, matched on id, title or
// alias regardless of case and punctuation. Unknown services resolve to
// the default service when one is configured.
func (r *Registry) Lookup(service string) (ServiceDef, error) {
	k := r.resolve(service)
	if k == "" {
		k = r.fallback
	}
	def, ok := r.services[k]
	if !ok {
		return ServiceDef{}, fmt.Errorf("%q: %w", service, ErrUnknownService)
	}
	def.Questions = append([]Question(nil), def.Questions...)
	def.Aliases = append([]string(nil), def.Aliases...)
	return def, nil
}

// Services lists the registered services sorted by id.
func (r *Registry) Services() []ServiceInfo {
	out := make([]ServiceInfo, 0, len(r.services))
	for _, def := range r.services {
		out = append(out, ServiceInfo{
			ID:          def.ID,
			Title:       def.Title,
			Aliases:     append([]string(nil), def.Aliases...),
			Questions:   len(def.Questions),
			FromCatalog: def.FromCatalog,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

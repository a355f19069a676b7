package catalog

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gosimple/slug"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

//go:embed services.yml
var defaultServices []byte

//go:embed templates/*.tmpl
var templateFS embed.FS

var (
	ErrServiceNotFound  = errors.New("service not found")
	ErrTemplateNotFound = errors.New("prompt template not found")
)

// Catalog is an immutable snapshot of the service definitions.
type Catalog struct {
	services map[string]ServiceDefinition
}

// Get resolves a service definition by slug.
func (c *Catalog) Get(serviceSlug string) (ServiceDefinition, error) {
	def, ok := c.services[slug.Make(strings.TrimSpace(serviceSlug))]
	if !ok {
		return ServiceDefinition{}, ErrServiceNotFound
	}
	return def, nil
}

// Slugs returns all known service slugs.
func (c *Catalog) Slugs() []string {
	out := make([]string, 0, len(c.services))
	for s := range c.services {
		out = append(out, s)
	}
	return out
}

// Template loads the raw prompt template text for a service.
func (c *Catalog) Template(def ServiceDefinition) (string, error) {
	name := strings.TrimSpace(def.Template)
	if name == "" {
		name = def.Slug
	}
	raw, err := templateFS.ReadFile("templates/" + name + ".tmpl")
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}
	return string(raw), nil
}

// ValidateInputs checks submitted inputs against the service field schema.
// It runs before a checkout session is created and again when the payment
// event is reconstituted.
func (c *Catalog) ValidateInputs(def ServiceDefinition, inputs map[string]string) error {
	for _, field := range def.Fields {
		value := strings.TrimSpace(inputs[field.Name])
		if value == "" {
			if field.Required {
				return fmt.Errorf("missing required field %q", field.Name)
			}
			continue
		}
		switch field.InputType {
		case InputEmail:
			if !strings.Contains(value, "@") || strings.Count(value, "@") != 1 {
				return fmt.Errorf("field %q is not a valid email", field.Name)
			}
		case InputDate:
			if !isParsableDate(value) {
				return fmt.Errorf("field %q is not a valid date", field.Name)
			}
		case InputNumber:
			if _, err := strconv.ParseFloat(value, 64); err != nil {
				return fmt.Errorf("field %q is not a valid number", field.Name)
			}
		}
	}
	return nil
}

func isParsableDate(value string) bool {
	for _, layout := range []string{"2006-01-02", "02/01/2006", "01/02/2006", "2 January 2006", "January 2, 2006"} {
		if _, err := time.Parse(layout, value); err == nil {
			return true
		}
	}
	return false
}

// Holder keeps the current catalog snapshot, reloading services.yml when it
// changes on disk. Lookups always see a complete snapshot.
type Holder struct {
	current atomic.Value // holds *Catalog
	log     *zap.Logger
}

// NewHolder loads the catalog from services.yml (embedded defaults when no
// file is present) and watches for changes.
func NewHolder(log *zap.Logger) (*Holder, error) {
	v := viper.New()
	v.SetConfigName("services")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/papermint")
	v.AddConfigPath(".")

	usedFile := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		usedFile = false
		if err := v.ReadConfig(bytes.NewReader(defaultServices)); err != nil {
			return nil, err
		}
	}

	holder := &Holder{log: log}
	catalog, err := snapshotFromViper(v)
	if err != nil {
		return nil, err
	}
	holder.current.Store(catalog)

	if usedFile {
		v.OnConfigChange(func(_ fsnotify.Event) {
			reloaded, err := snapshotFromViper(v)
			if err != nil {
				if log != nil {
					log.Warn("service catalog reload failed, keeping previous snapshot", zap.Error(err))
				}
				return
			}
			holder.current.Store(reloaded)
			if log != nil {
				log.Info("service catalog reloaded", zap.Int("services", len(reloaded.services)))
			}
		})
		v.WatchConfig()
	}

	return holder, nil
}

// Current returns the live catalog snapshot.
func (h *Holder) Current() *Catalog {
	return h.current.Load().(*Catalog)
}

func snapshotFromViper(v *viper.Viper) (*Catalog, error) {
	var raw struct {
		Services []ServiceDefinition `mapstructure:"services"`
	}
	if err := v.Unmarshal(&raw); err != nil {
		return nil, err
	}
	if len(raw.Services) == 0 {
		return nil, errors.New("service catalog is empty")
	}

	services := make(map[string]ServiceDefinition, len(raw.Services))
	for _, def := range raw.Services {
		def.Slug = slug.Make(strings.TrimSpace(def.Slug))
		if def.Slug == "" {
			return nil, errors.New("service with empty slug")
		}
		if def.OutputMode != OutputJSON && def.OutputMode != OutputText {
			return nil, fmt.Errorf("service %q: unknown output mode %q", def.Slug, def.OutputMode)
		}
		if def.Temperature <= 0 {
			def.Temperature = 0.4
		}
		if def.CaseRefPrefix == "" {
			def.CaseRefPrefix = strings.ToUpper(def.Slug[:min(3, len(def.Slug))])
		}
		services[def.Slug] = def
	}
	return &Catalog{services: services}, nil
}

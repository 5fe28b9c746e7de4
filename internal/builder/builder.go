// Package builder builds attribute sets from schemas and raw data.
package builder

import (
	"log/slog"

	"github.com/dball/lazyattrs/internal/attribute"
	"github.com/dball/lazyattrs/internal/attrset"
	"github.com/dball/lazyattrs/internal/index"
	"github.com/dball/lazyattrs/internal/metrics"
	. "github.com/dball/lazyattrs/internal/types"
	"golang.org/x/exp/maps"
)

type Config struct {
	// Degree is the btree degree of the built sets.
	Degree int
	// Defaults are used for names absent from the raw data, e.g. to keep a
	// primary key always initialized. Each built set gets its own deep copy,
	// stored under the default's key.
	Defaults map[string]*attribute.Attribute
	// UseTypeDefaults initializes names absent from the raw data and Defaults
	// with their type's default value, as if given by a user.
	UseTypeDefaults bool
	Logger          *slog.Logger
	// Metrics, if given, counts the casts of the built attributes.
	Metrics *metrics.Collector
}

var defaultConfig Config = Config{
	Degree: index.DefaultDegree,
}

type Builder struct {
	schema Schema
	config Config
	logger *slog.Logger
}

func New(schema Schema, config Config) (builder *Builder) {
	if config.Degree < 2 {
		config.Degree = defaultConfig.Degree
	}
	config.Defaults = maps.Clone(config.Defaults)
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	builder = &Builder{schema: schema, config: config, logger: logger}
	return
}

func (builder *Builder) Schema() Schema {
	return builder.schema
}

// Build returns a set of the schema's fields for the raw data. Each name is
// typed by its override, if any, else by the schema. Names in the raw data are
// built from the database; other names use their default attribute, if any,
// and are otherwise uninitialized.
func (builder *Builder) Build(raw map[string]any, overrides map[string]Type) (set *attrset.Set) {
	fields := builder.schema.Fields(raw, overrides)
	attrs := make([]*attribute.Attribute, 0, len(fields))
	for _, field := range fields {
		typ := field.Type
		if override, ok := overrides[field.Name]; ok {
			typ = override
		}
		typ = builder.config.Metrics.Instrument(typ)
		attrs = append(attrs, builder.build(field.Name, typ, raw))
	}
	set = attrset.Of(builder.config.Degree, attrs...)
	builder.logger.Debug("built attribute set",
		"fields", len(fields),
		"raw", len(raw),
		"overrides", len(overrides),
	)
	return
}

func (builder *Builder) build(name string, typ Type, raw map[string]any) (attr *attribute.Attribute) {
	if value, ok := raw[name]; ok {
		attr = attribute.NewFromDatabase(name, value, typ)
		return
	}
	if def := builder.config.Defaults[name]; def != nil {
		attr = def.DeepCopy().WithName(name)
		return
	}
	if builder.config.UseTypeDefaults {
		attr = attribute.FromDefault(name, typ)
		return
	}
	attr = attribute.NewUninitialized(name, typ)
	return
}

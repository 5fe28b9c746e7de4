// Package metrics counts the casts performed by attribute types.
package metrics

import (
	"fmt"

	. "github.com/dball/lazyattrs/internal/types"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	SourceUser     = "user"
	SourceDatabase = "database"
)

// Collector holds the cast counters.
type Collector struct {
	casts    *prometheus.CounterVec
	failures *prometheus.CounterVec
}

// NewCollector creates the cast counters and registers them with the
// registerer, if one is given.
func NewCollector(reg prometheus.Registerer) (collector *Collector, err error) {
	collector = &Collector{
		casts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lazyattrs_casts_total",
			Help: "Casts performed by attribute types, by type and raw value source.",
		}, []string{"type", "source"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lazyattrs_cast_failures_total",
			Help: "Casts that returned an error, by type and raw value source.",
		}, []string{"type", "source"}),
	}
	if reg == nil {
		return
	}
	for _, c := range []prometheus.Collector{collector.casts, collector.failures} {
		if err = reg.Register(c); err != nil {
			collector = nil
			return
		}
	}
	return
}

// Casts returns the cast counter for the labels.
func (collector *Collector) Casts(typ string, source string) prometheus.Counter {
	return collector.casts.WithLabelValues(typ, source)
}

// Failures returns the cast failure counter for the labels.
func (collector *Collector) Failures(typ string, source string) prometheus.Counter {
	return collector.failures.WithLabelValues(typ, source)
}

// Instrument returns a type that counts the casts of the given type. Named
// types stay named. A nil collector returns the type unchanged.
func (collector *Collector) Instrument(typ Type) Type {
	if collector == nil || typ == nil {
		return typ
	}
	if _, ok := typ.(*instrumented); ok {
		return typ
	}
	if _, ok := typ.(*namedInstrumented); ok {
		return typ
	}
	label, named := Ident(typ)
	if !named {
		label = fmt.Sprintf("%T", typ)
	}
	inner := &instrumented{Type: typ, label: label, collector: collector}
	if named {
		return &namedInstrumented{instrumented: inner}
	}
	return inner
}

var _ Wrapper = (*instrumented)(nil)

type instrumented struct {
	Type
	label     string
	collector *Collector
}

func (t *instrumented) Unwrap() Type {
	return t.Type
}

func (t *instrumented) count(source string, value any, err error) (any, error) {
	t.collector.Casts(t.label, source).Inc()
	if err != nil {
		t.collector.Failures(t.label, source).Inc()
	}
	return value, err
}

func (t *instrumented) CastFromUser(raw any) (any, error) {
	value, err := t.Type.CastFromUser(raw)
	return t.count(SourceUser, value, err)
}

func (t *instrumented) CastFromDatabase(raw any) (any, error) {
	value, err := t.Type.CastFromDatabase(raw)
	return t.count(SourceDatabase, value, err)
}

type namedInstrumented struct {
	*instrumented
}

func (t *namedInstrumented) Ident() string {
	return t.label
}

// Package metricschema maps metric types to the shape of their value payload.
//
// A Registry is assembled once from a list of Schema values and is read-only
// afterwards, so it is safe for concurrent use. Supporting a new metric type
// only requires a new Schema; stores never inspect values themselves.
package metricschema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/yusufkecer/fit-tracker-backend/internal/domain"
)

// Field is one required numeric member of a value payload. Rule is a
// validator tag applied to the parsed number, e.g. "gt=0".
type Field struct {
	Name string
	Rule string
}

// Schema describes the value payload of one metric type. Fields are emitted
// in declaration order in the canonical form.
type Schema struct {
	Type   string
	Fields []Field
}

type Registry struct {
	schemas  map[string]Schema
	allowed  []string
	validate *validator.Validate
}

// New builds a registry from the given schemas.
func New(schemas ...Schema) (*Registry, error) {
	r := &Registry{
		schemas:  make(map[string]Schema, len(schemas)),
		validate: validator.New(),
	}
	for _, s := range schemas {
		if s.Type == "" {
			return nil, errors.New("metric schema without type")
		}
		if _, dup := r.schemas[s.Type]; dup {
			return nil, fmt.Errorf("metric type %q registered twice", s.Type)
		}
		if len(s.Fields) == 0 {
			return nil, fmt.Errorf("metric type %q has no fields", s.Type)
		}
		seen := make(map[string]bool, len(s.Fields))
		for _, f := range s.Fields {
			if f.Name == "" || seen[f.Name] {
				return nil, fmt.Errorf("metric type %q: invalid or duplicate field %q", s.Type, f.Name)
			}
			seen[f.Name] = true
		}
		r.schemas[s.Type] = s
		r.allowed = append(r.allowed, s.Type)
	}
	sort.Strings(r.allowed)
	return r, nil
}

// MustNew is New for static schema lists.
func MustNew(schemas ...Schema) *Registry {
	r, err := New(schemas...)
	if err != nil {
		panic(err)
	}
	return r
}

// Allowed returns the registered metric types in sorted order.
func (r *Registry) Allowed() []string {
	return append([]string(nil), r.allowed...)
}

func (r *Registry) Has(metricType string) bool {
	_, ok := r.schemas[metricType]
	return ok
}

// Validate checks raw against the schema of metricType and returns it in
// canonical form.
func (r *Registry) Validate(metricType string, raw json.RawMessage) (domain.MetricValue, error) {
	s, ok := r.schemas[metricType]
	if !ok {
		return nil, &domain.UnknownMetricTypeError{Type: metricType, Allowed: r.Allowed()}
	}
	invalid := func(field, constraint string) error {
		return &domain.InvalidValueError{MetricType: metricType, Field: field, Constraint: constraint}
	}

	var members map[string]json.RawMessage
	if err := json.Unmarshal(raw, &members); err != nil || members == nil {
		return nil, invalid("value", "object")
	}

	known := make(map[string]bool, len(s.Fields))
	for _, f := range s.Fields {
		known[f.Name] = true
	}
	var unknown []string
	for name := range members {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, invalid(unknown[0], "unknown field")
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range s.Fields {
		member, ok := members[f.Name]
		if !ok {
			return nil, invalid(f.Name, "required")
		}
		n, ok := parseNumber(member)
		if !ok {
			return nil, invalid(f.Name, "numeric")
		}
		if f.Rule != "" {
			if err := r.validate.Var(n, f.Rule); err != nil {
				return nil, invalid(f.Name, violatedRule(err, f.Rule))
			}
		}
		if i > 0 {
			buf.WriteByte(',')
		}
		name, _ := json.Marshal(f.Name)
		buf.Write(name)
		buf.WriteByte(':')
		buf.WriteString(strconv.FormatFloat(n, 'f', -1, 64))
	}
	buf.WriteByte('}')
	return domain.MetricValue(buf.Bytes()), nil
}

func parseNumber(member json.RawMessage) (float64, bool) {
	dec := json.NewDecoder(bytes.NewReader(member))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return 0, false
	}
	num, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	f, err := num.Float64()
	if err != nil {
		return 0, false
	}
	return f, true
}

func violatedRule(err error, rule string) string {
	var errs validator.ValidationErrors
	if errors.As(err, &errs) && len(errs) > 0 {
		fe := errs[0]
		if fe.Param() != "" {
			return fe.Tag() + "=" + fe.Param()
		}
		return fe.Tag()
	}
	return rule
}

package model

import (
	"fmt"
	"strings"
	"time"
)

// Kind is the declared type of a model field.
type Kind string

const (
	KindString    Kind = "string"
	KindBool      Kind = "bool"
	KindTimestamp Kind = "timestamp"
	// KindReference holds the primary identifier of another model's
	// document (the referenced user's email in this schema).
	KindReference Kind = "reference"
)

// Field is one row of a model's schema descriptor.
type Field struct {
	Name     string
	Kind     Kind
	Required bool
	// Default is applied on create when the field is absent. A nil
	// Default means the field has none.
	Default any
}

// Descriptor is the static schema of one persisted model. It is the
// single source of truth for validation, serialization and the
// discovery endpoint; no runtime reflection is involved.
type Descriptor struct {
	// Name is the lowercase singular type name, e.g. "post".
	Name string

	// Fields is the ordered list of stored fields.
	Fields []Field

	// Export lists the field names permitted to leave the system in a
	// serialized response. Names not present in Fields ("id",
	// "author_handle") are derived at export time.
	Export []string

	// NaturalKey names the field used verbatim as the document's
	// primary identifier. Empty means the store assigns a generated
	// ObjectID.
	NaturalKey string
}

// Plural is the route segment for the model's collection.
func (d Descriptor) Plural() string {
	return d.Name + "s"
}

// Field returns the schema row for the named field.
func (d Descriptor) Field(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// HasAuthor reports whether the model carries an author field, which
// decides whether create stamps the caller's identity onto the payload.
func (d Descriptor) HasAuthor() bool {
	_, ok := d.Field("author")
	return ok
}

// Exported reports whether the named field is part of the export view.
func (d Descriptor) Exported(name string) bool {
	for _, f := range d.Export {
		if f == name {
			return true
		}
	}
	return false
}

// ApplyDefaults fills in declared defaults for absent fields.
func (d Descriptor) ApplyDefaults(doc map[string]any) {
	for _, f := range d.Fields {
		if f.Default == nil {
			continue
		}
		if _, ok := doc[f.Name]; !ok {
			doc[f.Name] = f.Default
		}
	}
}

// Validate checks doc against the schema and coerces values to their
// declared kinds in place (timestamp strings become time.Time). It
// returns one message per violated field, empty when the document is
// valid.
func (d Descriptor) Validate(doc map[string]any) []string {
	var errs []string
	for name := range doc {
		if _, ok := d.Field(name); !ok {
			errs = append(errs, fmt.Sprintf("unknown field: %s", name))
		}
	}
	for _, f := range d.Fields {
		value, present := doc[f.Name]
		if !present {
			if f.Required {
				errs = append(errs, fmt.Sprintf("%s is required", f.Name))
			}
			continue
		}
		coerced, err := coerce(f, value)
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}
		doc[f.Name] = coerced
	}
	return errs
}

func coerce(f Field, value any) (any, error) {
	switch f.Kind {
	case KindBool:
		b, ok := value.(bool)
		if !ok {
			return nil, fmt.Errorf("%s must be a boolean", f.Name)
		}
		return b, nil
	case KindTimestamp:
		switch v := value.(type) {
		case time.Time:
			return v, nil
		case string:
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return nil, fmt.Errorf("%s must be an RFC3339 timestamp", f.Name)
			}
			return t, nil
		default:
			return nil, fmt.Errorf("%s must be an RFC3339 timestamp", f.Name)
		}
	default:
		// KindString and KindReference both hold strings on the wire.
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%s must be a string", f.Name)
		}
		if f.Required && strings.TrimSpace(s) == "" {
			return nil, fmt.Errorf("%s is required", f.Name)
		}
		return s, nil
	}
}

// Example builds the illustrative create payload served by the
// discovery endpoint: every stored field mapped to its uppercased name
// in angle brackets.
func (d Descriptor) Example() map[string]any {
	example := make(map[string]any, len(d.Fields))
	for _, f := range d.Fields {
		example[f.Name] = placeholder(f.Name)
	}
	return example
}

// UpdateExample builds the illustrative update payload: a $set document
// assigning the model's first field.
func (d Descriptor) UpdateExample() map[string]any {
	first := d.Fields[0].Name
	return map[string]any{
		"$set": map[string]any{first: placeholder(first)},
	}
}

func placeholder(name string) string {
	return "<" + strings.ToUpper(name) + ">"
}

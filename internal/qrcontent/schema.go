package qrcontent

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrUnknownType signals that a type id is not present in the registry.
// Lookup, Validate and Encode all refuse to guess a fallback schema.
var ErrUnknownType = errors.New("unknown qr content type")

// FieldRule is a closed sum over the supported field kinds. Rules are plain
// data; validation never reflects over anything.
type FieldRule interface {
	fieldRule()
}

// StringField validates a free-text value.
type StringField struct {
	Required bool
	MinLen   int
	MaxLen   int
	// Pattern, when set, must match the trimmed value. PatternHint is the
	// user-facing message on mismatch.
	Pattern     *regexp.Regexp
	PatternHint string
	// Default is substituted only when the field is optional and absent.
	Default string
	// StripPrefix is removed from the front of the value after validation
	// passes. Used for "@username" style inputs.
	StripPrefix string
}

// EnumField validates membership in a fixed value set.
type EnumField struct {
	Values  []string
	Default string
}

// BoolField coerces to a boolean; it cannot fail validation.
type BoolField struct {
	Default bool
}

func (StringField) fieldRule() {}
func (EnumField) fieldRule()   {}
func (BoolField) fieldRule()   {}

// Field binds a named form field to its rule plus presentation hints.
type Field struct {
	Name        string
	Label       string
	Placeholder string
	// Widget overrides the deriver's default input kind ("password", "tel"...).
	Widget string
	Rule   FieldRule
}

// FieldError is one user-correctable problem with a submitted field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every field-level problem found in a submission,
// in schema declaration order, so a form can show them all at once.
type ValidationError struct {
	Errors []FieldError `json:"errors"`
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		msgs[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Values holds a submission that passed validation. String and enum fields
// are stored as string, boolean fields as bool. Absent optional fields
// without defaults are simply not present.
type Values map[string]any

// Str returns the string value for name, or "" when absent.
func (v Values) Str(name string) string {
	s, _ := v[name].(string)
	return s
}

// Bool returns the boolean value for name, or false when absent.
func (v Values) Bool(name string) bool {
	b, _ := v[name].(bool)
	return b
}

// Has reports whether the field carries a value.
func (v Values) Has(name string) bool {
	_, ok := v[name]
	return ok
}

// Validate runs raw form input through typeID's schema. All failures are
// collected; a non-nil Values result satisfies every declared constraint.
func Validate(typeID string, raw map[string]any) (Values, error) {
	def, err := Lookup(typeID)
	if err != nil {
		return nil, err
	}

	out := make(Values, len(def.Fields))
	var verr ValidationError

	for _, f := range def.Fields {
		switch rule := f.Rule.(type) {
		case StringField:
			validateString(f, rule, raw, out, &verr)
		case EnumField:
			validateEnum(f, rule, raw, out, &verr)
		case BoolField:
			out[f.Name] = coerceBool(raw[f.Name], rule.Default)
		}
	}

	if len(verr.Errors) > 0 {
		return nil, &verr
	}
	return out, nil
}

func validateString(f Field, rule StringField, raw map[string]any, out Values, verr *ValidationError) {
	val, present := rawString(raw, f.Name)
	val = strings.TrimSpace(val)

	if val == "" {
		if rule.Required {
			verr.Errors = append(verr.Errors, FieldError{f.Name, f.Label + " is required"})
			return
		}
		if rule.Default != "" {
			out[f.Name] = rule.Default
		}
		_ = present
		return
	}

	if rule.MinLen > 0 && len(val) < rule.MinLen {
		verr.Errors = append(verr.Errors, FieldError{f.Name, fmt.Sprintf("%s is too short (min %d characters)", f.Label, rule.MinLen)})
		return
	}
	if rule.MaxLen > 0 && len(val) > rule.MaxLen {
		verr.Errors = append(verr.Errors, FieldError{f.Name, fmt.Sprintf("%s is too long (max %d characters)", f.Label, rule.MaxLen)})
		return
	}
	if rule.Pattern != nil && !rule.Pattern.MatchString(val) {
		hint := rule.PatternHint
		if hint == "" {
			hint = f.Label + " has an invalid format"
		}
		verr.Errors = append(verr.Errors, FieldError{f.Name, hint})
		return
	}

	if rule.StripPrefix != "" {
		val = strings.TrimPrefix(val, rule.StripPrefix)
	}
	out[f.Name] = val
}

func validateEnum(f Field, rule EnumField, raw map[string]any, out Values, verr *ValidationError) {
	val, present := rawString(raw, f.Name)
	val = strings.TrimSpace(val)

	if !present || val == "" {
		out[f.Name] = rule.Default
		return
	}

	for _, allowed := range rule.Values {
		if val == allowed {
			out[f.Name] = val
			return
		}
	}
	verr.Errors = append(verr.Errors, FieldError{
		Field:   f.Name,
		Message: fmt.Sprintf("%s must be one of: %s", f.Label, strings.Join(rule.Values, ", ")),
	})
}

func rawString(raw map[string]any, name string) (string, bool) {
	v, ok := raw[name]
	if !ok || v == nil {
		return "", false
	}
	switch s := v.(type) {
	case string:
		return s, true
	default:
		return fmt.Sprint(v), true
	}
}

func coerceBool(v any, def bool) bool {
	switch b := v.(type) {
	case nil:
		return def
	case bool:
		return b
	case string:
		return strings.EqualFold(b, "true") || b == "1"
	case float64: // JSON numbers decode to float64
		return b != 0
	default:
		return def
	}
}

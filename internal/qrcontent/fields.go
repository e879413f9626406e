package qrcontent

// FieldDescriptor is the renderable shape of one schema field, consumed by
// the form builder in the UI layer.
type FieldDescriptor struct {
	Name        string   `json:"name"`
	Label       string   `json:"label"`
	Widget      string   `json:"widget"`
	Placeholder string   `json:"placeholder,omitempty"`
	Required    bool     `json:"required"`
	MaxLen      int      `json:"max_len,omitempty"`
	Options     []string `json:"options,omitempty"`
	Default     string   `json:"default,omitempty"`
}

// Long free-text fields render as a textarea instead of a single-line input.
const textareaThreshold = 200

// DeriveFields maps a type's schema to input descriptors in declaration
// order.
func DeriveFields(typeID string) ([]FieldDescriptor, error) {
	def, err := Lookup(typeID)
	if err != nil {
		return nil, err
	}

	out := make([]FieldDescriptor, 0, len(def.Fields))
	for _, f := range def.Fields {
		d := FieldDescriptor{
			Name:        f.Name,
			Label:       f.Label,
			Placeholder: f.Placeholder,
			Widget:      f.Widget,
		}

		switch rule := f.Rule.(type) {
		case StringField:
			d.Required = rule.Required
			d.MaxLen = rule.MaxLen
			d.Default = rule.Default
			if d.Widget == "" {
				if rule.MaxLen > textareaThreshold {
					d.Widget = "textarea"
				} else {
					d.Widget = "text"
				}
			}
		case EnumField:
			d.Widget = "select"
			d.Options = append([]string(nil), rule.Values...)
			d.Default = rule.Default
		case BoolField:
			d.Widget = "checkbox"
			if rule.Default {
				d.Default = "true"
			}
		}

		out = append(out, d)
	}
	return out, nil
}

package catalog

// InputType enumerates accepted form field kinds.
type InputType string

const (
	InputText   InputType = "text"
	InputDate   InputType = "date"
	InputEmail  InputType = "email"
	InputNumber InputType = "number"
)

// FieldRole marks fields whose values must pass the sanitizer.
type FieldRole string

const (
	RoleGeneric      FieldRole = "generic"
	RoleOrganization FieldRole = "organization"
	RolePerson       FieldRole = "person"
)

// OutputMode selects the structural validator for generated content.
type OutputMode string

const (
	OutputJSON OutputMode = "json"
	OutputText OutputMode = "text"
)

// FieldSpec describes one form input of a service.
type FieldSpec struct {
	Name        string    `mapstructure:"name"`
	Label       string    `mapstructure:"label"`
	InputType   InputType `mapstructure:"type"`
	Role        FieldRole `mapstructure:"role"`
	Required    bool      `mapstructure:"required"`
	Placeholder string    `mapstructure:"placeholder"`
}

// ServiceDefinition is one document-generation offering. Loaded once from
// configuration and immutable afterwards.
type ServiceDefinition struct {
	Slug            string      `mapstructure:"slug"`
	DisplayName     string      `mapstructure:"displayName"`
	PriceMinorUnits int64       `mapstructure:"priceMinorUnits"`
	DocumentType    string      `mapstructure:"documentType"`
	OutputMode      OutputMode  `mapstructure:"outputMode"`
	Temperature     float64     `mapstructure:"temperature"`
	CaseRefPrefix   string      `mapstructure:"caseRefPrefix"`
	Template        string      `mapstructure:"template"`
	RequiredKeys    []string    `mapstructure:"requiredKeys"`
	Fields          []FieldSpec `mapstructure:"fields"`
}

// Field returns the field spec by name.
func (s ServiceDefinition) Field(name string) (FieldSpec, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

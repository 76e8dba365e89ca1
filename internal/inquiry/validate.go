package inquiry

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// emailPattern accepts anything shaped like a@b.c.
var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

var violationMessages = map[string]string{
	FieldName:        "Nombre es requerido",
	FieldCompany:     "Empresa es requerida",
	FieldEmail:       "Email válido es requerido",
	FieldQuantity:    "Cantidad es requerida",
	FieldProductType: "Tipo de producto no válido",
	FieldMessage:     "Mensaje es requerido",
}

// Violation describes one field that blocks submission.
type Violation struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// Validator checks drafts against the required-field, email and product
// rules. It holds no per-draft state and is safe for concurrent use.
type Validator struct {
	validate     *validator.Validate
	productTypes map[string]struct{}
	defaultType  string
}

// NewValidator builds a Validator accepting the given product tags. The first
// tag is the default selection for new drafts.
func NewValidator(productTypes []string) *Validator {
	v := &Validator{productTypes: make(map[string]struct{}, len(productTypes))}
	for _, tag := range productTypes {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if v.defaultType == "" {
			v.defaultType = tag
		}
		v.productTypes[tag] = struct{}{}
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("form"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	_ = validate.RegisterValidation("trimmed", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = validate.RegisterValidation("looseemail", func(fl validator.FieldLevel) bool {
		email := fl.Field().String()
		return strings.TrimSpace(email) != "" && emailPattern.MatchString(email)
	})
	_ = validate.RegisterValidation("producttype", func(fl validator.FieldLevel) bool {
		_, ok := v.productTypes[fl.Field().String()]
		return ok
	})
	v.validate = validate
	return v
}

// DefaultProductType returns the tag preselected on empty drafts.
func (v *Validator) DefaultProductType() string {
	return v.defaultType
}

// Validate returns every violation in the draft. An empty result means the
// draft can be submitted.
func (v *Validator) Validate(draft Inquiry) []Violation {
	err := v.validate.Struct(draft)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []Violation{{Field: "", Rule: "invalid", Message: err.Error()}}
	}
	violations := make([]Violation, 0, len(fieldErrs))
	for _, fieldErr := range fieldErrs {
		violations = append(violations, Violation{
			Field:   fieldErr.Field(),
			Rule:    fieldErr.Tag(),
			Message: violationMessages[fieldErr.Field()],
		})
	}
	return violations
}

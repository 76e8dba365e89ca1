package inquiry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validDraft() Inquiry {
	return Inquiry{
		Name:        "Ana Pérez",
		Company:     "Agrícola Sur",
		Email:       "ana@agricolasur.cl",
		Quantity:    "1000",
		ProductType: "caja-paltas",
		Message:     "Cotización temporada 2025",
	}
}

func violationFields(vs []Violation) []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.Field)
	}
	return out
}

func TestValidateAcceptsCompleteDraft(t *testing.T) {
	v := NewValidator([]string{"caja-paltas"})
	assert.Empty(t, v.Validate(validDraft()))
}

func TestValidatePhoneIsOptional(t *testing.T) {
	v := NewValidator([]string{"caja-paltas"})
	draft := validDraft()
	draft.Phone = ""
	assert.Empty(t, v.Validate(draft))
}

func TestValidateReportsEveryMissingField(t *testing.T) {
	v := NewValidator([]string{"caja-paltas"})

	violations := v.Validate(New("caja-paltas"))

	assert.ElementsMatch(t,
		[]string{FieldName, FieldCompany, FieldEmail, FieldQuantity, FieldMessage},
		violationFields(violations))
	for _, violation := range violations {
		assert.NotEmpty(t, violation.Message)
	}
}

func TestValidateWhitespaceOnlyCountsAsMissing(t *testing.T) {
	v := NewValidator([]string{"caja-paltas"})
	draft := validDraft()
	draft.Name = "   "
	draft.Message = "\t\n"

	assert.ElementsMatch(t, []string{FieldName, FieldMessage}, violationFields(v.Validate(draft)))
}

func TestValidateFlagsMalformedEmail(t *testing.T) {
	v := NewValidator([]string{"caja-paltas"})
	cases := map[string]string{
		"no at sign":     "ana.agricolasur.cl",
		"no domain dot":  "ana@agricolasur",
		"empty local":    "@agricolasur.cl",
		"blank":          "  ",
		"missing domain": "ana@",
	}
	for name, email := range cases {
		t.Run(name, func(t *testing.T) {
			draft := validDraft()
			draft.Email = email
			violations := v.Validate(draft)
			assert.Equal(t, []string{FieldEmail}, violationFields(violations))
			assert.Equal(t, "Email válido es requerido", violations[0].Message)
		})
	}
}

func TestValidateEmailFlaggedAlongsideOtherViolations(t *testing.T) {
	v := NewValidator([]string{"caja-paltas"})
	draft := validDraft()
	draft.Email = "nope"
	draft.Quantity = ""

	assert.ElementsMatch(t, []string{FieldEmail, FieldQuantity}, violationFields(v.Validate(draft)))
}

func TestValidateRejectsUnknownProductType(t *testing.T) {
	v := NewValidator([]string{"caja-paltas"})
	draft := validDraft()
	draft.ProductType = "caja-uvas"

	assert.Equal(t, []string{FieldProductType}, violationFields(v.Validate(draft)))
}

func TestValidateIsOrderIndependent(t *testing.T) {
	v := NewValidator([]string{"caja-paltas"})
	draft := Inquiry{Email: "x", ProductType: "caja-paltas"}

	first := v.Validate(draft)
	second := v.Validate(draft)
	assert.Equal(t, first, second)
}

func TestNewValidatorDefaultProduct(t *testing.T) {
	v := NewValidator([]string{" ", "caja-arandanos", "caja-paltas"})
	assert.Equal(t, "caja-arandanos", v.DefaultProductType())
}

func TestSetNormalizesToNFC(t *testing.T) {
	var draft Inquiry
	assert.True(t, draft.Set(FieldName, "Jose\u0301"))
	assert.Equal(t, "Jos\u00e9", draft.Name)
	assert.False(t, draft.Set("otro", "x"))
}

func TestFormFieldsOrder(t *testing.T) {
	fields := validDraft().FormFields()
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.Name)
	}
	assert.Equal(t, Fields, names)
}

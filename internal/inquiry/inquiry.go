// Package inquiry models the quote request a prospective customer sends from
// the contact page, its validation rules and the submission state machine.
package inquiry

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Form field names. They double as the keys forwarded to the relay service.
const (
	FieldName        = "nombre"
	FieldCompany     = "empresa"
	FieldEmail       = "email"
	FieldPhone       = "telefono"
	FieldQuantity    = "cantidad"
	FieldProductType = "tipoProducto"
	FieldMessage     = "mensaje"
)

// Fields lists every form field in display order.
var Fields = []string{
	FieldName,
	FieldCompany,
	FieldEmail,
	FieldPhone,
	FieldQuantity,
	FieldProductType,
	FieldMessage,
}

// Inquiry is a single customer request. It only lives in memory or in the
// visitor session; it is never stored elsewhere.
type Inquiry struct {
	Name        string `json:"nombre" form:"nombre" validate:"trimmed"`
	Company     string `json:"empresa" form:"empresa" validate:"trimmed"`
	Email       string `json:"email" form:"email" validate:"looseemail"`
	Phone       string `json:"telefono" form:"telefono"`
	Quantity    string `json:"cantidad" form:"cantidad" validate:"trimmed"`
	ProductType string `json:"tipoProducto" form:"tipoProducto" validate:"producttype"`
	Message     string `json:"mensaje" form:"mensaje" validate:"trimmed"`
}

// FormField is an ordered name/value pair.
type FormField struct {
	Name  string
	Value string
}

// New returns an empty draft preselecting defaultProduct.
func New(defaultProduct string) Inquiry {
	return Inquiry{ProductType: defaultProduct}
}

// Get returns the value of a named field, or "" for unknown names.
func (i Inquiry) Get(field string) string {
	switch field {
	case FieldName:
		return i.Name
	case FieldCompany:
		return i.Company
	case FieldEmail:
		return i.Email
	case FieldPhone:
		return i.Phone
	case FieldQuantity:
		return i.Quantity
	case FieldProductType:
		return i.ProductType
	case FieldMessage:
		return i.Message
	}
	return ""
}

// Set overwrites a named field. It reports false when the name is unknown.
func (i *Inquiry) Set(field, value string) bool {
	value = normalize(value)
	switch field {
	case FieldName:
		i.Name = value
	case FieldCompany:
		i.Company = value
	case FieldEmail:
		i.Email = value
	case FieldPhone:
		i.Phone = value
	case FieldQuantity:
		i.Quantity = value
	case FieldProductType:
		i.ProductType = value
	case FieldMessage:
		i.Message = value
	default:
		return false
	}
	return true
}

// FormFields returns the draft as ordered pairs, ready to be encoded.
func (i Inquiry) FormFields() []FormField {
	out := make([]FormField, 0, len(Fields))
	for _, name := range Fields {
		out = append(out, FormField{Name: name, Value: i.Get(name)})
	}
	return out
}

// IsEmpty reports whether every free-text field is blank.
func (i Inquiry) IsEmpty() bool {
	for _, name := range Fields {
		if name == FieldProductType {
			continue
		}
		if strings.TrimSpace(i.Get(name)) != "" {
			return false
		}
	}
	return true
}

func normalize(value string) string {
	if norm.NFC.IsNormalString(value) {
		return value
	}
	return norm.NFC.String(value)
}

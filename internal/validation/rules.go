// Package validation holds the registration form contract: one rule table that drives
// the server-side check and is published to the form as data.
package validation

import (
	"fmt"
	"strconv"
	"strings"
)

// Formats understood by the validator in addition to the length and choice constraints.
const (
	FormatDate  = "isodate"
	FormatEmail = "looseemail"
	FormatPhone = "phone"
)

// Form field names as submitted by the registration form.
const (
	FieldFullName           = "fullName"
	FieldDateOfBirth        = "dateOfBirth"
	FieldGender             = "gender"
	FieldClassApplyingFor   = "classApplyingFor"
	FieldParentGuardianName = "parentGuardianName"
	FieldPhoneNumber        = "phoneNumber"
	FieldEmail              = "email"
	FieldAddress            = "address"
	FieldPreviousSchool     = "previousSchool"
	FieldPaymentProvider    = "paymentProvider"
	FieldPaymentPhone       = "paymentPhone"
	FieldPassportPhoto      = "passportPhoto"
)

// Rule constrains one form field.
type Rule struct {
	Field           string   `json:"field"`
	Required        bool     `json:"required"`
	MinLength       int      `json:"minLength,omitempty"`
	MaxLength       int      `json:"maxLength,omitempty"`
	OneOf           []string `json:"oneOf,omitempty"`
	Format          string   `json:"format,omitempty"`
	Pattern         string   `json:"pattern,omitempty"`
	StripWhitespace bool     `json:"stripWhitespace,omitempty"`
	RequiredMessage string   `json:"requiredMessage,omitempty"`
	InvalidMessage  string   `json:"invalidMessage"`
}

// Tag renders the rule as a go-playground/validator tag.
func (r Rule) Tag() string {
	parts := make([]string, 0, 5)
	if r.Required {
		parts = append(parts, "required")
	} else {
		parts = append(parts, "omitempty")
	}
	if r.MinLength > 0 {
		parts = append(parts, "min="+strconv.Itoa(r.MinLength))
	}
	if r.MaxLength > 0 {
		parts = append(parts, "max="+strconv.Itoa(r.MaxLength))
	}
	if len(r.OneOf) > 0 {
		parts = append(parts, "oneof="+strings.Join(r.OneOf, " "))
	}
	if r.Format != "" {
		parts = append(parts, r.Format)
	}
	return strings.Join(parts, ",")
}

// Normalize applies the trimming the rule expects before checking.
func (r Rule) Normalize(value string) string {
	if r.StripWhitespace {
		return StripWhitespace(value)
	}
	return strings.TrimSpace(value)
}

// StripWhitespace removes every whitespace rune. Phone numbers are stored in this form.
func StripWhitespace(value string) string {
	return strings.Join(strings.Fields(value), "")
}

// Genders accepted by the form.
var Genders = []string{"Male", "Female", "Other"}

// Rules is the registration field contract in form order.
var Rules = []Rule{
	{
		Field: FieldFullName, Required: true, MinLength: 2, MaxLength: 150,
		RequiredMessage: "Full name is required",
		InvalidMessage:  "Name must be 2–150 characters",
	},
	{
		Field: FieldDateOfBirth, Required: true, Format: FormatDate, Pattern: `^\d{4}-\d{2}-\d{2}$`,
		RequiredMessage: "Date of birth is required",
		InvalidMessage:  "Invalid date",
	},
	{
		Field: FieldGender, Required: true, OneOf: Genders,
		RequiredMessage: "Gender is required",
		InvalidMessage:  "Invalid gender",
	},
	{
		Field: FieldClassApplyingFor, Required: true, MinLength: 1, MaxLength: 50,
		RequiredMessage: "Class is required",
		InvalidMessage:  "Invalid class",
	},
	{
		Field: FieldParentGuardianName, Required: true, MinLength: 1, MaxLength: 150,
		RequiredMessage: "Parent/Guardian name is required",
		InvalidMessage:  "Invalid length",
	},
	{
		Field: FieldPhoneNumber, Required: true, Format: FormatPhone, Pattern: phonePattern,
		StripWhitespace: true,
		RequiredMessage: "Phone number is required",
		InvalidMessage:  "Invalid phone number (9–20 digits/symbols)",
	},
	{
		Field: FieldEmail, Required: true, MaxLength: 255, Format: FormatEmail, Pattern: emailPattern,
		RequiredMessage: "Email is required",
		InvalidMessage:  "Invalid email",
	},
	{
		Field: FieldAddress, Required: true, MinLength: 1, MaxLength: 1000,
		RequiredMessage: "Address is required",
		InvalidMessage:  "Address is too long",
	},
	{
		Field: FieldPreviousSchool, MaxLength: 255,
		InvalidMessage: "Previous school is too long",
	},
	{
		Field: FieldPaymentProvider, MaxLength: 50,
		InvalidMessage: "Payment provider is too long",
	},
	{
		Field: FieldPaymentPhone, Format: FormatPhone, Pattern: phonePattern,
		StripWhitespace: true,
		InvalidMessage:  "Invalid payment phone number (9–20 digits/symbols)",
	},
}

// PhotoExtensions lists accepted passport photo extensions.
var PhotoExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

// PhotoTypeMessage is reported for non-image uploads.
const PhotoTypeMessage = "Only image files (jpg, png, gif, webp) are allowed."

// PhotoSizeMessage reports the configured upload limit.
func PhotoSizeMessage(maxBytes int64) string {
	return fmt.Sprintf("File too large. Maximum size is %dMB.", maxBytes/(1024*1024))
}

// Contract is the published form of the rules.
type Contract struct {
	Fields []Rule           `json:"fields"`
	Photo  PhotoContract    `json:"passportPhoto"`
	Fees   map[string]int64 `json:"fees,omitempty"`
}

// PhotoContract describes the optional passport photo upload.
type PhotoContract struct {
	Field       string   `json:"field"`
	Extensions  []string `json:"extensions"`
	MaxBytes    int64    `json:"maxBytes"`
	TypeMessage string   `json:"typeMessage"`
	SizeMessage string   `json:"sizeMessage"`
}

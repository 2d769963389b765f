package validation

import (
	"errors"
	"fmt"
	"image"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	// Decoders for the accepted photo formats.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/go-playground/validator/v10"
	_ "golang.org/x/image/webp"
)

const (
	phonePattern = `^[\d\-+()]{9,20}$`
	emailPattern = `^[^\s@]+@[^\s@]+\.[^\s@]+$`
	dateLayout   = "2006-01-02"
)

var (
	phoneRe = regexp.MustCompile(phonePattern)
	emailRe = regexp.MustCompile(emailPattern)

	// ErrPhotoType marks an upload that is not an accepted image.
	ErrPhotoType = errors.New(PhotoTypeMessage)
	// ErrPhotoTooLarge marks an upload over the size limit.
	ErrPhotoTooLarge = errors.New("photo exceeds size limit")
)

// Validator checks submitted form values against a rule table.
type Validator struct {
	validate     *validator.Validate
	rules        []Rule
	maxPhotoSize int64
}

// New builds a Validator for the given rules. A nil rules slice uses Rules.
func New(rules []Rule, maxPhotoSize int64) *Validator {
	if rules == nil {
		rules = Rules
	}
	v := validator.New()
	mustRegister(v, FormatDate, func(fl validator.FieldLevel) bool {
		return IsDate(fl.Field().String())
	})
	mustRegister(v, FormatPhone, func(fl validator.FieldLevel) bool {
		return phoneRe.MatchString(fl.Field().String())
	})
	mustRegister(v, FormatEmail, func(fl validator.FieldLevel) bool {
		return emailRe.MatchString(fl.Field().String())
	})
	return &Validator{validate: v, rules: rules, maxPhotoSize: maxPhotoSize}
}

// mustRegister panics when a custom format cannot be registered, so a broken
// tag fails at startup rather than on the first submission.
func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validation: register %q: %v", tag, err))
	}
}

// Rules returns the rule table in use.
func (v *Validator) Rules() []Rule {
	return v.rules
}

// MaxPhotoSize returns the upload limit in bytes.
func (v *Validator) MaxPhotoSize() int64 {
	return v.maxPhotoSize
}

// Check validates values keyed by form field name and returns field → message for failures.
// An empty map means the values passed.
func (v *Validator) Check(values map[string]string) map[string]string {
	failures := make(map[string]string)
	for _, rule := range v.rules {
		value := rule.Normalize(values[rule.Field])
		err := v.validate.Var(value, rule.Tag())
		if err == nil {
			continue
		}
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 && fieldErrs[0].Tag() == "required" && rule.RequiredMessage != "" {
			failures[rule.Field] = rule.RequiredMessage
			continue
		}
		failures[rule.Field] = rule.InvalidMessage
	}
	return failures
}

// CheckPhoto verifies the upload's extension, size and image content.
// content is read up to the image header only.
func (v *Validator) CheckPhoto(filename string, size int64, content io.Reader) error {
	if !AllowedPhotoExtension(filename) {
		return ErrPhotoType
	}
	if v.maxPhotoSize > 0 && size > v.maxPhotoSize {
		return ErrPhotoTooLarge
	}
	if _, _, err := image.DecodeConfig(content); err != nil {
		return ErrPhotoType
	}
	return nil
}

// Contract publishes the rules for the presentation layer.
func (v *Validator) Contract(fees map[string]int64) Contract {
	return Contract{
		Fields: v.rules,
		Photo: PhotoContract{
			Field:       FieldPassportPhoto,
			Extensions:  PhotoExtensions,
			MaxBytes:    v.maxPhotoSize,
			TypeMessage: PhotoTypeMessage,
			SizeMessage: PhotoSizeMessage(v.maxPhotoSize),
		},
		Fees: fees,
	}
}

// IsDate reports whether value is a real calendar date in YYYY-MM-DD form.
func IsDate(value string) bool {
	_, err := time.Parse(dateLayout, value)
	return err == nil
}

// AllowedPhotoExtension reports whether the file name carries an accepted image extension.
func AllowedPhotoExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range PhotoExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

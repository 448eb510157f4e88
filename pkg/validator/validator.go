// Package validator wraps go-playground/validator with the naming rules of
// the annotation service and English/Chinese error messages.
package validator

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
)

// Language constants for i18n support.
const (
	LangEN = "en"
	LangZH = "zh"
)

// Validator wraps go-playground/validator with translations.
type Validator struct {
	validate *validator.Validate
	trans    map[string]ut.Translator
}

var (
	globalValidator *Validator
	once            sync.Once
)

// Global returns the global validator instance.
func Global() *Validator {
	once.Do(func() {
		globalValidator = New()
	})
	return globalValidator
}

// New creates a new Validator with the custom rules registered.
func New() *Validator {
	v := &Validator{
		validate: validator.New(),
		trans:    make(map[string]ut.Translator),
	}

	// Use JSON tag names for error field names
	v.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale, zh.New())

	enTrans, _ := uni.GetTranslator(LangEN)
	_ = en_translations.RegisterDefaultTranslations(v.validate, enTrans)
	v.trans[LangEN] = enTrans

	zhTrans, _ := uni.GetTranslator(LangZH)
	_ = zh_translations.RegisterDefaultTranslations(v.validate, zhTrans)
	v.trans[LangZH] = zhTrans

	v.registerCustomRules()
	return v
}

// Validate validates a struct.
func (v *Validator) Validate(s any) error {
	return v.validate.Struct(s)
}

// ValidateWithLang validates a struct and returns translated errors, nil
// when s is valid.
func (v *Validator) ValidateWithLang(s any, lang string) *ValidationErrors {
	return v.translate(v.validate.Struct(s), "", lang)
}

// ValidateVar validates a single variable.
func (v *Validator) ValidateVar(field any, tag string) error {
	return v.validate.Var(field, tag)
}

// ValidateVarWithLang validates a single variable and returns a translated error.
func (v *Validator) ValidateVarWithLang(field any, tag, lang string) *ValidationErrors {
	return v.translate(v.validate.Var(field, tag), tag, lang)
}

// GetTranslator returns the translator of lang, English by default.
func (v *Validator) GetTranslator(lang string) ut.Translator {
	if trans, ok := v.trans[lang]; ok {
		return trans
	}
	return v.trans[LangEN]
}

// Engine returns the underlying validator.Validate instance.
func (v *Validator) Engine() *validator.Validate {
	return v.validate
}

func (v *Validator) translate(err error, tag, lang string) *ValidationErrors {
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return NewValidationError("value", tag, err.Error())
	}

	trans := v.GetTranslator(lang)
	result := &ValidationErrors{Errors: make([]FieldError, 0, len(errs))}
	for _, fe := range errs {
		result.Errors = append(result.Errors, FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Value:   fe.Value(),
			Param:   fe.Param(),
			Message: fe.Translate(trans),
		})
	}
	return result
}

// Struct validates a struct with the global validator.
func Struct(s any) error {
	return Global().Validate(s)
}

// StructWithLang validates a struct with the global validator and
// translates the errors.
func StructWithLang(s any, lang string) *ValidationErrors {
	return Global().ValidateWithLang(s, lang)
}

// Var validates a single variable with the global validator.
func Var(field any, tag string) error {
	return Global().ValidateVar(field, tag)
}

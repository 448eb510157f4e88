package validator

import (
	"regexp"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
)

// Custom validation tags
const (
	TagResourceName = "resourcename" // dataset, field, question, metadata and vector names
	TagUsername     = "username"     // letters, digits, underscores and dashes, starting with a letter
	TagTrimmed      = "trimmed"      // no leading or trailing whitespace
)

var (
	resourceNameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,200}$`)
	lowerAlnumRegex   = regexp.MustCompile(`[a-z0-9]`)
	usernameRegex     = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]{1,63}$`)
)

type rule struct {
	fn validator.Func
	en string
	zh string
}

var rules = map[string]rule{
	TagResourceName: {
		fn: validateResourceName,
		en: "{0} must contain only letters, digits, underscores or dashes and at least one lowercase letter or digit",
		zh: "{0}只能包含字母、数字、下划线或连字符，且至少包含一个小写字母或数字",
	},
	TagUsername: {
		fn: validateUsername,
		en: "{0} must start with a letter and contain only letters, digits, underscores or dashes (2-64 characters)",
		zh: "{0}必须以字母开头，只能包含字母、数字、下划线或连字符（2-64个字符）",
	},
	TagTrimmed: {
		fn: validateTrimmed,
		en: "{0} must not have leading or trailing spaces",
		zh: "{0}不能有前导或尾随空格",
	},
}

func (v *Validator) registerCustomRules() {
	for tag, r := range rules {
		_ = v.validate.RegisterValidation(tag, r.fn)
		registerTranslation(v.validate, v.trans[LangEN], tag, r.en)
		registerTranslation(v.validate, v.trans[LangZH], tag, r.zh)
	}
}

func registerTranslation(validate *validator.Validate, trans ut.Translator, tag, message string) {
	_ = validate.RegisterTranslation(tag, trans,
		func(ut ut.Translator) error {
			return ut.Add(tag, message, true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			t, _ := ut.T(tag, fe.Field())
			return t
		},
	)
}

// validateResourceName accepts names usable as keys of fields, metadata and
// responses.
func validateResourceName(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // Let 'required' handle empty values
	}
	return resourceNameRegex.MatchString(value) && lowerAlnumRegex.MatchString(value)
}

func validateUsername(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return usernameRegex.MatchString(value)
}

func validateTrimmed(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == strings.TrimSpace(value)
}

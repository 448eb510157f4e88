package validator

import (
	"reflect"

	"github.com/gin-gonic/gin/binding"
)

// GinValidator plugs the global validator into gin request binding.
type GinValidator struct{}

var _ binding.StructValidator = GinValidator{}

// ValidateStruct validates structs and pointers to structs, ignoring
// anything else. Failures are returned as English *ValidationErrors.
func (GinValidator) ValidateStruct(obj any) error {
	if obj == nil {
		return nil
	}
	value := reflect.ValueOf(obj)
	if value.Kind() == reflect.Ptr {
		if value.IsNil() {
			return nil
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return nil
	}
	if errs := StructWithLang(obj, LangEN); errs.HasErrors() {
		return errs
	}
	return nil
}

// Engine returns the underlying validator.Validate instance.
func (GinValidator) Engine() any {
	return Global().Engine()
}

// UseWithGin replaces gin's default binding validator.
func UseWithGin() {
	binding.Validator = GinValidator{}
}

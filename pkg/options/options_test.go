package options

import (
	"errors"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
)

type fakeGroup struct{ errs []error }

func (f *fakeGroup) Validate() []error                 { return f.errs }
func (f *fakeGroup) AddFlags(*pflag.FlagSet, ...string) {}

func TestJoin(t *testing.T) {
	assert.Equal(t, "", Join())
	assert.Equal(t, "", Join(""))
	assert.Equal(t, "a.", Join("a"))
	assert.Equal(t, "a.b.", Join("a", "b"))
}

func TestValidateAll(t *testing.T) {
	first, second := errors.New("first"), errors.New("second")
	errs := ValidateAll(&fakeGroup{errs: []error{first}}, nil, &fakeGroup{}, &fakeGroup{errs: []error{second}})
	assert.Equal(t, []error{first, second}, errs)
	assert.Empty(t, ValidateAll())
}

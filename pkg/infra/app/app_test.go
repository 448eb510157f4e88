package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/kart-io/labelhub/pkg/app/cliflag"
)

type testOptions struct {
	Server struct {
		Addr    string        `mapstructure:"addr"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"server"`
	Name string `mapstructure:"name"`

	completed bool
	reloaded  []string
}

func (o *testOptions) Flags() (fss cliflag.NamedFlagSets) {
	fs := fss.FlagSet("server")
	fs.StringVar(&o.Server.Addr, "server.addr", o.Server.Addr, "listen address")
	fs.DurationVar(&o.Server.Timeout, "server.timeout", o.Server.Timeout, "timeout")
	fss.FlagSet("misc").StringVar(&o.Name, "name", o.Name, "name")
	return fss
}

func (o *testOptions) Complete() error {
	o.completed = true
	return nil
}

func (o *testOptions) Validate() error {
	var errs []error
	if o.Server.Addr == "" {
		errs = append(errs, assert.AnError)
	}
	return utilerrors.NewAggregate(errs)
}

func (o *testOptions) Reload(v *viper.Viper) error {
	o.reloaded = append(o.reloaded, v.GetString("name"))
	return nil
}

func newTestOptions() *testOptions {
	o := &testOptions{}
	o.Server.Addr = ":8080"
	o.Server.Timeout = time.Second
	return o
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestApp_Precedence(t *testing.T) {
	t.Setenv("TESTAPP_SERVER_TIMEOUT", "5s")
	t.Setenv("LISTEN_PORT", "9000")
	config := writeConfig(t, "server:\n  addr: \":${LISTEN_PORT}\"\n  timeout: 2s\nname: from-file\n")

	opts := newTestOptions()
	var ran bool
	a := NewApp(
		WithName("testapp"),
		WithOptions(opts),
		WithNoVersion(),
		WithRunFunc(func() error {
			ran = true
			return nil
		}),
	)
	a.Command().SetArgs([]string{"--config", config, "--name", "from-flag"})
	require.NoError(t, a.Command().Execute())

	assert.True(t, ran)
	assert.True(t, opts.completed)
	assert.Equal(t, ":9000", opts.Server.Addr)
	assert.Equal(t, 5*time.Second, opts.Server.Timeout)
	assert.Equal(t, "from-flag", opts.Name)
	assert.Equal(t, config, a.Viper().ConfigFileUsed())
}

func TestApp_ValidationFails(t *testing.T) {
	opts := newTestOptions()
	opts.Server.Addr = ""
	a := NewApp(WithName("testapp"), WithOptions(opts), WithNoVersion(), WithNoConfig(), WithSilence())
	a.Command().SetArgs([]string{})

	assert.Error(t, a.Command().Execute())
}

func TestApp_MissingConfigFile(t *testing.T) {
	opts := newTestOptions()
	a := NewApp(WithName("testapp"), WithOptions(opts), WithNoVersion(), WithSilence())
	a.Command().SetArgs([]string{"--config", filepath.Join(t.TempDir(), "absent.yaml")})

	assert.Error(t, a.Command().Execute())
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("LABELHUB_TEST_HOST", "db.internal")

	v := viper.New()
	v.Set("database.host", "${LABELHUB_TEST_HOST}")
	v.Set("database.dsn", "$LABELHUB_TEST_HOST:5432")
	v.Set("database.user", "${LABELHUB_TEST_UNSET}")
	v.Set("database.port", 5432)

	expandEnvVars(v)

	assert.Equal(t, "db.internal", v.GetString("database.host"))
	assert.Equal(t, "db.internal:5432", v.GetString("database.dsn"))
	assert.Equal(t, "${LABELHUB_TEST_UNSET}", v.GetString("database.user"))
	assert.Equal(t, 5432, v.GetInt("database.port"))
}

func TestEnvPrefix(t *testing.T) {
	assert.Equal(t, "LABELHUB", EnvPrefix("labelhub"))
	assert.Equal(t, "LABEL_HUB", EnvPrefix("label-hub"))
}

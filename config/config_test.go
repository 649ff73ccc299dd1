package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sportmatch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvServer, EnvTimeout, EnvUsername, EnvPassword, EnvUserID, EnvLogLevel, EnvBucket, EnvRegion} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)

	want := Default()
	if diff := cmp.Diff(want, *cfg); diff != "" {
		t.Errorf("Unexpected config (-want +got): %s", diff)
	}
	assert.Equal(t, 10*time.Second, cfg.Timeout())
	assert.Equal(t, 5*time.Minute, cfg.PresignTTL())
}

func TestLoadFileThenEnv(t *testing.T) {
	path := writeFile(t, `
server:
  base_url: https://api.example.com/
  timeout_s: 3
auth:
  username: anna
  password: from-file
photos:
  bucket: profile-photos
  region: eu-west-1
log:
  level: debug
  development: true
discovery:
  auto_refill: false
`)
	clearEnv(t)
	t.Setenv(EnvPassword, "from-env")
	t.Setenv(EnvTimeout, "7")
	t.Setenv(EnvUserID, "42")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com", cfg.BaseURL())
	assert.Equal(t, 7*time.Second, cfg.Timeout())
	assert.Equal(t, "anna", cfg.Auth.Username)
	assert.Equal(t, "from-env", cfg.Auth.Password)
	assert.Equal(t, int64(42), cfg.Auth.UserID)
	assert.Equal(t, "profile-photos", cfg.Photos.Bucket)
	assert.Equal(t, 300, cfg.Photos.PresignTTLS, "unset yaml keys keep their defaults")
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Development)
	assert.False(t, cfg.Discovery.AutoRefill)
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "server: [not, a, map]"))
	assert.Error(t, err)

	t.Setenv(EnvTimeout, "soon")
	_, err = Load("")
	assert.ErrorContains(t, err, EnvTimeout)

	t.Setenv(EnvTimeout, "")
	t.Setenv(EnvUserID, "me")
	_, err = Load("")
	assert.ErrorContains(t, err, EnvUserID)
}

func TestFlagsOverride(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags := RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{
		"--server", "http://127.0.0.1:9000",
		"-u", "sofia",
		"--user-id", "2",
		"--no-auto-refill",
		"--config", "/etc/sportmatch.yaml",
	}))

	cfg := Default()
	cfg.Auth.Password = "kept"
	flags.Apply(&cfg)

	assert.Equal(t, "/etc/sportmatch.yaml", flags.ConfigPath)
	assert.Equal(t, "http://127.0.0.1:9000", cfg.Server.BaseURL)
	assert.Equal(t, "sofia", cfg.Auth.Username)
	assert.Equal(t, int64(2), cfg.Auth.UserID)
	assert.Equal(t, "kept", cfg.Auth.Password, "flags that were not passed must not override")
	assert.Equal(t, 10, cfg.Server.TimeoutS)
	assert.False(t, cfg.Discovery.AutoRefill)
}

func TestValidate(t *testing.T) {
	valid := Default()
	valid.Auth = AuthConfig{Username: "anna", Password: "Secret1!"}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		errs   int
	}{
		{
			name:   "missing credentials",
			mutate: func(c *Config) { c.Auth = AuthConfig{} },
			errs:   2,
		},
		{
			name:   "negative user id",
			mutate: func(c *Config) { c.Auth.UserID = -1 },
			errs:   1,
		},
		{
			name:   "bad scheme",
			mutate: func(c *Config) { c.Server.BaseURL = "ftp://example.com" },
			errs:   1,
		},
		{
			name: "everything wrong",
			mutate: func(c *Config) {
				c.Server.BaseURL = ""
				c.Server.TimeoutS = 0
				c.Auth = AuthConfig{}
				c.Photos.Bucket = "photos"
				c.Photos.PresignTTLS = 0
			},
			errs: 5,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid
			tc.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Len(t, multierr.Errors(err), tc.errs)
		})
	}
}

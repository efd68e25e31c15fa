package conf

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"Single Value", "TEST_HELLO", "world"},
		{"Multi-value separated by commas", "TEST_LIST", "One,Two,Three,Four"},
		{"Path", "TEST_SOMEPATH", "../../FAKE/PATH"},
		{"Number", "TEST_NUM", "1234"},
		{"Boolean", "TEST_BOOL", "true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NoError(t, SetEnv(t, tt.key, tt.value))
			t.Cleanup(func() { assert.NoError(t, UnsetEnv(t, tt.key)) })

			assert.Equal(t, tt.value, GetEnv(tt.key))
		})
	}
}

func TestSetEnv(t *testing.T) {
	assert.NoError(t, SetEnv(t, "TEST_SOMEPATH", "../somepath"))
	t.Cleanup(func() { assert.NoError(t, UnsetEnv(t, "TEST_SOMEPATH")) })

	assert.Equal(t, "../somepath", GetEnv("TEST_SOMEPATH"))
}

func TestUnsetEnv(t *testing.T) {
	assert.NoError(t, SetEnv(t, "TEST_HELLO", "world"))
	assert.NoError(t, UnsetEnv(t, "TEST_HELLO"))

	assert.Empty(t, GetEnv("TEST_HELLO"))
	assert.Empty(t, os.Getenv("TEST_HELLO"))
}

func TestLookupEnv(t *testing.T) {
	t.Run("Query a variable that does not exist", func(t *testing.T) {
		val, ok := LookupEnv("TEST_DOESNOTEXIST")
		assert.Empty(t, val)
		assert.False(t, ok)
	})

	t.Run("Query a variable that exists but was unset", func(t *testing.T) {
		assert.NoError(t, SetEnv(t, "TEST_CHANGE", "some value"))
		assert.NoError(t, UnsetEnv(t, "TEST_CHANGE"))

		val, ok := LookupEnv("TEST_CHANGE")
		assert.Empty(t, val)
		assert.False(t, ok)
	})

	t.Run("Query a variable that only exists as an environment var", func(t *testing.T) {
		os.Setenv("TEST_EVONLY", "ev value")
		t.Cleanup(func() { assert.NoError(t, UnsetEnv(t, "TEST_EVONLY")) })

		val, ok := LookupEnv("TEST_EVONLY")
		assert.Equal(t, "ev value", val)
		assert.True(t, ok)
	})
}

type innerConfig struct {
	NestedValue string `conf:"TEST_NESTED"`
}

type outerConfig struct {
	Tagged    string      `conf:"TEST_LIST"`
	Untagged  string      // matched by field name
	Skipped   string      `conf:"-"`
	Defaulted int         `conf:"TEST_MISSING_NUM" conf_default:"42"`
	Threshold float64     `conf:"TEST_THRESHOLD" conf_default:"500000"`
	Enabled   bool        `conf:"TEST_BOOL" conf_default:"false"`
	Codes     []string    `conf:"TEST_CODES" conf_default:"170,171"`
	Nested    innerConfig `conf:",squash"`
}

func TestCheckout(t *testing.T) {
	assert.NoError(t, SetEnv(t, "TEST_LIST", "One,Two,Three,Four"))
	assert.NoError(t, SetEnv(t, "Untagged", "by-name"))
	assert.NoError(t, SetEnv(t, "TEST_BOOL", "true"))
	assert.NoError(t, SetEnv(t, "TEST_NESTED", "nested value"))
	t.Cleanup(func() {
		for _, key := range []string{"TEST_LIST", "Untagged", "TEST_BOOL", "TEST_NESTED"} {
			assert.NoError(t, UnsetEnv(t, key))
		}
	})

	t.Run("Populating a tagged struct", func(t *testing.T) {
		var cfg outerConfig
		assert.NoError(t, Checkout(&cfg))

		assert.Equal(t, "One,Two,Three,Four", cfg.Tagged)
		assert.Equal(t, "by-name", cfg.Untagged)
		assert.Empty(t, cfg.Skipped)
		assert.Equal(t, 42, cfg.Defaulted)
		assert.Equal(t, 500000.0, cfg.Threshold)
		assert.True(t, cfg.Enabled)
		assert.Equal(t, []string{"170", "171"}, cfg.Codes)
		assert.Equal(t, "nested value", cfg.Nested.NestedValue)
	})

	t.Run("Rejecting a struct copy", func(t *testing.T) {
		var cfg outerConfig
		assert.Error(t, Checkout(cfg))
	})

	t.Run("Rejecting a non-struct pointer", func(t *testing.T) {
		val := "not a struct"
		assert.Error(t, Checkout(&val))
	})

	t.Run("Rejecting an unparseable value", func(t *testing.T) {
		assert.NoError(t, SetEnv(t, "TEST_MISSING_NUM", "not-a-number"))
		t.Cleanup(func() { assert.NoError(t, UnsetEnv(t, "TEST_MISSING_NUM")) })

		var cfg outerConfig
		assert.Error(t, Checkout(&cfg))
	})
}

package gcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("PMD_TEST_SET", "value")
	assert.Equal(t, "value", GetEnv("PMD_TEST_SET", "fallback"))
	assert.Equal(t, "fallback", GetEnv("PMD_TEST_UNSET_KEY", "fallback"))

	t.Setenv("PMD_TEST_EMPTY", "")
	assert.Equal(t, "", GetEnv("PMD_TEST_EMPTY", "fallback"), "set but empty is still set")
}

func TestGetEnvList(t *testing.T) {
	t.Setenv("PMD_TEST_LIST", " a@x.in, ,b@x.in ,")
	assert.Equal(t, []string{"a@x.in", "b@x.in"}, GetEnvList("PMD_TEST_LIST"))
	assert.Empty(t, GetEnvList("PMD_TEST_LIST_UNSET"))
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("PMD_TEST_INT", "587")
	t.Setenv("PMD_TEST_BAD_INT", "abc")
	assert.Equal(t, 587, GetEnvInt("PMD_TEST_INT", 25))
	assert.Equal(t, 25, GetEnvInt("PMD_TEST_BAD_INT", 25))
}

package spec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()

	assert.True(t, s.ValidateRequest)
	assert.True(t, s.ValidateResponse)
	assert.True(t, s.ValidateEndpoints)
	assert.Equal(t, []int{200, 400, 500}, s.MinimalResponses)
	assert.Equal(t, []int{404}, s.MinimalResponsesWithParams)
}

func TestSettingsFromEnv(t *testing.T) {
	t.Setenv("OASGATE_VALIDATE_REQUEST", "false")
	t.Setenv("OASGATE_VALIDATE_RESPONSE", "false")
	t.Setenv("OASGATE_VALIDATE_ENDPOINTS", "0")
	t.Setenv("OASGATE_MINIMAL_RESPONSES", "201, 422")
	t.Setenv("OASGATE_MINIMAL_RESPONSES_WITH_PARAMS", "404,410")

	s := SettingsFromEnv()

	assert.False(t, s.ValidateRequest)
	assert.False(t, s.ValidateResponse)
	assert.False(t, s.ValidateEndpoints)
	assert.Equal(t, []int{201, 422}, s.MinimalResponses)
	assert.Equal(t, []int{404, 410}, s.MinimalResponsesWithParams)
}

func TestSettingsFromEnvDefaults(t *testing.T) {
	s := SettingsFromEnv()
	assert.Equal(t, DefaultSettings(), s)
}

func TestSettingsFromEnvIgnoresGarbage(t *testing.T) {
	t.Setenv("OASGATE_VALIDATE_REQUEST", "maybe")
	s := SettingsFromEnv()
	assert.True(t, s.ValidateRequest)
}

func TestParseCodes(t *testing.T) {
	assert.Equal(t, []int{200, 400, 500}, ParseCodes("200,400,500"))
	assert.Equal(t, []int{404}, ParseCodes(" 404 "))
	assert.Nil(t, ParseCodes("abc"))
	assert.Equal(t, []int{200}, ParseCodes("200,abc"))
}

package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToUpperSnake(t *testing.T) {
	cases := map[string]string{
		"frameRate":      "FRAME_RATE",
		"keyboard":       "KEYBOARD",
		"already_snake":  "ALREADY_SNAKE",
		"ALREADY_UPPER":  "ALREADY_UPPER",
		"frameRateLimit": "FRAME_RATE_LIMIT",
	}
	for in, want := range cases {
		assert.Equal(t, want, ToUpperSnake(in), "input %q", in)
	}
}

func TestToUpperSnake_Idempotent(t *testing.T) {
	inputs := []string{"frameRate", "x", "a_b_c", "HTTPProxy", ""}
	for _, in := range inputs {
		once := ToUpperSnake(in)
		twice := ToUpperSnake(once)
		assert.Equal(t, once, twice, "ToUpperSnake should be idempotent for %q", in)
	}
}

func TestSessionConfig_EngineEnv(t *testing.T) {
	cfg := SessionConfig{EngineParameters: map[string]string{"frameRate": "30"}}
	env := cfg.EngineEnv()
	assert.Equal(t, []string{"WEBX_ENGINE_FRAME_RATE=30"}, env)
}

package engine

import (
	"strings"
	"unicode"

	"github.com/ILLGrenoble/webx-router/sesman"
)

// SessionConfig is the additional, per-create-request configuration that
// is translated into the Engine's environment, per spec §3.
type SessionConfig struct {
	KeyboardLayout   string
	Resolution       sesman.ScreenResolution
	EngineParameters map[string]string
}

// ToUpperSnake converts a parameter key into the WEBX_ENGINE_<KEY>
// environment variable suffix, e.g. "frameRate" -> "FRAME_RATE". It is
// idempotent: ToUpperSnake(ToUpperSnake(k)) == ToUpperSnake(k), per spec §8.
func ToUpperSnake(key string) string {
	var b strings.Builder
	runes := []rune(key)
	for i, r := range runes {
		if r == '_' {
			b.WriteRune('_')
			continue
		}
		if unicode.IsUpper(r) {
			prevLower := i > 0 && (unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1]))
			if prevLower {
				b.WriteByte('_')
			}
			b.WriteRune(r)
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	out := b.String()
	// Collapse runs of underscores that were already in the key (e.g.
	// "frame__rate") into a single underscore.
	for strings.Contains(out, "__") {
		out = strings.ReplaceAll(out, "__", "_")
	}
	return out
}

// EngineEnv translates EngineParameters into WEBX_ENGINE_<UPPER_SNAKE>
// environment assignments, per spec §3.
func (c SessionConfig) EngineEnv() []string {
	env := make([]string, 0, len(c.EngineParameters))
	for k, v := range c.EngineParameters {
		env = append(env, "WEBX_ENGINE_"+ToUpperSnake(k)+"="+v)
	}
	return env
}

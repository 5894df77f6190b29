package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/harborloop/settingsd/internal/settings"
)

const sampleDefinitions = `
settings:
  - key: ui.theme
    type: string
    section: Appearance
    default: light
    description: Color theme
    options: [light, dark]
  - key: ui.compact
    type: boolean
    section: Appearance
    default: "false"
  - key: mail.digest_hour
    type: integer
    section: Mail
    default: "8"
    visible: false
    permission: admin.mail
`

func writeDefinitions(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "definitions.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefinitions(t *testing.T) {
	path := writeDefinitions(t, sampleDefinitions)

	defs, err := LoadDefinitions(path)
	require.NoError(t, err)
	require.Len(t, defs, 3)

	require.Equal(t, "ui.theme", defs[0].Key)
	require.Equal(t, "string", defs[0].Type.String())
	require.Equal(t, "light", defs[0].Default)
	require.True(t, defs[0].Visible)
	require.Equal(t, []string{"light", "dark"}, defs[0].Options)

	require.Equal(t, false, defs[1].Default)

	require.Equal(t, 8, defs[2].Default)
	require.False(t, defs[2].Visible)
	require.Equal(t, "admin.mail", defs[2].Permission)
}

func TestLoadDefinitionsUnknownType(t *testing.T) {
	path := writeDefinitions(t, "settings:\n  - key: a.b\n    type: float\n")
	_, err := LoadDefinitions(path)
	require.ErrorContains(t, err, "unknown type")
}

func TestLoadDefinitionsEmptyKey(t *testing.T) {
	path := writeDefinitions(t, "settings:\n  - type: string\n")
	_, err := LoadDefinitions(path)
	require.ErrorContains(t, err, "empty key")
}

func TestDefinitionWatcherReloadsOnChange(t *testing.T) {
	path := writeDefinitions(t, sampleDefinitions)
	registry := settings.NewRegistry(zaptest.NewLogger(t))

	w, err := NewDefinitionWatcher(path, registry, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	require.Equal(t, 3, registry.Len())

	updated := sampleDefinitions + `
  - key: ui.font_size
    type: integer
    section: Appearance
    default: "14"
`
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))

	require.Eventually(t, func() bool {
		_, ok := registry.Lookup("ui.font_size")
		return ok
	}, 3*time.Second, 25*time.Millisecond, "new definition should be registered after reload")
}

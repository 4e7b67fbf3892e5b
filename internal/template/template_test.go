package template

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderIdentityOnLiteral(t *testing.T) {
	s := "no placeholders here"
	got, err := Render(s, Vars{})
	require.NoError(t, err)
	require.Equal(t, s, got)
}

func TestRenderVar(t *testing.T) {
	got, err := Render("hello ${name}!", Vars{"name": "world"})
	require.NoError(t, err)
	require.Equal(t, "hello world!", got)
}

func TestRenderUnboundVar(t *testing.T) {
	_, err := Render("${missing}", Vars{})
	require.Error(t, err)
	var terr *Error
	require.ErrorAs(t, err, &terr)
	require.Equal(t, "unbound-var", terr.Kind)
}

func TestRenderEnv(t *testing.T) {
	t.Setenv("RELENTLESS_TEST_VAR", "abc123")
	got, err := Render("${env:RELENTLESS_TEST_VAR}", Vars{})
	require.NoError(t, err)
	require.Equal(t, "abc123", got)
}

func TestRenderUnboundEnv(t *testing.T) {
	os.Unsetenv("RELENTLESS_TEST_VAR_MISSING")
	_, err := Render("${env:RELENTLESS_TEST_VAR_MISSING}", Vars{})
	require.Error(t, err)
}

func TestRenderUnterminated(t *testing.T) {
	_, err := Render("oops ${never closes", Vars{})
	require.Error(t, err)
	var terr *Error
	require.ErrorAs(t, err, &terr)
	require.Equal(t, "unterminated", terr.Kind)
}

func TestRenderJSONLeaves(t *testing.T) {
	in := map[string]any{
		"a": "${x}",
		"b": []any{"${y}", 1.0, true},
	}
	out, err := RenderJSONLeaves(in, Vars{"x": "1", "y": "2"})
	require.NoError(t, err)
	m := out.(map[string]any)
	require.Equal(t, "1", m["a"])
	arr := m["b"].([]any)
	require.Equal(t, "2", arr[0])
	require.Equal(t, 1.0, arr[1])
}

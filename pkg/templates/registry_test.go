package templates

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDerivesIDsFromPaths(t *testing.T) {
	fsys := fstest.MapFS{
		"report/greeting.tmpl": {Data: []byte("Hello {{.Name}}")},
		"report/notes.txt":     {Data: []byte("ignored")},
	}

	reg, err := Load(fsys, "report/greeting")
	require.NoError(t, err)

	out, err := reg.Render("report/greeting", map[string]string{"Name": "SPX"})
	require.NoError(t, err)
	assert.Equal(t, "Hello SPX", out)

	_, err = reg.Render("report/notes", nil)
	assert.ErrorContains(t, err, "template not found: report/notes")
}

func TestLoadFailsOnMissingRequiredTemplate(t *testing.T) {
	fsys := fstest.MapFS{
		"report/system.tmpl": {Data: []byte("system")},
	}

	_, err := Load(fsys, ReportTemplates...)
	assert.ErrorContains(t, err, "template not found: "+ReportPrompt)
}

func TestLoadFailsOnParseError(t *testing.T) {
	fsys := fstest.MapFS{
		"report/footer.tmpl": {Data: []byte("{{money .Price")},
	}

	_, err := Load(fsys)
	assert.ErrorContains(t, err, "parse template report/footer")
}

func TestLoadRegistersHelperFuncs(t *testing.T) {
	fsys := fstest.MapFS{
		"report/price.tmpl": {Data: []byte("${{money .Price}} {{pct .Pct}}")},
	}

	reg, err := Load(fsys)
	require.NoError(t, err)

	out, err := reg.Render("report/price", map[string]float64{"Price": 1234.5, "Pct": 0.5})
	require.NoError(t, err)
	assert.Equal(t, "$1,234.50 +0.50%", out)
}

func TestRenderMissingKeyFails(t *testing.T) {
	fsys := fstest.MapFS{
		"report/footer.tmpl": {Data: []byte("{{.TimeRange}}")},
	}

	reg, err := Load(fsys)
	require.NoError(t, err)

	_, err = reg.Render("report/footer", map[string]any{})
	assert.ErrorContains(t, err, "render template report/footer")
}

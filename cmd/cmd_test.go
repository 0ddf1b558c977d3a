package cmd

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const homeView = "export default function Home() { return null; }\n"

// setupProject writes a small project with one view and a config file.
func setupProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "Home.jsx"), []byte(homeView), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, DefaultConfigFile), []byte(`
label = "app"

view "home" {
  route = "/home"
  view  = "./Home.jsx"
}
`), 0o644))
	return root
}

// execute runs the root command with fresh flag values and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	configPath, rootDir, labelFlag, nameFlag = "", "", "", ""
	verbose, showSources, transformed, noWatch = false, false, false, false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestFilesCommand(t *testing.T) {
	root := setupProject(t)

	out, err := execute(t, "files", "--root", root)
	require.NoError(t, err)

	assert.Contains(t, out, "node_modules/app/entry.js\t")
	assert.Contains(t, out, "node_modules/app/Router.jsx\t")
	assert.Contains(t, out, "node_modules/app/routes.js\t")
	assert.Contains(t, out, "node_modules/app/views/home.jsx\t"+strconv.Itoa(len(homeView))+"\n")
}

func TestFilesCommand_Sources(t *testing.T) {
	root := setupProject(t)

	out, err := execute(t, "files", "--root", root, "--sources")
	require.NoError(t, err)
	assert.Contains(t, out, "node_modules/app/views/home.jsx\t"+strconv.Itoa(len(homeView))+"\t"+filepath.Join(root, "Home.jsx")+"\n")
}

func TestCatCommand(t *testing.T) {
	root := setupProject(t)

	out, err := execute(t, "cat", "--root", root, "app/routes.js")
	require.NoError(t, err)
	assert.Equal(t, "module.exports = {\n  \"/home\": \"node_modules/app/views/home.jsx\"\n}", out)

	out, err = execute(t, "cat", "--root", root, "node_modules/app/views/home.jsx")
	require.NoError(t, err)
	assert.Equal(t, homeView, out)
}

func TestCatCommand_Missing(t *testing.T) {
	root := setupProject(t)

	_, err := execute(t, "cat", "--root", root, "app/nope.js")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no virtual file node_modules/app/nope.js")
}

func TestResolveCommand_Manifest(t *testing.T) {
	root := setupProject(t)

	out, err := execute(t, "resolve", "--root", root, "app/routes.js")
	require.NoError(t, err)
	assert.Contains(t, out, "path: "+filepath.Join(root, "node_modules/app/routes.js")+"\n")
	assert.Contains(t, out, `"/home": "node_modules/app/views/home.jsx"`)
}

func TestResolveCommand_NamedEngine(t *testing.T) {
	root := setupProject(t)

	out, err := execute(t, "resolve", "--root", root, "--name", "main", "app/engine/main")
	require.NoError(t, err)
	assert.Contains(t, out, "engine: main\n")
}

func TestResolveCommand_Declined(t *testing.T) {
	root := setupProject(t)

	_, err := execute(t, "resolve", "--root", root, "./local.js")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not in the virtual namespace")
}

func TestLabelFlagOverridesConfig(t *testing.T) {
	root := setupProject(t)

	out, err := execute(t, "files", "--root", root, "--label", "web")
	require.NoError(t, err)
	assert.Contains(t, out, "node_modules/web/views/home.jsx\t")
	assert.NotContains(t, out, "node_modules/app/")
}

func TestExplicitConfigMissing(t *testing.T) {
	root := t.TempDir()

	_, err := execute(t, "files", "--root", root, "--config", filepath.Join(root, "absent.hcl"))
	assert.Error(t, err)
}

func TestNoConfigUsesDefaults(t *testing.T) {
	root := t.TempDir()

	out, err := execute(t, "files", "--root", root)
	require.NoError(t, err)
	assert.Contains(t, out, "node_modules/reactus/entry.js\t")
	assert.Contains(t, out, "node_modules/reactus/routes.js\t")
}

package cli_test

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/mdform/internal/cli"
)

const schema = `{"title": "Parameters", "required": ["x"], "properties": {"x": {"type": "string", "enum": ["A b"]}}}`

// execute runs the CLI in a scratch directory with no config file.
func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	color.NoColor = true
	cmd := cli.NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func scratch(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("MDFORM_LOG_LEVEL", "error")
	return dir
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "mdform version: dev")
	assert.Contains(t, out, "Go version: go")
}

func TestTranslate_File(t *testing.T) {
	dir := scratch(t)
	path := writeFile(t, dir, "params.json", schema)

	out, _, err := execute(t, "", "translate", "--compact", path)
	require.NoError(t, err)
	assert.Equal(t,
		`{"x":{"type":"string","required":true,"parameters":{"options":[{"name":"A B","value":"a_b"}]}},"title":"Parameters"}`+"\n",
		out)
}

func TestTranslate_StdinYAMLToFile(t *testing.T) {
	dir := scratch(t)
	outPath := filepath.Join(dir, "form.json")

	_, errOut, err := execute(t, "properties:\n  user_id:\n    title: User\n",
		"translate", "--format", "yaml", "--type-mapping", "dataset", "-o", outPath)
	require.NoError(t, err)
	assert.Contains(t, errOut, "Wrote "+outPath)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"user_id\": {\n    \"title\": \"User\",\n    \"type\": \"UUID\"\n  }\n}\n", string(data))
}

func TestTranslate_Errors(t *testing.T) {
	dir := scratch(t)

	_, _, err := execute(t, "", "translate", filepath.Join(dir, "missing.json"))
	assert.ErrorContains(t, err, "failed to read")

	_, _, err = execute(t, `{"x":{"$ref":"#/definitions/Ghost"}}`, "translate", "-")
	assert.ErrorContains(t, err, "resolve-refs")

	_, _, err = execute(t, `{}`, "translate", "--type-mapping", "other")
	assert.ErrorContains(t, err, "unknown type mapping")

	_, _, err = execute(t, `{}`, "translate", "--format", "toml")
	assert.ErrorContains(t, err, "unknown format")
}

func TestTranslate_InvalidConfig(t *testing.T) {
	scratch(t)
	t.Setenv("MDFORM_REGISTRY_BASE_URL", "http://host/")
	_, _, err := execute(t, schema, "translate")
	assert.ErrorContains(t, err, "registry.base_url")
}

type capture struct {
	mu     sync.Mutex
	paths  []string
	bodies []string
	status int
}

func (c *capture) server(t *testing.T) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		c.mu.Lock()
		c.paths = append(c.paths, r.URL.Path)
		c.bodies = append(c.bodies, string(body))
		status := c.status
		c.mu.Unlock()
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, `{"id":7}`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func (c *capture) requests() ([]string, []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.paths...), append([]string(nil), c.bodies...)
}

func TestRegister(t *testing.T) {
	dir := scratch(t)
	var c capture
	srv := c.server(t)
	t.Setenv("MDFORM_REGISTRY_BASE_URL", srv.URL)

	schemaPath := writeFile(t, dir, "schema.json", schema)
	paramsPath := writeFile(t, dir, "params.yaml", "legacy: true\n")

	out, errOut, err := execute(t, "", "register",
		"--name", "Dose Response", "--function", "dose_response_flow", "--deployment", "prod",
		"--run-type", "dose_response", "--schema", schemaPath, "--params", paramsPath)
	require.NoError(t, err)
	assert.Contains(t, errOut, "Registered dose_response")
	assert.Contains(t, out, `"id": 7`)

	paths, bodies := c.requests()
	require.Len(t, paths, 1)
	assert.Equal(t, "/jobs/create_or_update", paths[0])
	assert.Contains(t, bodies[0], `"run_type":"DOSE_RESPONSE"`)
	assert.Contains(t, bodies[0], `"flow_and_deployment_name":"dose_response_flow/prod"`)
	assert.Contains(t, bodies[0], `"params":{"legacy":true}`)
	assert.Contains(t, bodies[0], `"published":true`)
	assert.Contains(t, bodies[0], `"params_new":{"x":{"type":"string","required":true,`)
}

func TestRegister_SkipsUnchangedWithRedis(t *testing.T) {
	dir := scratch(t)
	var c capture
	srv := c.server(t)
	mr := miniredis.RunT(t)
	t.Setenv("MDFORM_REGISTRY_BASE_URL", srv.URL)
	t.Setenv("MDFORM_REDIS_ADDR", mr.Addr())

	schemaPath := writeFile(t, dir, "schema.json", schema)
	args := []string{"register", "--name", "Job", "--function", "f", "--deployment", "d",
		"--run-type", "ANOVA", "--schema", schemaPath}

	_, _, err := execute(t, "", args...)
	require.NoError(t, err)
	_, errOut, err := execute(t, "", args...)
	require.NoError(t, err)
	assert.Contains(t, errOut, "job unchanged, not sent")
	paths, _ := c.requests()
	assert.Len(t, paths, 1)
}

func TestRegister_Errors(t *testing.T) {
	dir := scratch(t)
	var c capture
	c.status = http.StatusInternalServerError
	srv := c.server(t)
	t.Setenv("MDFORM_REGISTRY_BASE_URL", srv.URL)
	schemaPath := writeFile(t, dir, "schema.json", schema)

	_, _, err := execute(t, "", "register", "--name", "J", "--function", "f", "--deployment", "d",
		"--run-type", "SURVIVAL", "--schema", schemaPath)
	assert.ErrorContains(t, err, "unknown run type")

	_, _, err = execute(t, "", "register", "--name", "J", "--function", "f", "--deployment", "d",
		"--run-type", "ANOVA", "--schema", schemaPath)
	assert.ErrorContains(t, err, "500")

	_, _, err = execute(t, "", "register", "--name", "J")
	assert.ErrorContains(t, err, "required flag")
}

func TestDeploy(t *testing.T) {
	scratch(t)
	var c capture
	srv := c.server(t)
	t.Setenv("MDFORM_REGISTRY_BASE_URL", srv.URL)
	t.Setenv("MDFORM_REGISTRY_API_KEY", "secret")

	out, errOut, err := execute(t, "", "deploy",
		"--name", "job name", "--function", "test_func", "--module", "tests.func",
		"--run-type", "intensity", "--image", "repo/image:1", "--slug", "dataset_slug")
	require.NoError(t, err)
	assert.Contains(t, errOut, "Deployed job name")
	assert.Contains(t, out, `"id": 7`)

	paths, bodies := c.requests()
	require.Len(t, paths, 1)
	assert.Equal(t, "/api/jobs/create_or_update", paths[0])
	assert.JSONEq(t,
		`{"name":"job name","run_type":"INTENSITY","slug":"dataset_slug","job_deploy_request":{"image":"repo/image:1","flow_package":"tests.func","flow":"test_func"}}`,
		bodies[0])
}

package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lemonberrylabs/lindenmaker/pkg/store"
)

const fernSource = `name: fern
lstring: "F[+F]F[-F]F"
defaults: {angle: 25}
materials: [bark, leaf]
`

func setupServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()
	s := store.New()
	srv, err := New(s, Config{})
	require.NoError(t, err)
	return srv, s
}

// do sends a request and decodes a JSON response body.
func do(t *testing.T, app *fiber.App, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), "body: %s", raw)
	}
	return resp.StatusCode, out
}

func createFern(t *testing.T, app *fiber.App) {
	t.Helper()
	code, body := do(t, app, "POST", "/v1/lsystems?lsystemId=fern", map[string]any{
		"sourceContents": fernSource,
		"description":    "a fern",
	})
	require.Equal(t, 200, code, "body: %v", body)
}

func errorStatus(body map[string]any) string {
	e, _ := body["error"].(map[string]any)
	s, _ := e["status"].(string)
	return s
}

func TestCreateAndGetLSystem(t *testing.T) {
	srv, _ := setupServer(t)
	app := srv.App()
	createFern(t, app)

	code, body := do(t, app, "GET", "/v1/lsystems/fern", nil)
	require.Equal(t, 200, code)
	assert.Equal(t, "lsystems/fern", body["name"])
	assert.Equal(t, "a fern", body["description"])
	assert.Equal(t, fernSource, body["sourceContents"])

	code, body = do(t, app, "GET", "/v1/lsystems", nil)
	require.Equal(t, 200, code)
	assert.Len(t, body["lsystems"], 1)
}

func TestCreateLSystemErrors(t *testing.T) {
	srv, _ := setupServer(t)
	app := srv.App()
	createFern(t, app)

	tests := []struct {
		name   string
		path   string
		body   any
		code   int
		status string
	}{
		{"missing id", "/v1/lsystems", map[string]any{"sourceContents": fernSource}, 400, "INVALID_ARGUMENT"},
		{"invalid id", "/v1/lsystems?lsystemId=Bad!", map[string]any{"sourceContents": fernSource}, 400, "INVALID_ARGUMENT"},
		{"missing source", "/v1/lsystems?lsystemId=x", map[string]any{}, 400, "INVALID_ARGUMENT"},
		{"invalid document", "/v1/lsystems?lsystemId=x", map[string]any{"sourceContents": "name: x"}, 400, "INVALID_ARGUMENT"},
		{"duplicate", "/v1/lsystems?lsystemId=fern", map[string]any{"sourceContents": fernSource}, 409, "ALREADY_EXISTS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := do(t, app, "POST", tt.path, tt.body)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.status, errorStatus(body))
		})
	}
}

func TestUpdateAndDeleteLSystem(t *testing.T) {
	srv, _ := setupServer(t)
	app := srv.App()
	createFern(t, app)

	_, before := do(t, app, "GET", "/v1/lsystems/fern", nil)

	code, body := do(t, app, "PATCH", "/v1/lsystems/fern", map[string]any{"sourceContents": "lstring: FF"})
	require.Equal(t, 200, code, "body: %v", body)
	assert.Equal(t, "lstring: FF", body["sourceContents"])
	assert.NotEqual(t, before["revisionId"], body["revisionId"])
	assert.Equal(t, "a fern", body["description"])

	code, body = do(t, app, "PATCH", "/v1/lsystems/fern", map[string]any{"sourceContents": "defaults: 1"})
	assert.Equal(t, 400, code)
	assert.Equal(t, "INVALID_ARGUMENT", errorStatus(body))

	code, _ = do(t, app, "PATCH", "/v1/lsystems/missing", map[string]any{"description": "x"})
	assert.Equal(t, 404, code)

	code, _ = do(t, app, "DELETE", "/v1/lsystems/fern", nil)
	assert.Equal(t, 200, code)

	code, body = do(t, app, "GET", "/v1/lsystems/fern", nil)
	assert.Equal(t, 404, code)
	assert.Equal(t, "NOT_FOUND", errorStatus(body))
}

func TestUpdatedSourceIsInterpreted(t *testing.T) {
	srv, _ := setupServer(t)
	app := srv.App()
	createFern(t, app)

	code, _ := do(t, app, "PATCH", "/v1/lsystems/fern", map[string]any{"sourceContents": "lstring: FFFF"})
	require.Equal(t, 200, code)

	code, body := do(t, app, "POST", "/v1/lsystems/fern/interpretations", nil)
	require.Equal(t, 200, code)
	stats := body["stats"].(map[string]any)
	assert.Equal(t, 4.0, stats["internodes"])
}

func TestCreateInterpretation(t *testing.T) {
	srv, _ := setupServer(t)
	app := srv.App()
	createFern(t, app)

	code, body := do(t, app, "POST", "/v1/lsystems/fern/interpretations", map[string]any{
		"overrides": map[string]any{"length": 2},
	})
	require.Equal(t, 200, code, "body: %v", body)
	assert.Equal(t, "SUCCEEDED", body["state"])

	opts := body["options"].(map[string]any)
	assert.Equal(t, 2.0, opts["length"])
	assert.Equal(t, 25.0, opts["angle"])

	result := body["result"].(map[string]any)
	assert.Equal(t, 11.0, result["commands"])

	stats := body["stats"].(map[string]any)
	assert.Equal(t, 5.0, stats["internodes"])

	name := body["name"].(string)
	require.True(t, strings.HasPrefix(name, "lsystems/fern/interpretations/"))

	code, got := do(t, app, "GET", "/v1/"+name, nil)
	require.Equal(t, 200, code)
	assert.Equal(t, name, got["name"])

	code, list := do(t, app, "GET", "/v1/lsystems/fern/interpretations", nil)
	require.Equal(t, 200, code)
	assert.Len(t, list["interpretations"], 1)
}

func TestCreateInterpretationErrors(t *testing.T) {
	srv, _ := setupServer(t)
	app := srv.App()
	createFern(t, app)

	code, body := do(t, app, "POST", "/v1/lsystems/missing/interpretations", nil)
	assert.Equal(t, 404, code)
	assert.Equal(t, "NOT_FOUND", errorStatus(body))

	code, body = do(t, app, "POST", "/v1/lsystems/fern/interpretations", map[string]any{
		"overrides": map[string]any{"speed": 3},
	})
	assert.Equal(t, 400, code)
	assert.Equal(t, "INVALID_ARGUMENT", errorStatus(body))

	code, _ = do(t, app, "GET", "/v1/lsystems/missing/interpretations", nil)
	assert.Equal(t, 404, code)
}

func TestFailedInterpretation(t *testing.T) {
	srv, _ := setupServer(t)
	app := srv.App()

	code, _ := do(t, app, "POST", "/v1/lsystems?lsystemId=broken", map[string]any{"sourceContents": "lstring: 'F]F'"})
	require.Equal(t, 200, code)

	code, body := do(t, app, "POST", "/v1/lsystems/broken/interpretations", nil)
	require.Equal(t, 200, code)
	assert.Equal(t, "FAILED", body["state"])

	e := body["error"].(map[string]any)
	assert.Contains(t, e["payload"], "StackUnderflowError")
	assert.Equal(t, `token "]" at position 1`, e["context"])

	name := body["name"].(string)
	code, body = do(t, app, "GET", "/v1/"+name+"/scene", nil)
	assert.Equal(t, 409, code)
	assert.Equal(t, "FAILED_PRECONDITION", errorStatus(body))
}

func TestSceneEndpoints(t *testing.T) {
	srv, _ := setupServer(t)
	app := srv.App()
	createFern(t, app)

	_, body := do(t, app, "POST", "/v1/lsystems/fern/interpretations", nil)
	name := body["name"].(string)

	code, view := do(t, app, "GET", "/v1/"+name+"/scene", nil)
	require.Equal(t, 200, code)
	assert.Len(t, view["segments"], 5)
	assert.Equal(t, []any{"bark", "leaf"}, view["materials"])

	req := httptest.NewRequest("GET", "/v1/"+name+"/scene.obj", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, 200, resp.StatusCode)
	obj, _ := io.ReadAll(resp.Body)
	assert.True(t, strings.HasPrefix(string(obj), "# lindenmaker"))
	assert.Equal(t, 10, strings.Count(string(obj), "\nv "))

	code, _ = do(t, app, "GET", "/v1/lsystems/fern/interpretations/nope/scene", nil)
	assert.Equal(t, 404, code)
}

func TestTokenize(t *testing.T) {
	srv, _ := setupServer(t)
	app := srv.App()

	code, body := do(t, app, "POST", "/v1/tokenize", map[string]any{"lstring": "F(1, 2) %[+F] A"})
	require.Equal(t, 200, code, "body: %v", body)
	assert.Equal(t, "F(1,2)A", body["cut"])

	tokens := body["tokens"].([]any)
	require.Len(t, tokens, 2)
	first := tokens[0].(map[string]any)
	assert.Equal(t, "F(1,2)", first["raw"])
	assert.Equal(t, "DRAW", first["kind"])
	assert.Equal(t, []any{1.0, 2.0}, first["args"])
	second := tokens[1].(map[string]any)
	assert.Equal(t, "UNKNOWN", second["kind"])
	assert.Equal(t, 6.0, second["pos"])
}

func TestTokenizeErrors(t *testing.T) {
	srv, _ := setupServer(t)
	app := srv.App()

	tests := []struct {
		name  string
		input string
		tag   string
	}{
		{"malformed", "F(1", "MalformedTokenError"},
		{"bad argument", "F(a)", "ParseError"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := do(t, app, "POST", "/v1/tokenize", map[string]any{"lstring": tt.input})
			assert.Equal(t, 400, code)
			e := body["error"].(map[string]any)
			details := e["details"].(map[string]any)
			assert.Contains(t, details["tags"], tt.tag)
			assert.Equal(t, 0.0, details["pos"])
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := setupServer(t)
	app := srv.App()
	createFern(t, app)
	do(t, app, "POST", "/v1/lsystems/fern/interpretations", nil)

	req := httptest.NewRequest("GET", "/metrics", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, 200, resp.StatusCode)

	text, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(text), `lindenmaker_interpretations_total{outcome="succeeded"`)
	assert.Contains(t, string(text), `lindenmaker_commands_total{kind="DRAW"} 5`)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"fern.yaml":   fernSource,
		"Bush.yml":    "lstring: 'F[&F]'",
		"tree.json":   `{"lstring": "FF"}`,
		"broken.yaml": "name: no lstring",
		"bad id.yaml": "lstring: F",
		"notes.txt":   "ignored",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.yaml"), 0o755))

	srv, s := setupServer(t)
	n, err := srv.LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	var names []string
	for _, ls := range s.ListLSystems() {
		names = append(names, ls.Name)
	}
	assert.Equal(t, []string{"lsystems/bush", "lsystems/fern", "lsystems/tree"}, names)

	_, err = srv.LoadDir(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestLoadExamples(t *testing.T) {
	srv, s := setupServer(t)
	n, err := srv.LoadDir(filepath.Join("..", "..", "examples", "lsystems"))
	require.NoError(t, err)
	require.Equal(t, 3, n)

	app := srv.App()
	for _, ls := range s.ListLSystems() {
		code, body := do(t, app, "POST", "/v1/"+ls.Name+"/interpretations", nil)
		require.Equal(t, 200, code, "body: %v", body)
		assert.Equal(t, "SUCCEEDED", body["state"], ls.Name)
	}
}

func TestAccessLog(t *testing.T) {
	var buf bytes.Buffer
	srv, err := New(store.New(), Config{AccessLog: &buf})
	require.NoError(t, err)

	do(t, srv.App(), "GET", "/v1/lsystems", nil)
	assert.Contains(t, buf.String(), "/v1/lsystems")
}

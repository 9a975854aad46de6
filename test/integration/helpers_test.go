package integration

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/tapelabs/deskcalc/pkg/api"
	"github.com/tapelabs/deskcalc/pkg/history"
	"github.com/tapelabs/deskcalc/pkg/worksheet"
	"github.com/tapelabs/deskcalc/web"
)

// newTestServer assembles the full server in process: HTTP API, web UI and
// any worksheets, sharing one history. Each test gets a fresh instance.
func newTestServer(t *testing.T, sheets ...*worksheet.Worksheet) (*fiber.App, *history.History) {
	t.Helper()

	hist := history.New(0)
	server := api.New(hist)
	for _, ws := range sheets {
		server.Register(ws)
	}
	ui := web.New(hist, server.Worksheets())
	ui.Register(server.App())

	return server.App(), hist
}

// parseSheet builds a worksheet from inline YAML.
func parseSheet(t *testing.T, source string) *worksheet.Worksheet {
	t.Helper()
	ws, err := worksheet.Parse([]byte(source))
	if err != nil {
		t.Fatalf("failed to parse worksheet: %v", err)
	}
	return ws
}

// postJSON sends a JSON body and decodes the JSON response.
func postJSON(t *testing.T, app *fiber.App, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal request body: %v", err)
	}

	req := httptest.NewRequest("POST", path, strings.NewReader(string(data)))
	req.Header.Set("Content-Type", "application/json")
	return doJSON(t, app, req)
}

// postRaw sends an unmodified body string, for malformed-payload tests.
func postRaw(t *testing.T, app *fiber.App, path, body, contentType string) (int, map[string]interface{}) {
	t.Helper()

	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", contentType)
	return doJSON(t, app, req)
}

func getJSON(t *testing.T, app *fiber.App, path string) (int, map[string]interface{}) {
	t.Helper()
	return doJSON(t, app, httptest.NewRequest("GET", path, nil))
}

func del(t *testing.T, app *fiber.App, path string) (int, map[string]interface{}) {
	t.Helper()
	return doJSON(t, app, httptest.NewRequest("DELETE", path, nil))
}

func doJSON(t *testing.T, app *fiber.App, req *http.Request) (int, map[string]interface{}) {
	t.Helper()

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request %s %s failed: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	var body map[string]interface{}
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &body); err != nil {
			t.Fatalf("request %s %s returned invalid JSON (%v): %s", req.Method, req.URL.Path, err, raw)
		}
	}
	return resp.StatusCode, body
}

// getPage fetches an HTML page, returning status, content type and body.
func getPage(t *testing.T, app *fiber.App, path string) (int, string, string) {
	t.Helper()

	req := httptest.NewRequest("GET", path, nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request GET %s failed: %v", path, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, resp.Header.Get("Content-Type"), string(body)
}

// evalResult is the decoded outcome of one POST /v1/evaluate call.
type evalResult struct {
	ID           string
	State        string // SUCCEEDED or FAILED
	Result       string
	Value        float64
	ErrorKind    string
	ErrorMessage string
	Raw          map[string]interface{}
}

// evaluate posts an expression and decodes the recorded outcome. Domain
// failures still answer 200; only transport misuse is a non-200.
func evaluate(t *testing.T, app *fiber.App, expression string) evalResult {
	t.Helper()

	status, body := postJSON(t, app, "/v1/evaluate", map[string]interface{}{
		"expression": expression,
	})
	if status != 200 {
		t.Fatalf("evaluate %q failed with status %d: %v", expression, status, body)
	}

	er := evalResult{Raw: body}
	er.ID, _ = body["id"].(string)
	er.State, _ = body["state"].(string)
	er.Result, _ = body["result"].(string)
	er.Value, _ = body["value"].(float64)
	if errMap, ok := body["error"].(map[string]interface{}); ok {
		er.ErrorKind, _ = errMap["kind"].(string)
		er.ErrorMessage, _ = errMap["message"].(string)
	}
	return er
}

// assertResult checks that the evaluation succeeded with the formatted result.
func assertResult(t *testing.T, er evalResult, expected string) {
	t.Helper()
	if er.State != "SUCCEEDED" {
		t.Fatalf("expected SUCCEEDED but got %s; error: %s; raw: %v", er.State, er.ErrorMessage, er.Raw)
	}
	if er.Result != expected {
		t.Errorf("result mismatch:\n  expected: %s\n  actual:   %s", expected, er.Result)
	}
}

// assertErrorKind checks that the evaluation failed with the given kind.
func assertErrorKind(t *testing.T, er evalResult, kind string) {
	t.Helper()
	if er.State != "FAILED" {
		t.Fatalf("expected FAILED but got %s; result: %s; raw: %v", er.State, er.Result, er.Raw)
	}
	if er.ErrorKind != kind {
		t.Errorf("error kind mismatch: expected %s, got %s (message: %s)", kind, er.ErrorKind, er.ErrorMessage)
	}
}

// assertBadRequest checks the INVALID_ARGUMENT error envelope.
func assertBadRequest(t *testing.T, status int, body map[string]interface{}, msgPart string) {
	t.Helper()
	if status != 400 {
		t.Fatalf("expected 400, got %d: %v", status, body)
	}
	errMap, ok := body["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error envelope, got: %v", body)
	}
	if s, _ := errMap["status"].(string); s != "INVALID_ARGUMENT" {
		t.Errorf("expected status INVALID_ARGUMENT, got %v", errMap["status"])
	}
	if msg, _ := errMap["message"].(string); !strings.Contains(msg, msgPart) {
		t.Errorf("error message %q does not contain %q", msg, msgPart)
	}
}

// assertNotFound checks the NOT_FOUND error envelope.
func assertNotFound(t *testing.T, status int, body map[string]interface{}) {
	t.Helper()
	if status != 404 {
		t.Fatalf("expected 404, got %d: %v", status, body)
	}
	errMap, ok := body["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error envelope, got: %v", body)
	}
	if s, _ := errMap["status"].(string); s != "NOT_FOUND" {
		t.Errorf("expected status NOT_FOUND, got %v", errMap["status"])
	}
}

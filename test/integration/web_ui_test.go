package integration

import (
	"net/http/httptest"
	"strings"
	"testing"
)

// The web UI shares its history with the HTTP API, so evaluations made
// through one surface show up on the other.

func TestWebUIDashboardLoads(t *testing.T) {
	app, _ := newTestServer(t)

	status, contentType, body := getPage(t, app, "/ui")
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
	if !strings.Contains(contentType, "text/html") {
		t.Errorf("expected text/html content type, got %s", contentType)
	}
	if !strings.Contains(body, "<html") {
		t.Error("response does not contain <html tag")
	}
	if !strings.Contains(body, "No evaluations yet") {
		t.Error("expected empty state message")
	}
}

func TestWebUIShowsAPIEvaluations(t *testing.T) {
	app, _ := newTestServer(t)

	evaluate(t, app, "6*7")
	evaluate(t, app, "1/0")

	_, _, body := getPage(t, app, "/ui")
	if !strings.Contains(body, "6*7") {
		t.Error("expected API evaluation to appear on the dashboard")
	}
	if !strings.Contains(body, "42") {
		t.Error("expected result on the dashboard")
	}
	if !strings.Contains(body, "division by zero") {
		t.Error("expected failure message on the dashboard")
	}
}

func TestWebUIHistoryPage(t *testing.T) {
	app, _ := newTestServer(t)

	er := evaluate(t, app, "10/4")

	status, _, body := getPage(t, app, "/ui/history")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	if !strings.Contains(body, er.ID) {
		t.Errorf("expected entry %s on the history page", er.ID)
	}
	if !strings.Contains(body, "2.5") {
		t.Error("expected result on the history page")
	}
}

func TestWebUIWorksheetsPage(t *testing.T) {
	app, _ := newTestServer(t, parseSheet(t, basicsSheet))

	status, _, body := getPage(t, app, "/ui/worksheets")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	if !strings.Contains(body, "basics") {
		t.Error("expected worksheet name on the page")
	}
	if !strings.Contains(body, "Arithmetic sanity checks") {
		t.Error("expected worksheet description on the page")
	}
}

func TestWebUIEvaluateForm(t *testing.T) {
	app, hist := newTestServer(t)

	form := strings.NewReader("expression=2%2B3*4")
	req := httptest.NewRequest("POST", "/ui/evaluate", form)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != 302 {
		t.Fatalf("expected 302 redirect, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/ui" {
		t.Fatalf("expected redirect to /ui, got %s", loc)
	}

	// The form submission lands in the shared history, visible to the API too.
	status, body := getJSON(t, app, "/v1/history")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	if count, _ := body["count"].(float64); count != 1 {
		t.Fatalf("expected 1 history entry, got %v", body["count"])
	}
	if hist.List()[0].Result != "14" {
		t.Errorf("expected recorded result 14, got %s", hist.List()[0].Result)
	}
}

func TestWebUIRootRedirect(t *testing.T) {
	app, _ := newTestServer(t)

	req := httptest.NewRequest("GET", "/", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != 302 {
		t.Fatalf("expected 302 redirect, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/ui" {
		t.Fatalf("expected redirect to /ui, got %s", loc)
	}
}

func TestWebUI404ForUnknownPath(t *testing.T) {
	app, _ := newTestServer(t)

	status, _, _ := getPage(t, app, "/ui/nonexistent-page")
	if status != 404 {
		t.Errorf("expected 404 for unknown UI path, got %d", status)
	}
}

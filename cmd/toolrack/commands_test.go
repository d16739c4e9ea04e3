package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
	Auth   string
}

type testServer struct {
	server   *httptest.Server
	requests []recordedRequest
}

func newTestServer(t *testing.T, responses map[string]string) *testServer {
	t.Helper()
	ts := &testServer{}

	ts.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body bytes.Buffer
		body.ReadFrom(r.Body)

		ts.requests = append(ts.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.RequestURI(),
			Body:   body.String(),
			Auth:   r.Header.Get("Authorization"),
		})

		key := r.Method + " " + r.URL.Path
		if resp, ok := responses[key]; ok {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(resp))
			return
		}

		w.WriteHeader(404)
		w.Write([]byte(`{"error":{"message":"not found","type":"not_found"}}`))
	}))

	t.Cleanup(ts.server.Close)
	return ts
}

func (ts *testServer) client() *apiClient {
	return &apiClient{
		baseURL:    ts.server.URL,
		token:      "test-token",
		httpClient: ts.server.Client(),
	}
}

// withFakeClient points the CLI at the recording server for the duration
// of a test.
func withFakeClient(t *testing.T, ts *testServer) {
	t.Helper()
	orig := newAPIClient
	newAPIClient = func() (*apiClient, error) { return ts.client(), nil }
	t.Cleanup(func() { newAPIClient = orig })
}

var ctx = context.Background()

// runE invokes a command's RunE with a real context, as Execute would.
func runE(t *testing.T, cmd *cobra.Command, args []string) error {
	t.Helper()
	cmd.SetContext(ctx)
	return cmd.RunE(cmd, args)
}

func TestClientSendsBearerToken(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /profiles": `[]`,
	})
	client := ts.client()

	resp, err := client.get(ctx, "/profiles")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var out []any
	if err := decodeJSON(resp, &out); err != nil {
		t.Fatalf("decode error: %v", err)
	}

	if len(ts.requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(ts.requests))
	}
	if ts.requests[0].Auth != "Bearer test-token" {
		t.Errorf("auth = %q, want Bearer test-token", ts.requests[0].Auth)
	}
}

func TestDecodeJSONErrorBody(t *testing.T) {
	ts := newTestServer(t, nil)
	client := ts.client()

	resp, err := client.get(ctx, "/profiles/99")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var out map[string]any
	err = decodeJSON(resp, &out)
	if err == nil {
		t.Fatal("expected error for 404 response")
	}
	if !strings.Contains(err.Error(), "404") || !strings.Contains(err.Error(), "not found") {
		t.Errorf("error = %q, want status and message in it", err)
	}
}

func TestToolAddCommand(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /tools": `{"id":5,"code":"110071","status":"ready"}`,
	})
	withFakeClient(t, ts)

	toolAddCmd.Flags().Set("profile", "7")
	toolAddCmd.Flags().Set("position", "Bottom")
	toolAddCmd.Flags().Set("type", "Profile")
	toolAddCmd.Flags().Set("set", "1")
	toolAddCmd.Flags().Set("knives", "6")

	if err := runE(t, toolAddCmd, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(ts.requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(ts.requests))
	}
	r := ts.requests[0]
	if r.Method != "POST" || r.Path != "/tools" {
		t.Errorf("request = %s %s, want POST /tools", r.Method, r.Path)
	}
	var body map[string]any
	if err := json.Unmarshal([]byte(r.Body), &body); err != nil {
		t.Fatalf("body parse error: %v", err)
	}
	if body["profile_id"] != float64(7) {
		t.Errorf("body.profile_id = %v, want 7", body["profile_id"])
	}
	if body["position"] != "Bottom" || body["tool_type"] != "Profile" {
		t.Errorf("body = %v", body)
	}
}

func TestToolAddRequiresFlags(t *testing.T) {
	ts := newTestServer(t, nil)
	withFakeClient(t, ts)

	toolAddCmd.Flags().Set("profile", "0")
	toolAddCmd.Flags().Set("position", "")
	toolAddCmd.Flags().Set("type", "")

	if err := runE(t, toolAddCmd, nil); err == nil {
		t.Fatal("expected error for missing flags")
	}
	if len(ts.requests) != 0 {
		t.Errorf("request sent despite missing flags")
	}
}

func TestAssignSetCommand(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"PUT /profiles/7/heads/1": `{"id":1,"profile_id":7,"tool_id":5,"head_number":1,"tool_code":"110071"}`,
	})
	withFakeClient(t, ts)

	assignSetCmd.Flags().Set("rpm", "6000")
	if err := runE(t, assignSetCmd, []string{"7", "1", "5"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r := ts.requests[0]
	if r.Method != "PUT" || r.Path != "/profiles/7/heads/1" {
		t.Errorf("request = %s %s", r.Method, r.Path)
	}
	var body map[string]any
	if err := json.Unmarshal([]byte(r.Body), &body); err != nil {
		t.Fatalf("body parse error: %v", err)
	}
	if body["tool_id"] != float64(5) || body["rpm"] != float64(6000) {
		t.Errorf("body = %v", body)
	}
}

func TestAssignSetRejectsBadToolID(t *testing.T) {
	ts := newTestServer(t, nil)
	withFakeClient(t, ts)

	if err := runE(t, assignSetCmd, []string{"7", "1", "five"}); err == nil {
		t.Fatal("expected error for non-numeric tool id")
	}
	if len(ts.requests) != 0 {
		t.Errorf("request sent despite invalid arguments")
	}
}

func TestAssignClearCommand(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"DELETE /profiles/7/heads/3": `{"status":"cleared"}`,
	})
	withFakeClient(t, ts)

	if err := runE(t, assignClearCmd, []string{"7", "3"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ts.requests[0].Method != "DELETE" {
		t.Errorf("method = %s, want DELETE", ts.requests[0].Method)
	}
}

func TestProfileListQueryEscaped(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /profiles": `[{"id":1,"name":"Skirting 90x18","feed_rate":2.5}]`,
	})
	withFakeClient(t, ts)

	profileListCmd.Flags().Set("query", "skirting 90")
	if err := runE(t, profileListCmd, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ts.requests[0].Path; got != "/profiles?q=skirting+90" {
		t.Errorf("path = %q, want the query escaped", got)
	}
}

func TestToolSetStatusCommand(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"PUT /tools/5/status": `{"id":5,"code":"110071","status":"worn"}`,
	})
	withFakeClient(t, ts)

	if err := runE(t, toolStatusCmd, []string{"5", "worn"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body map[string]any
	if err := json.Unmarshal([]byte(ts.requests[0].Body), &body); err != nil {
		t.Fatalf("body parse error: %v", err)
	}
	if body["status"] != "worn" {
		t.Errorf("body.status = %v, want worn", body["status"])
	}
}

func TestSettingsSetCommand(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"PUT /settings": `{"status":"updated"}`,
	})
	withFakeClient(t, ts)

	if err := runE(t, settingsSetCmd, []string{"security.mode", "read_only"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body map[string]string
	if err := json.Unmarshal([]byte(ts.requests[0].Body), &body); err != nil {
		t.Fatalf("body parse error: %v", err)
	}
	if body["key"] != "security.mode" || body["value"] != "read_only" {
		t.Errorf("body = %v", body)
	}
}

func TestSearchToolsBuildsFilterQuery(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /tools": `[]`,
	})
	withFakeClient(t, ts)

	searchToolsCmd.Flags().Set("status", "worn")
	searchToolsCmd.Flags().Set("position", "Bottom")
	if err := runE(t, searchToolsCmd, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	path := ts.requests[0].Path
	if !strings.Contains(path, "status=worn") || !strings.Contains(path, "position=Bottom") {
		t.Errorf("path = %q, want status and position params", path)
	}

	// Reset so later runs do not inherit the filters.
	searchToolsCmd.Flags().Set("status", "")
	searchToolsCmd.Flags().Set("position", "")
}

func TestBackupListCommand(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /backups": `[{"path":"/data/backups/toolrack_backup_20260830_020000_auto.zip","type":"auto","size":1024,"created_at":"2026-08-30T02:00:00Z"}]`,
	})
	withFakeClient(t, ts)

	if err := runE(t, backupListCmd, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ts.requests[0].Path != "/backups" {
		t.Errorf("path = %q", ts.requests[0].Path)
	}
}

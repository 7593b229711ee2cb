//go:build integration

package integration_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"
)

func baseURL() string {
	if v := os.Getenv("PULSE_TEST_BASE_URL"); strings.TrimSpace(v) != "" {
		return strings.TrimRight(v, "/")
	}
	return "http://127.0.0.1:8080"
}

func TestSessionJourneyIntegration(t *testing.T) {
	client := &http.Client{Timeout: 5 * time.Second}
	base := baseURL()

	presenterEmail := fmt.Sprintf("integration_%d@example.com", time.Now().UnixNano())
	password := "Secret123!"

	var registerResp struct {
		Token       string `json:"token"`
		PresenterID string `json:"presenter_id"`
	}
	doPost(t, client, base+"/api/auth/register", "", map[string]string{
		"email":    presenterEmail,
		"password": password,
	}, &registerResp)
	if registerResp.Token == "" || registerResp.PresenterID == "" {
		t.Fatalf("unexpected register response: %+v", registerResp)
	}

	var loginResp struct {
		Token string `json:"token"`
	}
	doPost(t, client, base+"/api/auth/login", "", map[string]string{
		"email":    presenterEmail,
		"password": password,
	}, &loginResp)
	token := loginResp.Token
	if token == "" {
		t.Fatalf("login did not return token")
	}

	var sessionResp struct {
		ID   string `json:"id"`
		Code string `json:"code"`
	}
	doPost(t, client, base+"/api/sessions", token, map[string]string{
		"name": fmt.Sprintf("Integration Session %d", time.Now().UnixNano()),
	}, &sessionResp)
	if sessionResp.ID == "" || len(sessionResp.Code) != 6 {
		t.Fatalf("unexpected session response: %+v", sessionResp)
	}

	var joinResp struct {
		ID        string `json:"id"`
		SessionID string `json:"session_id"`
	}
	doPost(t, client, base+"/api/join", "", map[string]string{
		"code":       sessionResp.Code,
		"name":       "Integration Participant",
		"generation": "Millennial",
	}, &joinResp)
	if joinResp.ID == "" || joinResp.SessionID != sessionResp.ID {
		t.Fatalf("unexpected join response: %+v", joinResp)
	}

	for i := 0; i < 8; i++ {
		doPost(t, client, base+"/api/answers", "", map[string]any{
			"session_id":     sessionResp.ID,
			"participant_id": joinResp.ID,
			"question_index": i,
			"answer_id":      "b",
		}, nil)
	}

	var completeResp struct {
		Completed bool `json:"completed"`
		Scores    *struct {
			Collaboration int `json:"collaboration"`
		} `json:"scores"`
	}
	doPost(t, client, base+"/api/complete", "", map[string]string{
		"session_id":     sessionResp.ID,
		"participant_id": joinResp.ID,
	}, &completeResp)
	if !completeResp.Completed || completeResp.Scores == nil {
		t.Fatalf("unexpected complete response: %+v", completeResp)
	}

	var analyticsResp struct {
		TotalCount     int `json:"total_count"`
		CompletedCount int `json:"completed_count"`
		ResponseRate   int `json:"response_rate"`
	}
	doGet(t, client, base+"/api/sessions/"+sessionResp.ID+"/analytics", "", &analyticsResp)
	if analyticsResp.TotalCount < 1 || analyticsResp.CompletedCount < 1 {
		t.Fatalf("unexpected analytics response: %+v", analyticsResp)
	}

	req, err := http.NewRequest(http.MethodGet, base+"/api/sessions/"+sessionResp.ID+"/export", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("export request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("export status %d body %s", resp.StatusCode, string(body))
	}
	csvData, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read export data: %v", err)
	}
	if !strings.Contains(string(csvData), joinResp.ID) {
		t.Fatalf("export csv did not contain participant id; csv=%s", string(csvData))
	}
}

func doPost(t *testing.T, client *http.Client, url, token string, body any, out any) {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if strings.TrimSpace(token) != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	doRequest(t, client, req, out)
}

func doGet(t *testing.T, client *http.Client, url, token string, out any) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if strings.TrimSpace(token) != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	doRequest(t, client, req, out)
}

func doRequest(t *testing.T, client *http.Client, req *http.Request, out any) {
	t.Helper()
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("http %s %s failed: %v", req.Method, req.URL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		t.Fatalf("unexpected status %d for %s: %s", resp.StatusCode, req.URL, string(bodyBytes))
	}
	if out != nil {
		decoder := json.NewDecoder(resp.Body)
		if err := decoder.Decode(out); err != nil && err != io.EOF {
			t.Fatalf("decode response from %s: %v", req.URL, err)
		}
	}
}

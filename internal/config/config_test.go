package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type stubRequest struct {
	Method string `yaml:"method" toml:"method" json:"method"`
}

type stubResponse struct {
	Status string `yaml:"status" toml:"status" json:"status"`
}

func mergeStubRequest(base, override stubRequest) stubRequest {
	if override.Method != "" {
		return override
	}
	return base
}

func mergeStubResponse(base, override stubResponse) stubResponse {
	if override.Status != "" {
		return override
	}
	return base
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeTemp(t, "case.yaml", `
name: demo
destinations:
  actual: http://localhost:8080
  expect: http://localhost:8081
setting:
  request:
    method: GET
  response:
    status: ok
testcases:
  - description: root
    target: /
    setting:
      request:
        method: POST
    attr:
      allow: false
`)

	cfg, err := Load[stubRequest, stubResponse](path)
	require.NoError(t, err)
	require.Equal(t, "demo", cfg.Name)
	require.Len(t, cfg.Testcases, 1)
	require.Equal(t, "POST", cfg.Testcases[0].Setting.Request.Method)

	wc := cfg.WorkerConfig()
	require.Equal(t, []string{"actual", "expect"}, wc.Destinations.Names())
}

func TestLoadJSON(t *testing.T) {
	path := writeTemp(t, "case.json", `{
		"destinations": {"actual": "http://localhost:8080"},
		"setting": {"request": {"method": "GET"}, "response": {"status": "ok"}},
		"testcases": [{"description": "root", "target": "/", "setting": {"request": {}}, "attr": {"allow": false}}]
	}`)

	cfg, err := Load[stubRequest, stubResponse](path)
	require.NoError(t, err)
	require.Len(t, cfg.Testcases, 1)
}

func TestLoadTOML(t *testing.T) {
	path := writeTemp(t, "case.toml", `
destinations = { actual = "http://localhost:8080" }

[setting.request]
method = "GET"

[setting.response]
status = "ok"

[[testcases]]
description = "root"
target = "/"

[testcases.setting.request]

[testcases.attr]
allow = false
`)

	cfg, err := Load[stubRequest, stubResponse](path)
	require.NoError(t, err)
	require.Len(t, cfg.Testcases, 1)
	require.Equal(t, "GET", cfg.Setting.Request.Method)
}

func TestLoadUnknownExtension(t *testing.T) {
	path := writeTemp(t, "case.txt", "irrelevant")
	_, err := Load[stubRequest, stubResponse](path)
	require.Error(t, err)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := writeTemp(t, "case.yaml", "bogus_field: true\n")
	_, err := Load[stubRequest, stubResponse](path)
	require.Error(t, err)
}

func TestCoalesceSettingRightBiased(t *testing.T) {
	workerTimeout := 5 * time.Second
	worker := Setting[stubRequest, stubResponse]{
		Request:  stubRequest{Method: "GET"},
		Timeout:  &workerTimeout,
		Response: stubResponse{Status: "ok"},
	}
	caseLevel := Setting[stubRequest, stubResponse]{
		Request: stubRequest{Method: "POST"},
	}

	merged := CoalesceSetting(worker, caseLevel, mergeStubRequest, mergeStubResponse)
	require.Equal(t, "POST", merged.Request.Method)
	require.Equal(t, workerTimeout, *merged.Timeout)
	require.Equal(t, "ok", merged.Response.Status)
}

func TestRepeatTimes(t *testing.T) {
	var r *Repeat
	require.Equal(t, 1, r.Times())

	n := Repeat(10)
	r = &n
	require.Equal(t, 10, r.Times())
}

// Package record implements the optional request/response artifact dump:
// one directory per target, holding a raw wire-style dump and a body-only
// file for each side of the call, under an output root guarded by a
// ".gitignore" sentinel.
//
// Recording is protocol-agnostic: callers supply a Codec that knows how to
// render a wire-style dump and a body-plus-extension for their concrete
// request/response types. It also sits entirely outside the measured call:
// DumpRequest runs before dispatch and DumpResponse after the measured
// result has been captured, so disk writes never count against a request's
// latency or its timeout.
package record

import (
	"os"
	"path/filepath"
	"sync"
)

// Config names the directory artifacts are written under. A nil *Config
// means recording is disabled.
type Config struct {
	OutputDir string

	once sync.Once
}

// Codec renders one side of a call (request or response) for recording.
type Codec[T any] interface {
	// Raw renders the full wire-style dump. For HTTP that is
	// "METHOD URI HTTP/1.1\n..." or "HTTP/1.1 STATUS\n..." followed by
	// headers, a blank line, and the lossy-UTF8 body; the gRPC codec writes
	// "CALL <method>" or "OK", a blank line, and the JSON payload.
	Raw(T) string
	// Body returns the body-only bytes and a file extension ("json" or
	// "txt", chosen from the content type).
	Body(T) ([]byte, string)
}

// targetDir ensures the output root (with its ".gitignore" containing
// "*\n", written once per Config) and the per-target directory exist,
// returning the latter.
func (c *Config) targetDir(target string) string {
	c.once.Do(func() {
		_ = os.MkdirAll(c.OutputDir, 0o755)
		_ = os.WriteFile(filepath.Join(c.OutputDir, ".gitignore"), []byte("*\n"), 0o644)
	})
	dir := filepath.Join(c.OutputDir, target)
	_ = os.MkdirAll(dir, 0o755)
	return dir
}

// DumpRequest writes raw_request.txt and request.<ext> under target's
// directory. No-op when cfg is nil.
func DumpRequest[Req any](cfg *Config, target string, codec Codec[Req], req Req) {
	if cfg == nil {
		return
	}
	dir := cfg.targetDir(target)
	writeFile(dir, "raw_request.txt", []byte(codec.Raw(req)))
	body, ext := codec.Body(req)
	writeFile(dir, "request."+ext, body)
}

// DumpResponse writes raw_response.txt and response.<ext> under target's
// directory. No-op when cfg is nil.
func DumpResponse[Res any](cfg *Config, target string, codec Codec[Res], res Res) {
	if cfg == nil {
		return
	}
	dir := cfg.targetDir(target)
	writeFile(dir, "raw_response.txt", []byte(codec.Raw(res)))
	body, ext := codec.Body(res)
	writeFile(dir, "response."+ext, body)
}

func writeFile(dir, name string, body []byte) {
	_ = os.WriteFile(filepath.Join(dir, name), body, 0o644)
}

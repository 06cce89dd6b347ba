package llm

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

// annotationSanitizer rewrites streamed SSE events, dropping any
// choices[].delta.annotations value that is not an array.
type annotationSanitizer struct {
	base http.RoundTripper
}

func (t *annotationSanitizer) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/event-stream") {
		return resp, nil
	}

	resp.Body = &sseRewriter{
		src:    bufio.NewReader(resp.Body),
		closer: resp.Body,
	}
	resp.ContentLength = -1
	resp.Header.Del("Content-Length")
	return resp, nil
}

// sseRewriter applies sanitizeSSELine to each line of an event stream
type sseRewriter struct {
	src    *bufio.Reader
	closer io.Closer
	buf    bytes.Buffer
	err    error
}

func (r *sseRewriter) Read(p []byte) (int, error) {
	for r.buf.Len() == 0 && r.err == nil {
		line, err := r.src.ReadBytes('\n')
		if len(line) > 0 {
			r.buf.Write(sanitizeSSELine(line))
		}
		if err != nil {
			r.err = err
		}
	}
	if r.buf.Len() > 0 {
		return r.buf.Read(p)
	}
	return 0, r.err
}

func (r *sseRewriter) Close() error {
	return r.closer.Close()
}

func sanitizeSSELine(line []byte) []byte {
	trimmed := bytes.TrimRight(line, "\r\n")
	if !bytes.HasPrefix(trimmed, []byte("data:")) {
		return line
	}
	payload := bytes.TrimSpace(trimmed[len("data:"):])
	if bytes.Equal(payload, []byte("[DONE]")) || !bytes.Contains(payload, []byte(`"annotations"`)) {
		return line
	}

	var event map[string]any
	if err := json.Unmarshal(payload, &event); err != nil {
		return line
	}

	changed := false
	choices, _ := event["choices"].([]any)
	for _, c := range choices {
		choice, ok := c.(map[string]any)
		if !ok {
			continue
		}
		delta, ok := choice["delta"].(map[string]any)
		if !ok {
			continue
		}
		if a, exists := delta["annotations"]; exists {
			if _, isArray := a.([]any); !isArray {
				delete(delta, "annotations")
				changed = true
			}
		}
	}
	if !changed {
		return line
	}

	out, err := json.Marshal(event)
	if err != nil {
		return line
	}
	rewritten := make([]byte, 0, len(out)+8)
	rewritten = append(rewritten, "data: "...)
	rewritten = append(rewritten, out...)
	rewritten = append(rewritten, '\n')
	return rewritten
}

package rpc

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
)

// content types
const jsonContentType = "application/json; charset=utf-8"

// writeJSON writes obj as a JSON response body.
func writeJSON(w http.ResponseWriter, obj any) error {
	w.Header().Set("Content-Type", jsonContentType)
	return json.NewEncoder(w).Encode(obj)
}

// parseJSON decodes r strictly: an unrecognized field is a client
// error, not a silently ignored one.
func parseJSON(r io.Reader, v any) error {
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

// ServeHTTP accepts a single JSON-RPC request object or a JSON array
// of them (batch). A malformed body never reaches the dispatcher: it
// is answered with a parse-error response carrying no id, per the
// JSON-RPC 2.0 convention.
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 8<<20))
	if err != nil {
		writeJSON(w, replyErr(nil, parseError(err)))
		return
	}

	trimmed := skipSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var reqs []Request
		if err := parseJSON(bytes.NewReader(trimmed), &reqs); err != nil {
			writeJSON(w, replyErr(nil, parseError(err)))
			return
		}
		writeJSON(w, d.dispatchBatch(reqs))
		return
	}

	var req Request
	if err := parseJSON(bytes.NewReader(trimmed), &req); err != nil {
		writeJSON(w, replyErr(nil, parseError(err)))
		return
	}
	writeJSON(w, d.dispatchOne(req))
}

func skipSpace(b []byte) []byte {
	i := 0
	for i < len(b) {
		switch b[i] {
		case ' ', '\t', '\r', '\n':
			i++
			continue
		}
		break
	}
	return b[i:]
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/ManuGH/hlsgate/internal/httpheaders"
	"github.com/ManuGH/hlsgate/internal/proxyerr"
)

const maxJSONBodyBytes = 1 << 20 // 1 MiB; a manifest request body is never legitimately larger.

// proxyRequestBody is the JSON shape POST /m3u8-proxy and POST /resolve
// both accept.
type proxyRequestBody struct {
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers"`
}

// urlAndHeaders extracts the target URL string and caller headers for a
// GET-style request: "url" (or, for /proxy/hls, "link") from the query
// string, plus an optional JSON-encoded "headers" query parameter merged
// on top of the request's own HTTP headers. The raw "headers" query value
// is returned unchanged so callers can re-propagate it into rewritten
// manifest URIs verbatim.
func urlAndHeaders(r *http.Request, urlParam string) (string, httpheaders.Headers, string, *proxyerr.Error) {
	raw := r.URL.Query().Get(urlParam)
	if raw == "" {
		return "", httpheaders.Headers{}, "", proxyerr.Malformed("missing required query parameter " + urlParam)
	}

	h := httpheaders.FromRequest(r)
	hdrJSON := r.URL.Query().Get("headers")
	if hdrJSON != "" {
		extra, err := decodeHeadersParam(hdrJSON)
		if err != nil {
			return "", httpheaders.Headers{}, "", proxyerr.Malformed("invalid headers parameter: " + err.Error())
		}
		h = httpheaders.Merge(h, extra)
	}
	return raw, h, hdrJSON, nil
}

// urlAndHeadersFromBody extracts {url, headers} from a JSON request body,
// merging the decoded headers on top of whatever HTTP headers the caller
// already sent. The caller-supplied headers map is re-marshaled to JSON so
// it can be re-propagated into rewritten manifest URIs the same way the
// GET form's "headers" query parameter is.
func urlAndHeadersFromBody(r *http.Request) (string, httpheaders.Headers, string, *proxyerr.Error) {
	var body proxyRequestBody
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBodyBytes))
	if err := dec.Decode(&body); err != nil {
		return "", httpheaders.Headers{}, "", proxyerr.Malformed("invalid JSON body: " + err.Error())
	}
	if body.URL == "" {
		return "", httpheaders.Headers{}, "", proxyerr.Malformed("missing required field url")
	}

	h := httpheaders.Merge(httpheaders.FromRequest(r), httpheaders.FromMap(body.Headers))

	hdrJSON := ""
	if len(body.Headers) > 0 {
		if encoded, err := json.Marshal(body.Headers); err == nil {
			hdrJSON = string(encoded)
		}
	}
	return body.URL, h, hdrJSON, nil
}

func decodeHeadersParam(raw string) (httpheaders.Headers, error) {
	var m map[string]string
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return httpheaders.Headers{}, err
	}
	return httpheaders.FromMap(m), nil
}

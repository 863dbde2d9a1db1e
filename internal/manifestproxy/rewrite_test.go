// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package manifestproxy

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestRewrite_NestedMediaPlaylist(t *testing.T) {
	upstream := mustParse(t, "https://origin.example/live/master.m3u8")
	body := "#EXTM3U\n#EXT-X-STREAM-INF:BANDWIDTH=800000\nlow/index.m3u8\n"

	got := Rewrite(body, upstream, "https://proxy.example", "")

	want := "https://proxy.example/m3u8-proxy?url=" + url.QueryEscape("https://origin.example/live/low/index.m3u8")
	assert.Contains(t, got, want)
	assert.Contains(t, got, "#EXTM3U")
}

func TestRewrite_EncryptionKeyURI(t *testing.T) {
	upstream := mustParse(t, "https://origin.example/live/index.m3u8")
	body := `#EXT-X-KEY:METHOD=AES-128,URI="key.bin",IV=0x1234`

	got := Rewrite(body, upstream, "https://proxy.example", "")

	wantURL := "https://proxy.example/ts-proxy?url=" + url.QueryEscape("https://origin.example/live/key.bin")
	require.Contains(t, got, `URI="`+wantURL+`"`)
	assert.Contains(t, got, "METHOD=AES-128")
	assert.Contains(t, got, "IV=0x1234")
}

func TestRewrite_MediaTagWithHeadersQuery(t *testing.T) {
	upstream := mustParse(t, "https://origin.example/live/index.m3u8")
	body := `#EXT-X-MEDIA:TYPE=AUDIO,URI="audio/index.m3u8"`
	headersQuery := HeadersQuery(`{"Referer":"https://player.example"}`)

	got := Rewrite(body, upstream, "https://proxy.example/", headersQuery)

	assert.Contains(t, got, "/m3u8-proxy?url=")
	assert.Contains(t, got, "&headers=")
}

func TestRewrite_SegmentLineNoLeadingHash(t *testing.T) {
	upstream := mustParse(t, "https://origin.example/live/index.m3u8")
	body := "#EXTINF:9.009,\nsegment0.ts\n"

	got := Rewrite(body, upstream, "https://proxy.example", "")

	want := "https://proxy.example/ts-proxy?url=" + url.QueryEscape("https://origin.example/live/segment0.ts")
	assert.Contains(t, got, want)
}

func TestRewrite_UnresolvableURIKeptVerbatim(t *testing.T) {
	upstream := mustParse(t, "https://origin.example/live/index.m3u8")
	line := `#EXT-X-KEY:METHOD=AES-128,URI="://bad"`

	got := rewriteURIAttr(line, upstream, "https://proxy.example", "ts-proxy", "")
	assert.Equal(t, line, got)
}

func TestRewriteLine_CommentWithoutURIUnchanged(t *testing.T) {
	upstream := mustParse(t, "https://origin.example/live/index.m3u8")
	line := "#EXT-X-VERSION:3"
	assert.Equal(t, line, rewriteLine(line, upstream, "https://proxy.example", ""))
}

func TestRewriteLine_BlankLinePreserved(t *testing.T) {
	upstream := mustParse(t, "https://origin.example/live/index.m3u8")
	assert.Equal(t, "", rewriteLine("", upstream, "https://proxy.example", ""))
}

func TestHeadersQuery_Empty(t *testing.T) {
	assert.Equal(t, "", HeadersQuery(""))
}

func TestHeadersQuery_Encoded(t *testing.T) {
	got := HeadersQuery(`{"a":"b"}`)
	assert.Contains(t, got, "&headers=")
}

func TestRepairReferer(t *testing.T) {
	cases := []struct {
		name     string
		referer  string
		origin   string
		wantOK   bool
		wantVal  string
	}{
		{"absolute passthrough", "https://player.example/watch", "https://origin.example", true, "https://player.example/watch"},
		{"path-rooted joins origin", "/watch/123", "https://origin.example", true, "https://origin.example/watch/123"},
		{"bare slug joins origin with slash", "watch123", "https://origin.example", true, "https://origin.example/watch123"},
		{"empty referer dropped", "", "https://origin.example", false, ""},
		{"no origin cannot repair", "watch123", "", false, ""},
		{"origin trailing slash trimmed", "/watch", "https://origin.example/", true, "https://origin.example/watch"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, ok := RepairReferer(c.referer, c.origin)
			assert.Equal(t, c.wantOK, ok)
			if ok {
				assert.Equal(t, c.wantVal, got)
			}
		})
	}
}

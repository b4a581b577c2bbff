/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package bingo

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShareText(t *testing.T) {
	text := ShareText("https://bingo.example.com/")

	assert.Contains(t, text, "Play here: https://bingo.example.com/")
	assert.Contains(t, text, DonateURL)
	assert.True(t, strings.HasSuffix(text, "#Python #SupportPSF #PSF"))

	assert.Contains(t, ShareText(""), "Play here: "+DefaultPlayURL)
}

func TestEncodeComponent(t *testing.T) {
	assert.Equal(t, "a%20b%2Bc%26d%3De%0A%23f", encodeComponent("a b+c&d=e\n#f"))
}

func TestIntentURLs(t *testing.T) {
	text := ShareText(DefaultPlayURL)

	for _, raw := range []string{TwitterIntentURL(text), LinkedInShareURL(text)} {
		u, err := url.Parse(raw)
		require.NoError(t, err)

		assert.Equal(t, "https", u.Scheme)
		assert.Equal(t, text, u.Query().Get("text"))
		assert.NotContains(t, u.RawQuery, "+")
	}

	assert.True(t, strings.HasPrefix(TwitterIntentURL(text), "https://twitter.com/intent/tweet?text="))
	assert.True(t, strings.HasPrefix(LinkedInShareURL(text), "https://www.linkedin.com/feed/?shareActive=true&text="))
}

func TestNewShare(t *testing.T) {
	s := NewShare("https://bingo.example.com/")

	assert.Equal(t, ShareText("https://bingo.example.com/"), s.Text)
	assert.Equal(t, TwitterIntentURL(s.Text), s.Twitter)
	assert.Equal(t, LinkedInShareURL(s.Text), s.LinkedIn)
}

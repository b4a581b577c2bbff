/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package bingo

import (
	"net/url"
	"strings"
)

const (
	DefaultPlayURL = "https://python-bingo.netlify.app/"
	DonateURL      = "https://donate.python.org/"
)

// Share bundles the share text with ready-made intent links.
type Share struct {
	Text     string `json:"text"`
	Twitter  string `json:"twitter"`
	LinkedIn string `json:"linkedin"`
}

// ShareText is the message players post about the card.
func ShareText(playURL string) string {
	if playURL == "" {
		playURL = DefaultPlayURL
	}

	var b strings.Builder

	b.WriteString("I'm celebrating the Python community with this Bingo game! 🐍✨\n\n")
	b.WriteString("Play here: " + playURL + "\n\n")
	b.WriteString("I'm thankful to the PSF for all the experiences and support. ")
	b.WriteString("I encourage all to donate and support our ecosystem: " + DonateURL + "\n\n")
	b.WriteString("#Python #SupportPSF #PSF")

	return b.String()
}

// encodeComponent percent-encodes s for use as a query value, with spaces
// as %20 rather than '+'.
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func TwitterIntentURL(text string) string {
	return "https://twitter.com/intent/tweet?text=" + encodeComponent(text)
}

func LinkedInShareURL(text string) string {
	return "https://www.linkedin.com/feed/?shareActive=true&text=" + encodeComponent(text)
}

func NewShare(playURL string) Share {
	text := ShareText(playURL)

	return Share{
		Text:     text,
		Twitter:  TwitterIntentURL(text),
		LinkedIn: LinkedInShareURL(text),
	}
}

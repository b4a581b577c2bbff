/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"bytes"
	"image"
	"image/png"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/julienschmidt/httprouter"
	"golang.org/x/image/draw"

	"github.com/Seednode/bingo/games/bingo"
)

const faviconSize = 64

// favicon is a thumbnail of a freshly reset card.
var favicon = sync.OnceValues(func() ([]byte, error) {
	card := bingo.Render(bingo.DefaultBoard())

	icon := image.NewRGBA(image.Rect(0, 0, faviconSize, faviconSize))
	draw.CatmullRom.Scale(icon, icon.Bounds(), card, card.Bounds(), draw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, icon); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
})

func getFavicon(cfg *Config) string {
	return `<link rel="icon" type="image/png" sizes="64x64" href="` + cfg.prefix + `/favicon.png">
	<meta name="theme-color" content="#0f172a">`
}

func serveFavicon(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		data, err := favicon()
		if err != nil {
			errs <- err

			http.Error(w, "favicon unavailable", http.StatusInternalServerError)

			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "public, max-age=86400")
		w.Header().Set("Expires", time.Now().Add(24*time.Hour).UTC().Format(http.TimeFormat))
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		securityHeaders(cfg, w)

		_, err = w.Write(data)
		if err != nil {
			errs <- err

			return
		}
	}
}

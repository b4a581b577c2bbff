/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"

	"github.com/Seednode/bingo/games/bingo"
)

const (
	qrSize       = 320
	cardFilename = "python_bingo.png"
)

// CardMessage is the state plus the static content needed to draw the card.
type CardMessage struct {
	StateMessage
	Squares [bingo.Cells]string `json:"squares"`
	Center  int                 `json:"center"`
	Title   string              `json:"title"`
	Intro   string              `json:"intro"`
}

func writeJSON(cfg *Config, w http.ResponseWriter, status int, v any, errs chan<- error) int {
	data, err := json.Marshal(v)
	if err != nil {
		errs <- err

		http.Error(w, "encoding failed", http.StatusInternalServerError)

		return 0
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	securityHeaders(cfg, w)
	w.WriteHeader(status)

	written, err := w.Write(data)
	if err != nil {
		errs <- err
	}

	return written
}

// cardUnavailable answers a request whose card could not be read. Nothing
// is cached for the player, so a retry reads the store again.
func cardUnavailable(cfg *Config, w http.ResponseWriter, err error, errs chan<- error) {
	errs <- err

	securityHeaders(cfg, w)
	w.Header().Set("Retry-After", "1")
	http.Error(w, "card temporarily unavailable", http.StatusServiceUnavailable)
}

func serveState(cfg *Config, cm *cardManager, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		startTime := time.Now()

		playerID := getOrSetPlayerID(w, r)
		state, err := cm.state(r.Context(), cfg, playerID)
		if err != nil {
			cardUnavailable(cfg, w, err, errs)

			return
		}

		written := writeJSON(cfg, w, http.StatusOK, CardMessage{
			StateMessage: state,
			Squares:      bingo.Squares,
			Center:       bingo.Center,
			Title:        bingo.Title,
			Intro:        bingo.Intro,
		}, errs)

		logf(cfg, "SERVE: Card state (%s) for %s to %s in %s",
			humanReadableSize(written),
			playerID,
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)
	}
}

func serveToggle(cfg *Config, cm *cardManager, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		index, err := strconv.Atoi(p.ByName("index"))
		if err != nil {
			securityHeaders(cfg, w)
			http.Error(w, "square index must be a number", http.StatusBadRequest)

			return
		}

		playerID := getOrSetPlayerID(w, r)

		msg, err := cm.toggle(r.Context(), cfg, playerID, index)
		switch {
		case errors.Is(err, bingo.ErrInvalidSquare):
			securityHeaders(cfg, w)
			http.Error(w, err.Error(), http.StatusBadRequest)

			return
		case err != nil:
			cardUnavailable(cfg, w, err, errs)

			return
		}

		writeJSON(cfg, w, http.StatusOK, msg, errs)

		logf(cfg, "CARDS: %s toggled square %d from %s", playerID, index, realIP(r))
	}
}

func serveReset(cfg *Config, cm *cardManager, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		playerID := getOrSetPlayerID(w, r)

		msg, err := cm.reset(r.Context(), cfg, playerID)
		if err != nil {
			cardUnavailable(cfg, w, err, errs)

			return
		}

		writeJSON(cfg, w, http.StatusOK, msg, errs)
	}
}

func serveShare(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		writeJSON(cfg, w, http.StatusOK, bingo.NewShare(playURL(cfg, r)), errs)
	}
}

func serveCardImage(cfg *Config, cm *cardManager, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		startTime := time.Now()

		playerID := getOrSetPlayerID(w, r)
		state, err := cm.state(r.Context(), cfg, playerID)
		if err != nil {
			cardUnavailable(cfg, w, err, errs)

			return
		}

		var buf bytes.Buffer
		if err := bingo.RenderPNG(&buf, state.Board); err != nil {
			errs <- err

			securityHeaders(cfg, w)
			http.Error(w, "image generation failed", http.StatusInternalServerError)

			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Disposition", `attachment; filename="`+cardFilename+`"`)
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		securityHeaders(cfg, w)

		written, err := w.Write(buf.Bytes())
		if err != nil {
			errs <- err

			return
		}

		logf(cfg, "SERVE: Card image (%s) for %s to %s in %s",
			humanReadableSize(written),
			playerID,
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)
	}
}

// serveQR encodes the play url, so that others can scan their way to a card.
func serveQR(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		png, err := qrcode.Encode(playURL(cfg, r), qrcode.Medium, qrSize)
		if err != nil {
			errs <- err

			securityHeaders(cfg, w)
			http.Error(w, "qr generation failed", http.StatusInternalServerError)

			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Content-Length", strconv.Itoa(len(png)))
		securityHeaders(cfg, w)

		_, err = w.Write(png)
		if err != nil {
			errs <- err

			return
		}
	}
}

func serveWS(cfg *Config, cm *cardManager, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		playerID := getOrSetPlayerID(w, r)

		if _, err := cm.getHub(r.Context(), cfg, playerID); err != nil {
			cardUnavailable(cfg, w, err, errs)

			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logf(cfg, "CARDS: Websocket upgrade failed for %s: %v", playerID, err)

			return
		}

		client := &cardClient{
			conn: conn,
			send: make(chan any, 8),
		}

		hub, err := cm.join(r.Context(), cfg, playerID, client)
		if err != nil {
			_ = conn.Close()

			return
		}

		go client.writePump()
		client.readPump(r.Context(), cfg, hub)
	}
}

// registerBingo sets up routes so that:
//   - /                     → card page
//   - /api/state            → card state, labels, and intro text
//   - /api/squares/:index   → toggle one square
//   - /api/reset            → clear the card
//   - /api/share            → share text and intent links
//   - /card.png             → card image download
//   - /qr.png               → QR code for the play url
//   - /ws                   → live state for every open tab
func registerBingo(cfg *Config, store *bingo.Store, mux *httprouter.Router, errs chan<- error) *cardManager {
	cm := newCardManager(store, cfg.sessionTimeout)

	mux.GET(cfg.prefix+"/", serveHomePage(cfg, errs))

	mux.GET(cfg.prefix+"/api/state", serveState(cfg, cm, errs))
	mux.POST(cfg.prefix+"/api/squares/:index", serveToggle(cfg, cm, errs))
	mux.POST(cfg.prefix+"/api/reset", serveReset(cfg, cm, errs))
	mux.GET(cfg.prefix+"/api/share", serveShare(cfg, errs))

	mux.GET(cfg.prefix+"/card.png", serveCardImage(cfg, cm, errs))
	mux.GET(cfg.prefix+"/qr.png", serveQR(cfg, errs))

	mux.GET(cfg.prefix+"/ws", serveWS(cfg, cm, errs))

	return cm
}

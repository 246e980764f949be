package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/sonroyaalmerol/auria/internal/player"
	"github.com/sonroyaalmerol/auria/internal/processor"
)

const maxSearchLimit = 50

type Submitter interface {
	Submit(in processor.Intent) (processor.Intent, error)
	Pending() int
}

type StatusSource interface {
	Status() player.Status
}

type Subscriber interface {
	Subscribe(buffer int) (<-chan processor.Result, func())
}

type Handlers struct {
	l      *slog.Logger
	proc   Submitter
	status StatusSource
	events Subscriber
}

type playBody struct {
	Locator string `json:"locator"`
}

type searchBody struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

type statusBody struct {
	player.Status
	Pending int `json:"pending"`
}

type errorBody struct {
	Error string `json:"error"`
}

func NewHandlers(l *slog.Logger, proc Submitter, status StatusSource, events Subscriber) *Handlers {
	return &Handlers{l: l, proc: proc, status: status, events: events}
}

func (h *Handlers) fail(w http.ResponseWriter, status int, err error) {
	markErr(w, err)
	_ = writeJSON(w, status, errorBody{Error: err.Error()})
}

func (h *Handlers) submit(w http.ResponseWriter, r *http.Request, in processor.Intent) {
	in.Source = "http"
	queued, err := h.proc.Submit(in)
	if err != nil {
		code := http.StatusBadRequest
		if errors.Is(err, processor.ErrClosed) {
			code = http.StatusServiceUnavailable
		}
		h.fail(w, code, err)
		return
	}
	if err := writeJSON(w, http.StatusAccepted, queued); err != nil {
		markErr(w, err)
	}
}

func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := decodeJSONStrict(w, r, dst); err != nil {
		code := http.StatusBadRequest
		if errors.Is(err, ErrContentType) {
			code = http.StatusUnsupportedMediaType
		}
		h.fail(w, code, err)
		return false
	}
	return true
}

func (h *Handlers) Play(w http.ResponseWriter, r *http.Request) {
	var body playBody
	if !h.decode(w, r, &body) {
		return
	}
	if body.Locator == "" {
		h.fail(w, http.StatusBadRequest, ErrLocator)
		return
	}
	h.submit(w, r, processor.Play(body.Locator))
}

func (h *Handlers) Pause(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, processor.Pause())
}

func (h *Handlers) Resume(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, processor.Resume())
}

func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	var body searchBody
	if !h.decode(w, r, &body) {
		return
	}
	if body.Query == "" {
		h.fail(w, http.StatusBadRequest, ErrQuery)
		return
	}
	if body.Limit < 0 || body.Limit > maxSearchLimit {
		h.fail(w, http.StatusBadRequest, ErrLimit)
		return
	}
	h.submit(w, r, processor.Search(body.Query, body.Limit))
}

func (h *Handlers) Status(w http.ResponseWriter, r *http.Request) {
	body := statusBody{Status: h.status.Status(), Pending: h.proc.Pending()}
	if err := writeJSON(w, http.StatusOK, body); err != nil {
		markErr(w, err)
	}
}

// Events streams every processor result to the client as JSON text frames
// until either side goes away.
func (h *Handlers) Events(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		markErr(w, err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "done") }()

	results, cancel := h.events.Subscribe(32)
	defer cancel()

	// Nothing is expected from the client; CloseRead handles control frames
	// and cancels ctx when the peer disconnects.
	ctx := conn.CloseRead(r.Context())
	for {
		select {
		case <-ctx.Done():
			return
		case res, ok := <-results:
			if !ok {
				return
			}
			wctx, wcancel := context.WithTimeout(ctx, 5*time.Second)
			err := wsjson.Write(wctx, conn, res)
			wcancel()
			if err != nil {
				h.l.Debug("event stream closed", "err", err)
				return
			}
		}
	}
}

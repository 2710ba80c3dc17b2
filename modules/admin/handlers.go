package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/arnsnotify/handler"
	"github.com/dmitrymomot/arnsnotify/pkg/binder"
	"github.com/dmitrymomot/arnsnotify/pkg/logger"
	"github.com/dmitrymomot/arnsnotify/svc/arns"
	"github.com/dmitrymomot/arnsnotify/svc/notify"
)

const (
	StatusTriggered  = "triggered"
	StatusInProgress = "in_progress"
)

type handlers struct {
	opts RouterOptions
	errs handler.ErrorHandler
}

// eventInput is the wire form of notify.Event. Nonce is a pointer so a
// missing nonce is told apart from nonce 0.
type eventInput struct {
	EventType   notify.EventType `json:"eventType"`
	EventData   map[string]any   `json:"eventData"`
	Nonce       *int64           `json:"nonce"`
	ProcessID   string           `json:"processId"`
	BlockHeight *int64           `json:"blockHeight"`
}

func (in eventInput) event() notify.Event {
	e := notify.Event{
		EventType:   in.EventType,
		EventData:   in.EventData,
		ProcessID:   in.ProcessID,
		BlockHeight: in.BlockHeight,
	}
	if in.Nonce != nil {
		e.Nonce = *in.Nonce
	}
	return e
}

// eventsRequest accepts a single event object or an array of events.
// Unknown fields are rejected like everywhere else behind binder.JSON.
type eventsRequest struct {
	Events []eventInput
	Batch  bool
}

func (e *eventsRequest) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if len(data) > 0 && data[0] == '[' {
		e.Batch = true
		return dec.Decode(&e.Events)
	}
	var one eventInput
	if err := dec.Decode(&one); err != nil {
		return err
	}
	e.Events = []eventInput{one}
	return nil
}

type ResultView struct {
	Nonce      int64  `json:"nonce"`
	Status     string `json:"status"`
	Recipients int    `json:"recipients"`
	Delivered  int    `json:"delivered"`
	Failed     int    `json:"failed"`
	Skipped    int    `json:"skipped"`
	Error      string `json:"error,omitempty"`
}

func resultView(r notify.Result) ResultView {
	v := ResultView{
		Nonce:      r.Nonce,
		Status:     string(r.Status),
		Recipients: r.Recipients,
		Delivered:  r.Report.Delivered(),
		Failed:     r.Report.Failed(),
		Skipped:    r.Report.Skipped(),
	}
	if r.Err != nil {
		v.Error = r.Err.Error()
	}
	return v
}

func (h *handlers) intakeHandler() http.HandlerFunc {
	return handler.Wrap(h.intake,
		handler.WithBinders(binder.JSON()),
		handler.WithErrorHandler(h.errs),
	)
}

func (h *handlers) intake(ctx handler.Context, req eventsRequest) handler.Response {
	if len(req.Events) == 0 {
		v := handler.ValidationError{}
		v.Add("events", "at least one event is required")
		return handler.JSONError(v)
	}
	if len(req.Events) > h.opts.MaxBatch {
		v := handler.ValidationError{}
		v.Add("events", fmt.Sprintf("at most %d events per request", h.opts.MaxBatch))
		return handler.JSONError(v)
	}

	results := make([]notify.Result, len(req.Events))
	events := make([]notify.Event, 0, len(req.Events))
	index := make([]int, 0, len(req.Events))
	for i, in := range req.Events {
		if in.Nonce == nil {
			results[i] = notify.Result{
				Status: notify.ResultInvalid,
				Err:    fmt.Errorf("%w: nonce is required", notify.ErrInvalidEvent),
			}
			continue
		}
		events = append(events, in.event())
		index = append(index, i)
	}

	if len(events) > 0 {
		// A claimed event must finish even if the client goes away.
		for j, r := range h.opts.Processor.ProcessEvents(context.WithoutCancel(ctx), events) {
			results[index[j]] = r
		}
	}

	if !req.Batch && results[0].Status == notify.ResultInvalid {
		v := handler.ValidationError{}
		msg := string(notify.ResultInvalid)
		if results[0].Err != nil {
			msg = results[0].Err.Error()
		}
		v.Add("event", msg)
		return handler.JSONError(v)
	}

	views := make([]ResultView, len(results))
	for i, r := range results {
		views[i] = resultView(r)
	}
	return handler.JSON(map[string]any{"results": views})
}

func (h *handlers) triggerHandler(t Trigger, what string) http.HandlerFunc {
	return handler.Wrap(func(ctx handler.Context, _ struct{}) handler.Response {
		status := StatusInProgress
		if t.Start(ctx) {
			status = StatusTriggered
		}
		h.opts.Logger.InfoContext(ctx, what+" trigger", logger.Component("admin"), "status", status)
		return handler.JSON(map[string]string{"status": status}, handler.WithStatus(http.StatusAccepted))
	}, handler.WithErrorHandler(h.errs))
}

type NameView struct {
	Name           string `json:"name"`
	ProcessID      string `json:"processId"`
	Owner          string `json:"owner,omitempty"`
	RootTxID       string `json:"rootTxId,omitempty"`
	StartTimestamp int64  `json:"startTimestamp"`
	EndTimestamp   int64  `json:"endTimestamp"`
	LastSyncedAt   int64  `json:"lastSyncedAt"`
}

func (h *handlers) nameHandler() http.HandlerFunc {
	return handler.Wrap(func(ctx handler.Context, _ struct{}) handler.Response {
		n, err := h.opts.Names.GetLeasedName(ctx, chi.URLParam(ctx.Request(), "name"))
		if err != nil {
			if errors.Is(err, arns.ErrNameNotFound) {
				return handler.JSONError(handler.ErrNotFound)
			}
			h.opts.Logger.ErrorContext(ctx, "failed to load arns name", logger.Error(err))
			return handler.JSONError(err)
		}
		return handler.JSON(NameView{
			Name:           n.Name,
			ProcessID:      n.ProcessID,
			Owner:          n.Owner,
			RootTxID:       n.RootTxID,
			StartTimestamp: n.StartTimestamp.UnixMilli(),
			EndTimestamp:   n.EndTimestamp.UnixMilli(),
			LastSyncedAt:   n.LastSyncedAt.UnixMilli(),
		})
	}, handler.WithErrorHandler(h.errs))
}

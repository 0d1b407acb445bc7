package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/wanderersguide/review-bot/api/validator"
	"github.com/wanderersguide/review-bot/review"
)

// A Poster posts proposals for review and returns the review message id.
type Poster interface {
	Post(ctx context.Context, p review.Proposal) (string, error)
}

// API provides the ingress endpoint for content update proposals.
type API struct {
	Logger *slog.Logger
	Poster Poster
	Val    *validator.Validator

	once sync.Once
	mux  *http.ServeMux
}

func (a *API) setupRoutes() {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /update", a.createUpdate)
	mux.HandleFunc("/", a.notFound)

	a.mux = mux
}

func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.once.Do(a.setupRoutes)
	a.Logger.Info("Request received", "method", r.Method, "path", r.URL.Path)
	a.mux.ServeHTTP(w, r)
}

func (a *API) respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		a.Logger.Error("Could not encode JSON body", "error", err.Error())
	}
}

func (a *API) respondResult(w http.ResponseWriter, messageID string) {
	res := Result{Status: StatusSuccess, MessageID: messageID}
	a.respond(w, http.StatusOK, res)
}

func (a *API) respondError(w http.ResponseWriter, err error, msg string) {
	a.Logger.Error(msg, "error", err.Error())
	a.respond(w, http.StatusInternalServerError, Result{Status: StatusError})
}

func (a *API) notFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	if _, err := io.WriteString(w, "404!"); err != nil {
		a.Logger.Error("Could not write body", "error", err.Error())
	}
}

func (a *API) createUpdate(w http.ResponseWriter, r *http.Request) {
	var body review.Proposal
	err := json.NewDecoder(r.Body).Decode(&body)
	if err != nil {
		a.respondError(w, err, "Could not decode request body")
		return
	}

	err = r.Body.Close()
	if err != nil {
		a.respondError(w, err, "Could not close request body")
		return
	}

	if errs := a.Val.ValidateStruct(&body); len(errs) > 0 {
		a.Logger.Error("Invalid proposal", "errors", errs)
		a.respond(w, http.StatusInternalServerError, Result{Status: StatusError})
		return
	}

	id, err := a.Poster.Post(r.Context(), body)
	if err != nil {
		a.respondError(w, err, "Could not post update")
		return
	}

	a.Logger.Info("Posted update", "message_id", id, "update_id", body.Update.ID)
	a.respondResult(w, id)
}

package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/catsync/catsync/model"
)

// Register attaches the sync control surface to the given router.
func Register(rootRouter *mux.Router, context *Context) {
	addContext := func(handler contextHandlerFunc) *contextHandler {
		return newContextHandler(context, handler)
	}

	apiRouter := rootRouter.PathPrefix("/api").Subrouter()

	apiRouter.Handle("/syncs", addContext(handleGetAllSyncs)).Methods(http.MethodGet)
	apiRouter.Handle("/sync/{scope}/start", addContext(handleStartSync)).Methods(http.MethodPost)
	apiRouter.Handle("/sync/{scope}/pause", addContext(handlePauseSync)).Methods(http.MethodPost)
	apiRouter.Handle("/sync/{scope}/resume", addContext(handleResumeSync)).Methods(http.MethodPost)
	apiRouter.Handle("/sync/{scope}/cancel", addContext(handleCancelSync)).Methods(http.MethodPost)
	apiRouter.Handle("/sync/{scope}/status", addContext(handleGetSyncStatus)).Methods(http.MethodGet)
	apiRouter.Handle("/sync/{scope}/history", addContext(handleGetSyncHistory)).Methods(http.MethodGet)
	apiRouter.Handle("/sync/{scope}/logs", addContext(handleGetSyncLogs)).Methods(http.MethodGet)
}

// handleStartSync begins a fresh run for the scope. A scope whose
// state is neither idle nor terminal refuses with a conflict; the
// store's check-and-set guarantees at most one concurrent winner.
func handleStartSync(c *Context, w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	scope := vars["scope"]
	defer r.Body.Close()

	request, err := model.NewStartSyncRequestFromReader(r.Body)
	if err != nil {
		c.Logger.WithError(err).Error("failed to decode sync start request")
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	settings := c.Settings.Settings(scope)

	state, err := c.Store.GetSyncState(scope)
	if err != nil {
		c.Logger.WithError(err).Error("failed to fetch sync state")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	run := model.NewSyncRun(scope)

	if state == nil {
		state = model.NewSyncState(scope, run.ID, settings.MaxBatchSize, request.Limit)
		err = c.Store.CreateSyncState(state)
		if err != nil {
			c.Logger.WithError(err).Error("failed to create sync state")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	} else {
		if !state.Status.CanStart() {
			w.WriteHeader(http.StatusConflict)
			return
		}

		// The CAS on the previous status keeps two concurrent starts
		// from both winning.
		allowed, err := c.Store.RequestSyncTransition(scope, state.Status, model.SyncStatusRunning)
		if err != nil {
			c.Logger.WithError(err).Error("failed to transition sync state to running")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if !allowed {
			w.WriteHeader(http.StatusConflict)
			return
		}

		state.ResetForRun(run.ID, settings.MaxBatchSize, request.Limit)
		err = c.Store.UpdateSyncState(state)
		if err != nil {
			c.Logger.WithError(err).Error("failed to reset sync state for new run")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}

	err = c.Store.CreateSyncRun(run)
	if err != nil {
		c.Logger.WithError(err).Error("failed to create sync run history row")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	c.Logger.WithField("scope", scope).Info("Sync run requested")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	outputJSON(c, w, state)
}

func handlePauseSync(c *Context, w http.ResponseWriter, r *http.Request) {
	handleTransition(c, w, r, []model.SyncStatus{model.SyncStatusRunning}, model.SyncStatusPausing, "pause")
}

func handleResumeSync(c *Context, w http.ResponseWriter, r *http.Request) {
	handleTransition(c, w, r, []model.SyncStatus{model.SyncStatusPaused}, model.SyncStatusRunning, "resume")
}

func handleCancelSync(c *Context, w http.ResponseWriter, r *http.Request) {
	handleTransition(c, w, r,
		[]model.SyncStatus{model.SyncStatusRunning, model.SyncStatusPausing, model.SyncStatusPaused},
		model.SyncStatusStopping, "cancel")
}

// handleTransition applies an operator intent through the store's
// check-and-set. The engine commits the corresponding settled status
// at the next batch boundary; nothing is interrupted mid-batch.
func handleTransition(c *Context, w http.ResponseWriter, r *http.Request, from []model.SyncStatus, to model.SyncStatus, action string) {
	vars := mux.Vars(r)
	scope := vars["scope"]
	defer r.Body.Close()

	state, err := c.Store.GetSyncState(scope)
	if err != nil {
		c.Logger.WithError(err).Errorf("failed to fetch sync state to %s", action)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if state == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	for _, status := range from {
		if state.Status != status {
			continue
		}

		allowed, err := c.Store.RequestSyncTransition(scope, status, to)
		if err != nil {
			c.Logger.WithError(err).Errorf("failed to request %s", action)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if allowed {
			c.Logger.WithField("scope", scope).Infof("Sync %s requested", action)
			w.WriteHeader(http.StatusAccepted)
			return
		}
	}

	w.WriteHeader(http.StatusConflict)
}

func handleGetSyncStatus(c *Context, w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	scope := vars["scope"]

	state, err := c.Store.GetSyncState(scope)
	if err != nil {
		c.Logger.WithError(err).Error("failed to fetch sync state")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if state == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	outputJSON(c, w, state)
}

func handleGetAllSyncs(c *Context, w http.ResponseWriter, r *http.Request) {
	states, err := c.Store.GetAllSyncStates()
	if err != nil {
		c.Logger.WithError(err).Error("failed to fetch sync states")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	outputJSON(c, w, states)
}

func handleGetSyncHistory(c *Context, w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	scope := vars["scope"]

	runs, err := c.Store.GetSyncRunsByScope(scope)
	if err != nil {
		c.Logger.WithError(err).Error("failed to fetch sync history")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	outputJSON(c, w, runs)
}

func handleGetSyncLogs(c *Context, w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	scope := vars["scope"]

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	outputJSON(c, w, c.Logs.Recent(scope))
}

// outputJSON is a helper method to write the given data as JSON to the given writer.
//
// It only logs an error if one occurs, rather than returning, since there is no point in trying
// to send a new status code back to the client once the body has started sending.
func outputJSON(c *Context, w io.Writer, data interface{}) {
	encoder := json.NewEncoder(w)
	err := encoder.Encode(data)
	if err != nil {
		c.Logger.WithError(err).Error("failed to encode result")
	}
}

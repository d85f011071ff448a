package model

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"
)

// StartSyncRequest is the body of a request to begin a run. Limit
// optionally caps how many items the run may process; zero means
// unlimited.
type StartSyncRequest struct {
	Limit int64
}

// Validate validates the values of a start request.
func (request *StartSyncRequest) Validate() error {
	if request.Limit < 0 {
		return errors.New("limit must not be negative")
	}
	return nil
}

// LogEntry is one line of the per-scope log feed surfaced to
// operators.
type LogEntry struct {
	Timestamp int64
	Level     string
	Message   string
}

// NewStartSyncRequestFromReader creates a StartSyncRequest from a
// Reader. An empty body is a valid request with no limit.
func NewStartSyncRequestFromReader(reader io.Reader) (*StartSyncRequest, error) {
	var request StartSyncRequest
	err := json.NewDecoder(reader).Decode(&request)
	if err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "failed to decode sync start request")
	}

	err = request.Validate()
	if err != nil {
		return nil, errors.Wrap(err, "sync start request failed validation")
	}

	return &request, nil
}

// NewSyncStateFromReader creates a SyncState from a Reader.
func NewSyncStateFromReader(reader io.Reader) (*SyncState, error) {
	var state SyncState
	err := json.NewDecoder(reader).Decode(&state)
	if err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "failed to decode sync state")
	}
	return &state, nil
}

// NewSyncStateListFromReader creates a list of SyncStates from a
// Reader.
func NewSyncStateListFromReader(reader io.Reader) ([]*SyncState, error) {
	var states []*SyncState
	err := json.NewDecoder(reader).Decode(&states)
	if err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "failed to decode sync state list")
	}
	return states, nil
}

// NewSyncRunListFromReader creates a list of SyncRuns from a Reader.
func NewSyncRunListFromReader(reader io.Reader) ([]*SyncRun, error) {
	var runs []*SyncRun
	err := json.NewDecoder(reader).Decode(&runs)
	if err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "failed to decode sync run list")
	}
	return runs, nil
}

// NewLogEntryListFromReader creates a list of LogEntries from a Reader.
func NewLogEntryListFromReader(reader io.Reader) ([]*LogEntry, error) {
	var entries []*LogEntry
	err := json.NewDecoder(reader).Decode(&entries)
	if err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "failed to decode log entry list")
	}
	return entries, nil
}

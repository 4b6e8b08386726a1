package view

import (
	"errors"
	"strconv"

	"github.com/issuetracker/tracker/internal/client"
)

// Phase 页面请求状态
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseLoaded  Phase = "loaded"
	PhaseSaving  Phase = "saving"
	PhaseError   Phase = "error"
)

// State 页面状态，出错时 Err 保存原因
type State struct {
	Phase Phase
	Err   error
}

func (s State) Loading() bool {
	return s.Phase == PhaseLoading
}

func (s State) Failed() bool {
	return s.Phase == PhaseError
}

// Message 返回给用户看的错误信息
func (s State) Message() string {
	if s.Phase != PhaseError || s.Err == nil {
		return ""
	}
	var statusErr *client.StatusError
	switch {
	case errors.Is(s.Err, ErrTitleRequired):
		return "Title is required."
	case errors.Is(s.Err, ErrNotLoaded):
		return "The issue has not been loaded yet. Reload the page and try again."
	case errors.Is(s.Err, client.ErrNotFound):
		return "The issue was not found."
	case errors.Is(s.Err, client.ErrMalformedResponse):
		return "The issue service returned an unreadable response."
	case errors.As(s.Err, &statusErr):
		return "The issue service rejected the request (HTTP " + strconv.Itoa(statusErr.StatusCode) + ")."
	default:
		return "The issue service could not be reached."
	}
}

func loading() State {
	return State{Phase: PhaseLoading}
}

func loaded() State {
	return State{Phase: PhaseLoaded}
}

func failed(err error) State {
	return State{Phase: PhaseError, Err: err}
}

package errno

import (
	"errors"
)

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrRunNotFound       = errors.New("run not found")
	ErrRunAlreadyDone    = errors.New("run already done")
	ErrEngineBusy        = errors.New("engine already executing this run")
	ErrToolNotFound      = errors.New("tool not found")
	ErrEmptyPlan         = errors.New("plan has no steps")
	ErrRepairExhausted   = errors.New("argument repair exhausted")
	ErrNoCompletion      = errors.New("completion client returned no content")
	ErrMalformedResponse = errors.New("completion response is not valid JSON")
)

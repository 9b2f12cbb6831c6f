package errors

import "fmt"

var (
	ErrWorkerPanic             = fmt.Errorf("worker panic")
	ErrUnsupportedLanguage     = fmt.Errorf("unsupported language")
	ErrInvalidRequest          = fmt.Errorf("malformed request")
	ErrBinarySource            = fmt.Errorf("source is not text")
	ErrWorkspace               = fmt.Errorf("workspace unavailable")
	ErrToolchainMissing        = fmt.Errorf("toolchain not found")
	ErrRoomBusy                = fmt.Errorf("room busy")
	ErrQueueFull               = fmt.Errorf("execution queue full")
	ErrEventQueueFull          = fmt.Errorf("event queue full")
	ErrShuttingDown            = fmt.Errorf("server is shutting down")
	ErrCollaboratorUnavailable = fmt.Errorf("diagnostic collaborator is not configured")
	ErrCollaboratorSuspended   = fmt.Errorf("diagnostic collaborator suspended after repeated failures")
	ErrEmptyResponse           = fmt.Errorf("diagnostic collaborator returned an empty response")
	ErrUnknownEvent            = fmt.Errorf("unknown event")
	ErrNotInRoom               = fmt.Errorf("connection has not joined a room")
	ErrMalformedFrame          = fmt.Errorf("malformed sync frame")
	ErrUpdateTooLarge          = fmt.Errorf("document update too large")
)

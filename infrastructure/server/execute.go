package server

import (
	"code-lab/domain"
	"code-lab/errors"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
)

// bodyOverhead is what the JSON envelope may add around the source.
const bodyOverhead = 64 << 10

type ExecuteRequest struct {
	Code         string `json:"code"`
	Language     string `json:"language" validate:"required"`
	RoomID       string `json:"roomId" validate:"omitempty,max=128"`
	ConnectionID string `json:"connectionId" validate:"omitempty,max=128"`
}

type ExecuteResponse struct {
	Stdout        string `json:"stdout"`
	Stderr        string `json:"stderr"`
	AIExplanation string `json:"aiExplanation"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	// 1. Decode and validate
	req, err := s.decodeExecute(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	// 2. Run, the room hears about it when one is given
	result, err := s.executions.Run(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ExecuteResponse{
		Stdout:        result.Stdout,
		Stderr:        result.Stderr,
		AIExplanation: result.AIExplanation,
	})
}

func (s *Server) decodeExecute(w http.ResponseWriter, r *http.Request) (domain.ExecutionRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, int64(s.cfg.MaxCodeLength)+bodyOverhead)
	var body ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return domain.ExecutionRequest{}, fmt.Errorf("%w: %v", errors.ErrInvalidRequest, err)
	}
	if err := s.validate.Struct(body); err != nil {
		return domain.ExecutionRequest{}, fmt.Errorf("%w: %v", errors.ErrInvalidRequest, err)
	}
	if len(body.Code) > s.cfg.MaxCodeLength {
		return domain.ExecutionRequest{}, fmt.Errorf("%w: code exceeds %d bytes", errors.ErrInvalidRequest, s.cfg.MaxCodeLength)
	}
	if !isText(body.Code) {
		return domain.ExecutionRequest{}, errors.ErrBinarySource
	}
	lang, err := domain.ParseLanguage(body.Language)
	if err != nil {
		return domain.ExecutionRequest{}, err
	}
	return domain.ExecutionRequest{
		Code:         body.Code,
		Language:     lang,
		Room:         domain.RoomID(body.RoomID),
		ConnectionID: domain.ConnectionID(body.ConnectionID),
	}, nil
}

// isText accepts anything mimetype files under text/plain.
func isText(code string) bool {
	if code == "" {
		return true
	}
	for mt := mimetype.Detect([]byte(code)); mt != nil; mt = mt.Parent() {
		if mt.Is("text/plain") {
			return true
		}
	}
	return false
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("Execution request failed", "status", status, "error", err)
	}
	msg := err.Error()
	if stderrors.Is(err, errors.ErrRoomBusy) {
		msg = errors.ErrRoomBusy.Error()
	}
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func statusOf(err error) int {
	switch {
	case stderrors.Is(err, errors.ErrInvalidRequest),
		stderrors.Is(err, errors.ErrBinarySource),
		stderrors.Is(err, errors.ErrUnsupportedLanguage):
		return http.StatusBadRequest
	case stderrors.Is(err, errors.ErrRoomBusy):
		return http.StatusConflict
	case stderrors.Is(err, errors.ErrQueueFull),
		stderrors.Is(err, errors.ErrShuttingDown):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

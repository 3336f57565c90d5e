package http

import (
	"context"
	"errors"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hrdesk/internal/leave"
	"hrdesk/internal/model"
	"hrdesk/internal/report"
)

// multipartOverhead is added to the attachment cap to leave room for the form fields.
const multipartOverhead = 1 << 20

type createLeaveRequest struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Type      string `json:"type"`
	Reason    string `json:"reason"`
}

func (s *Server) handleCreateLeave(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())

	var in leave.CreateInput
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+multipartOverhead)
		if err := r.ParseMultipartForm(8 << 20); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, http.StatusRequestEntityTooLarge, "attachment_too_large", "Attachment exceeds the upload limit")
				return
			}
			writeError(w, http.StatusBadRequest, "invalid_request", "Invalid multipart body")
			return
		}
		defer func() {
			if r.MultipartForm != nil {
				_ = r.MultipartForm.RemoveAll()
			}
		}()
		in = leave.CreateInput{
			StartDate: r.FormValue("startDate"),
			EndDate:   r.FormValue("endDate"),
			Type:      r.FormValue("type"),
			Reason:    r.FormValue("reason"),
		}
		file, header, err := r.FormFile("attachment")
		switch {
		case err == nil:
			defer file.Close()
			if header.Size > s.cfg.MaxUploadBytes {
				writeError(w, http.StatusRequestEntityTooLarge, "attachment_too_large", "Attachment exceeds the upload limit")
				return
			}
			in.Attachment = &leave.Attachment{Filename: header.Filename, Content: file}
		case errors.Is(err, http.ErrMissingFile):
		default:
			writeError(w, http.StatusBadRequest, "invalid_request", "Invalid attachment")
			return
		}
	} else {
		var req createLeaveRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
			return
		}
		in = leave.CreateInput{StartDate: req.StartDate, EndDate: req.EndDate, Type: req.Type, Reason: req.Reason}
	}

	created, err := s.leaves.Create(r.Context(), claims.UserID, in)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListMyLeaves(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	leaves, err := s.leaves.ListForUser(r.Context(), claims.UserID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, leaves)
}

func (s *Server) handleListLeaves(w http.ResponseWriter, r *http.Request) {
	leaves, err := s.leaves.ListAll(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report.SearchLeaves(leaves, r.URL.Query().Get("q")))
}

func (s *Server) handleApproveLeave(w http.ResponseWriter, r *http.Request) {
	s.decideLeave(w, r, s.leaves.Approve)
}

func (s *Server) handleRejectLeave(w http.ResponseWriter, r *http.Request) {
	s.decideLeave(w, r, s.leaves.Reject)
}

func (s *Server) decideLeave(w http.ResponseWriter, r *http.Request, decide func(context.Context, string, string) (model.LeaveRequest, error)) {
	claims := claimsFromContext(r.Context())
	decided, err := decide(r.Context(), chi.URLParam(r, "leaveID"), claims.UserID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, decided)
}

package http

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"hrdesk/internal/model"
	"hrdesk/internal/report"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type attendanceResponse struct {
	Message string                 `json:"message"`
	Entry   model.AttendanceRecord `json:"entry"`
}

func (s *Server) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	record, err := s.attendance.CheckIn(r.Context(), claims.UserID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, attendanceResponse{Message: "Checked in", Entry: record})
}

func (s *Server) handleCheckOut(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	record, err := s.attendance.CheckOut(r.Context(), claims.UserID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, attendanceResponse{Message: "Checked out", Entry: record})
}

func (s *Server) handleListMyAttendance(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	records, err := s.attendance.ListForUser(r.Context(), claims.UserID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleListAllAttendance(w http.ResponseWriter, r *http.Request) {
	records, err := s.attendance.ListAll(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleAttendanceReport(w http.ResponseWriter, r *http.Request) {
	view, ok := s.buildReport(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleAttendanceWorkbook(w http.ResponseWriter, r *http.Request) {
	view, ok := s.buildReport(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := report.WriteWorkbook(&buf, view, s.attendance.Location()); err != nil {
		writeAppError(w, fmt.Errorf("render workbook: %w", err))
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "attendance-"+string(view.View)+"-"+view.Date+".xlsx"))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// buildReport reads ?view=&date=&q= and renders the rollup. The date defaults to today
// in the ledger's location.
func (s *Server) buildReport(w http.ResponseWriter, r *http.Request) (report.View, bool) {
	query := r.URL.Query()
	period, err := report.ParsePeriod(query.Get("view"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_view", "view must be day, week or month")
		return report.View{}, false
	}
	date := query.Get("date")
	if date == "" {
		date = s.attendance.Today()
	}
	day, err := report.ParseDay(date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
		return report.View{}, false
	}
	records, err := s.attendance.ListAll(r.Context())
	if err != nil {
		writeAppError(w, err)
		return report.View{}, false
	}
	return report.Build(records, period, day, query.Get("q"), s.attendance.Location()), true
}

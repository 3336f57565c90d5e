package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hrdesk/internal/account"
	"hrdesk/internal/apperr"
	"hrdesk/internal/attendance"
	"hrdesk/internal/auth"
	"hrdesk/internal/config"
	"hrdesk/internal/leave"
	"hrdesk/internal/model"
	"hrdesk/internal/uploads"
)

type Server struct {
	cfg        config.Config
	accounts   *account.Service
	attendance *attendance.Ledger
	leaves     *leave.Ledger
	uploads    *uploads.Store
}

func NewServer(cfg config.Config, accounts *account.Service, attendanceLedger *attendance.Ledger, leaveLedger *leave.Ledger, uploadStore *uploads.Store) *Server {
	return &Server{
		cfg:        cfg,
		accounts:   accounts,
		attendance: attendanceLedger,
		leaves:     leaveLedger,
		uploads:    uploadStore,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	health := func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
	r.Get("/health", health)
	r.Get("/api/health", health)
	r.Handle("/metrics", promhttp.Handler())
	if s.uploads != nil {
		r.Handle("/uploads/*", s.uploads.Handler())
	}

	r.Post("/auth/register", s.handleRegister)
	r.Post("/auth/login", s.handleLogin)

	r.With(s.authMiddleware).Get("/users/me", s.handleGetMe)

	r.Route("/attendance", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Post("/check-in", s.handleCheckIn)
		r.Post("/check-out", s.handleCheckOut)
		r.Get("/me", s.handleListMyAttendance)
		r.With(s.requireRole(model.RoleAdmin)).Get("/all", s.handleListAllAttendance)
		r.With(s.requireRole(model.RoleAdmin)).Get("/report", s.handleAttendanceReport)
		r.With(s.requireRole(model.RoleAdmin)).Get("/report.xlsx", s.handleAttendanceWorkbook)
	})

	r.Route("/leaves", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Post("/", s.handleCreateLeave)
		r.Get("/mine", s.handleListMyLeaves)
		r.With(s.requireRole(model.RoleAdmin)).Get("/", s.handleListLeaves)
		r.With(s.requireRole(model.RoleAdmin)).Post("/{leaveID}/approve", s.handleApproveLeave)
		r.With(s.requireRole(model.RoleAdmin)).Post("/{leaveID}/reject", s.handleRejectLeave)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(s.authMiddleware, s.requireRole(model.RoleAdmin))
		r.Post("/users", s.handleCreateEmployee)
		r.Get("/users", s.handleListUsers)
		r.Get("/companies", s.handleListCompanies)
	})

	return r
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.accounts.Authenticate(bearerToken(r.Header.Get("Authorization")))
		if err != nil {
			writeAppError(w, err)
			return
		}
		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requireRole(roles ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := claimsFromContext(r.Context())
			if claims == nil || !hasRole(claims, roles) {
				writeAppError(w, apperr.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type claimsKey struct{}

func claimsFromContext(ctx context.Context) *auth.Claims {
	value := ctx.Value(claimsKey{})
	claims, _ := value.(*auth.Claims)
	return claims
}

func hasRole(claims *auth.Claims, roles []model.Role) bool {
	role, ok := model.ParseRole(claims.Role)
	if !ok {
		return false
	}
	for _, allowed := range roles {
		if role == allowed {
			return true
		}
	}
	return false
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func decodeJSON(r *http.Request, out interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"error": message, "code": code})
}

// writeAppError maps an error's kind onto a status. Unclassified errors are logged and
// answered with a generic message.
func writeAppError(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal {
		log.Printf("request failed: %v", err)
	}
	writeError(w, statusFor(kind), apperr.CodeOf(err), apperr.MessageOf(err))
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation, apperr.KindPrecondition:
		return http.StatusBadRequest
	case apperr.KindAuthentication:
		return http.StatusUnauthorized
	case apperr.KindAuthorization:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindBusy:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

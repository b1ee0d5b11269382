// Package admin HTTP API для просмотра и правки профилей пользователей.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ivanoskov/nutrition_bot/internal/model"
	"github.com/ivanoskov/nutrition_bot/internal/repository"
	"github.com/ivanoskov/nutrition_bot/internal/session"
)

// Store операции хранилища, нужные админке
type Store interface {
	ListAll(ctx context.Context) ([]model.Profile, error)
	Save(ctx context.Context, userID int64, profile model.Profile) error
	Delete(ctx context.Context, userID int64) (model.Profile, error)
}

// Credentials логин и пароль для Basic auth
type Credentials struct {
	Username string
	Password string
}

type Server struct {
	store  Store
	locks  *session.Manager
	logger *slog.Logger
}

// NewHandler собирает роутер. /healthz и /metrics доступны без авторизации,
// /api/admin требует Basic auth.
func NewHandler(store Store, locks *session.Manager, gatherer prometheus.Gatherer, creds Credentials, logger *slog.Logger) http.Handler {
	s := &Server{
		store:  store,
		locks:  locks,
		logger: logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestID)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.BasicAuth("admin", map[string]string{creds.Username: creds.Password}))
		r.Get("/users", s.ListUsers)
		r.Post("/users", s.AddUsers)
		r.Delete("/users", s.DeleteUsers)
	})
	return r
}

// requestID пишет в лог каждый запрос с собственным идентификатором
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		started := time.Now()
		next.ServeHTTP(ww, r)

		s.logger.Info("admin request",
			"request_id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(started),
		)
	})
}

// ListUsers обрабатывает GET /api/admin/users
func (s *Server) ListUsers(w http.ResponseWriter, r *http.Request) {
	profiles, err := s.store.ListAll(r.Context())
	if err != nil {
		s.fail(w, "ListUsers", err)
		return
	}
	if profiles == nil {
		profiles = []model.Profile{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(profiles); err != nil {
		s.logger.Error("ListUsers response encode failed", "err", err)
	}
}

// AddUsers обрабатывает POST /api/admin/users со списком профилей.
// Существующие профили перезаписываются.
func (s *Server) AddUsers(w http.ResponseWriter, r *http.Request) {
	var users []*model.Profile
	if err := json.NewDecoder(r.Body).Decode(&users); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("AddUsers: invalid request body", "err", err)
		return
	}
	if len(users) == 0 {
		writeText(w, "No users to add")
		return
	}
	for _, u := range users {
		if u == nil {
			continue
		}
		if err := u.Validate(); err != nil {
			http.Error(w, fmt.Sprintf("Invalid user %d: %v", u.UserID, err), http.StatusBadRequest)
			s.logger.Warn("AddUsers: invalid profile", "user_id", u.UserID, "err", err)
			return
		}
	}

	added := 0
	for _, u := range users {
		if u == nil {
			continue
		}
		profile := *u
		err := s.locks.WithLock(r.Context(), profile.UserID, func(ctx context.Context) error {
			return s.store.Save(ctx, profile.UserID, profile)
		})
		if err != nil {
			s.fail(w, "AddUsers", err)
			return
		}
		added++
	}

	profiles, err := s.store.ListAll(r.Context())
	if err != nil {
		s.fail(w, "AddUsers", err)
		return
	}
	writeText(w, fmt.Sprintf("Added %d users. Total: %d", added, len(profiles)))
}

// DeleteUsers обрабатывает DELETE /api/admin/users?chatIds=1,2.
// Без chatIds удаляет всех.
func (s *Server) DeleteUsers(w http.ResponseWriter, r *http.Request) {
	ids, err := parseChatIDs(r.URL.Query()["chatIds"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	all := len(ids) == 0
	if all {
		profiles, err := s.store.ListAll(r.Context())
		if err != nil {
			s.fail(w, "DeleteUsers", err)
			return
		}
		for _, p := range profiles {
			ids = append(ids, p.UserID)
		}
	}

	deleted := 0
	for _, id := range ids {
		err := s.locks.WithLock(r.Context(), id, func(ctx context.Context) error {
			_, err := s.store.Delete(ctx, id)
			return err
		})
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			s.fail(w, "DeleteUsers", err)
			return
		}
		deleted++
	}

	if all {
		writeText(w, fmt.Sprintf("Deleted all %d users", deleted))
		return
	}
	writeText(w, fmt.Sprintf("Deleted %d users", deleted))
}

// parseChatIDs принимает как chatIds=1,2 так и chatIds=1&chatIds=2
func parseChatIDs(values []string) ([]int64, error) {
	var ids []int64
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid chat id %q", part)
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	http.Error(w, "Storage error", http.StatusInternalServerError)
	s.logger.Error(op+" failed", "err", err)
}

func writeText(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(text))
}

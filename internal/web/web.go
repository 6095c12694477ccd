package web

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/Joseda-hg/lazytodo/internal/logger"
	"github.com/Joseda-hg/lazytodo/internal/model"
	"github.com/Joseda-hg/lazytodo/internal/tasks"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.tmpl"))

type Server struct {
	repo     tasks.Repository
	log      *logger.Logger
	validate *validator.Validate
	gatherer prometheus.Gatherer
}

// taskForm is what the add form and the JSON create call submit. Values are
// trimmed before validation.
type taskForm struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Completed   bool   `json:"completed"`
}

type taskRow struct {
	Task    model.Task
	Editing bool
}

type indexData struct {
	Stats model.Stats
	Rows  []taskRow
	Error string
}

// NewServer wires the HTML pages and JSON API to repo. When gatherer is
// non-nil its metrics are served on /metrics.
func NewServer(repo tasks.Repository, log *logger.Logger, gatherer prometheus.Gatherer) *Server {
	return &Server{repo: repo, log: log, validate: validator.New(), gatherer: gatherer}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.indexHandler)
	mux.HandleFunc("POST /tasks", s.addHandler)
	mux.HandleFunc("POST /tasks/clear-completed", s.clearCompletedHandler)
	mux.HandleFunc("POST /tasks/{id}/toggle", s.toggleHandler)
	mux.HandleFunc("POST /tasks/{id}/update", s.updateHandler)
	mux.HandleFunc("POST /tasks/{id}/delete", s.deleteHandler)

	mux.HandleFunc("GET /api/tasks", s.apiListHandler)
	mux.HandleFunc("POST /api/tasks", s.apiCreateHandler)
	mux.HandleFunc("POST /api/tasks/clear-completed", s.apiClearCompletedHandler)
	mux.HandleFunc("GET /api/tasks/{id}", s.apiGetHandler)
	mux.HandleFunc("PATCH /api/tasks/{id}", s.apiUpdateHandler)
	mux.HandleFunc("POST /api/tasks/{id}/toggle", s.apiToggleHandler)
	mux.HandleFunc("DELETE /api/tasks/{id}", s.apiDeleteHandler)
	mux.HandleFunc("GET /api/stats", s.apiStatsHandler)

	if s.gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	return s.withRequestID(s.withAccessLog(mux))
}

func (s *Server) indexHandler(w http.ResponseWriter, r *http.Request) {
	list, err := s.repo.List(r.Context(), model.StatusAll)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}

	editing, _ := strconv.ParseInt(r.URL.Query().Get("edit"), 10, 64)
	rows := make([]taskRow, 0, len(list))
	for _, task := range list {
		rows = append(rows, taskRow{Task: task, Editing: editing != 0 && task.ID == editing})
	}

	data := indexData{Stats: model.StatsOf(list), Rows: rows, Error: r.URL.Query().Get("error")}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, data); err != nil {
		s.log.WithError(err).Errorw("render index")
	}
}

func (s *Server) addHandler(w http.ResponseWriter, r *http.Request) {
	form := taskForm{
		Title:       strings.TrimSpace(r.FormValue("title")),
		Description: strings.TrimSpace(r.FormValue("description")),
	}
	// Blank submissions are dropped without adding anything or complaining.
	if form.Title == "" {
		redirectHome(w, r, "")
		return
	}
	if err := s.validate.Struct(form); err != nil {
		redirectHome(w, r, validationMessage(err))
		return
	}

	if _, err := s.repo.Add(r.Context(), model.NewTask{Title: form.Title, Description: form.Description}); err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	redirectHome(w, r, "")
}

func (s *Server) toggleHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if ok {
		if _, err := s.repo.Toggle(r.Context(), id); err != nil {
			s.writeError(w, r, http.StatusInternalServerError, err)
			return
		}
	}
	redirectHome(w, r, "")
}

func (s *Server) updateHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	title := strings.TrimSpace(r.FormValue("title"))
	if ok && title != "" {
		if err := s.checkTitle(title); err != nil {
			redirectHome(w, r, err.Error())
			return
		}
		if _, err := s.repo.Update(r.Context(), id, model.Patch{Title: &title}); err != nil {
			s.writeError(w, r, http.StatusInternalServerError, err)
			return
		}
	}
	redirectHome(w, r, "")
}

func (s *Server) deleteHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if ok {
		if _, err := s.repo.Delete(r.Context(), id); err != nil {
			s.writeError(w, r, http.StatusInternalServerError, err)
			return
		}
	}
	redirectHome(w, r, "")
}

func (s *Server) clearCompletedHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := s.repo.ClearCompleted(r.Context()); err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	redirectHome(w, r, "")
}

func (s *Server) apiListHandler(w http.ResponseWriter, r *http.Request) {
	status := model.Status(strings.TrimSpace(r.URL.Query().Get("status")))
	switch status {
	case model.StatusAll, model.StatusCompleted, model.StatusIncomplete:
	default:
		s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("unknown status %q", status))
		return
	}

	list, err := s.repo.List(r.Context(), status)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) apiCreateHandler(w http.ResponseWriter, r *http.Request) {
	var form taskForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("decode task: %w", err))
		return
	}
	form.Title = strings.TrimSpace(form.Title)
	form.Description = strings.TrimSpace(form.Description)
	if err := s.validate.Struct(form); err != nil {
		s.writeError(w, r, http.StatusBadRequest, errors.New(validationMessage(err)))
		return
	}

	task, err := s.repo.Add(r.Context(), model.NewTask{
		Title:       form.Title,
		Completed:   form.Completed,
		Description: form.Description,
	})
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (s *Server) apiGetHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.writeError(w, r, http.StatusNotFound, fmt.Errorf("invalid id"))
		return
	}

	task, found, err := s.repo.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	if !found {
		s.writeError(w, r, http.StatusNotFound, fmt.Errorf("task %d not found", id))
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) apiUpdateHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	var patch model.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("decode patch: %w", err))
		return
	}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if err := s.checkTitle(title); err != nil {
			s.writeError(w, r, http.StatusBadRequest, err)
			return
		}
		patch.Title = &title
	}
	if _, err := s.repo.Update(r.Context(), id, patch); err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) apiToggleHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if ok {
		if _, err := s.repo.Toggle(r.Context(), id); err != nil {
			s.writeError(w, r, http.StatusInternalServerError, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) apiDeleteHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if ok {
		if _, err := s.repo.Delete(r.Context(), id); err != nil {
			s.writeError(w, r, http.StatusInternalServerError, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) apiClearCompletedHandler(w http.ResponseWriter, r *http.Request) {
	removed, err := s.repo.ClearCompleted(r.Context())
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

func (s *Server) apiStatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := s.repo.Stats(r.Context())
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// pathID reports false for ids that cannot name a task; callers treat that
// the same as an unknown id.
func pathID(r *http.Request) (int64, bool) {
	value := strings.TrimSpace(r.PathValue("id"))
	if value == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (s *Server) checkTitle(title string) error {
	if err := s.validate.Var(title, "required,max=200"); err != nil {
		return errors.New("title " + validationMessage(err))
	}
	return nil
}

func validationMessage(err error) string {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) || len(fieldErrors) == 0 {
		return err.Error()
	}
	field := fieldErrors[0]
	name := strings.ToLower(field.Field())
	switch field.Tag() {
	case "required":
		return strings.TrimSpace(name + " is required")
	case "max":
		return strings.TrimSpace(fmt.Sprintf("%s must be at most %s characters", name, field.Param()))
	default:
		return strings.TrimSpace(fmt.Sprintf("%s is invalid", name))
	}
}

func redirectHome(w http.ResponseWriter, r *http.Request, message string) {
	target := "/"
	if message != "" {
		target += "?error=" + template.URLQueryEscaper(message)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		requestLogger(r, s.log).WithError(err).Errorw("request failed", "status", status)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

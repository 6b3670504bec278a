package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"reflect"
	"strings"

	"github.com/chepyr/task-manager/internal/db"
	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20 // 1MB

type Handler struct {
	TaskRepo db.TaskRepositoryInterface
	validate *validator.Validate
}

func NewHandler(taskRepo db.TaskRepositoryInterface) *Handler {
	validate := validator.New(validator.WithRequiredStructEnabled())
	// report json field names in validation errors
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Handler{TaskRepo: taskRepo, validate: validate}
}

/*
Routes wires the task endpoints:
- GET /tasks, POST /tasks
- GET /tasks/{id}, PUT /tasks/{id}, DELETE /tasks/{id}
- GET /health
*/
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /tasks", h.listTasks)
	mux.HandleFunc("POST /tasks", h.createTask)
	mux.HandleFunc("GET /tasks/{id}", h.getTaskByID)
	mux.HandleFunc("PUT /tasks/{id}", h.updateTaskByID)
	mux.HandleFunc("DELETE /tasks/{id}", h.deleteTaskByID)
	mux.HandleFunc("GET /health", h.health)

	return RequestID(LogRequests(mux))
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if err := h.TaskRepo.Ping(r.Context()); err != nil {
		log.Printf("Health check failed: %v", err)
		sendError(w, "Database unavailable", http.StatusServiceUnavailable)
		return
	}
	sendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorResponse struct {
	Error string `json:"error"`
}

func sendError(w http.ResponseWriter, message string, status int) {
	sendJSON(w, status, errorResponse{Error: message})
}

func sendJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/chepyr/task-manager/internal/db"
	"github.com/chepyr/task-manager/internal/models"
	"github.com/go-playground/validator/v10"
)

const (
	msgInvalidStatus = "status must be pending or done"
	msgTaskNotFound  = "Task not found"
)

// any "id" in the body is ignored
type createTaskInput struct {
	Title       string  `json:"title" validate:"required,min=1,max=100"`
	Description string  `json:"description" validate:"max=300"`
	Status      *string `json:"status"`
}

type updateTaskInput struct {
	Title       *string `json:"title" validate:"omitnil,min=1,max=100"`
	Description *string `json:"description" validate:"omitnil,max=300"`
	Status      *string `json:"status"`
}

type taskEnvelope struct {
	Message string      `json:"message"`
	Task    models.Task `json:"task"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// GET /tasks
func (h *Handler) listTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.TaskRepo.ListAll(r.Context())
	if err != nil {
		h.sendStoreError(w, "list tasks", err)
		return
	}
	sendJSON(w, http.StatusOK, tasks)
}

// POST /tasks
func (h *Handler) createTask(w http.ResponseWriter, r *http.Request) {
	var input createTaskInput
	if !h.decodeAndValidate(w, r, &input) {
		return
	}

	status := models.TaskStatusPending
	if input.Status != nil {
		status = models.TaskStatus(*input.Status)
	}
	if !status.Valid() {
		sendError(w, msgInvalidStatus, http.StatusBadRequest)
		return
	}

	task, err := h.TaskRepo.Insert(r.Context(), input.Title, input.Description, status)
	if err != nil {
		h.sendStoreError(w, "create task", err)
		return
	}
	sendJSON(w, http.StatusOK, taskEnvelope{Message: "Task created", Task: task})
}

// GET /tasks/{id}
func (h *Handler) getTaskByID(w http.ResponseWriter, r *http.Request) {
	taskID, ok := parseTaskID(w, r)
	if !ok {
		return
	}

	task, err := h.TaskRepo.FetchByID(r.Context(), taskID)
	if err != nil {
		h.sendStoreError(w, "fetch task", err)
		return
	}
	sendJSON(w, http.StatusOK, task)
}

/*
PUT /tasks/{id}

The existing row is fetched first and omitted fields keep their stored values.
A missing task is reported before an invalid merged status. The fetch and the
write are separate store calls: if the task is deleted in between, the write
reports it as not found.
*/
func (h *Handler) updateTaskByID(w http.ResponseWriter, r *http.Request) {
	taskID, ok := parseTaskID(w, r)
	if !ok {
		return
	}

	var input updateTaskInput
	if !h.decodeAndValidate(w, r, &input) {
		return
	}

	existingTask, err := h.TaskRepo.FetchByID(r.Context(), taskID)
	if err != nil {
		h.sendStoreError(w, "fetch task", err)
		return
	}

	title, description, status := existingTask.Title, existingTask.Description, existingTask.Status
	if input.Title != nil {
		title = *input.Title
	}
	if input.Description != nil {
		description = *input.Description
	}
	if input.Status != nil {
		status = models.TaskStatus(*input.Status)
	}
	if !status.Valid() {
		sendError(w, msgInvalidStatus, http.StatusBadRequest)
		return
	}

	task, err := h.TaskRepo.UpdateByID(r.Context(), taskID, title, description, status)
	if err != nil {
		h.sendStoreError(w, "update task", err)
		return
	}
	sendJSON(w, http.StatusOK, taskEnvelope{Message: "Task updated", Task: task})
}

// DELETE /tasks/{id}
func (h *Handler) deleteTaskByID(w http.ResponseWriter, r *http.Request) {
	taskID, ok := parseTaskID(w, r)
	if !ok {
		return
	}

	if _, err := h.TaskRepo.FetchByID(r.Context(), taskID); err != nil {
		h.sendStoreError(w, "fetch task", err)
		return
	}
	if err := h.TaskRepo.DeleteByID(r.Context(), taskID); err != nil {
		h.sendStoreError(w, "delete task", err)
		return
	}
	sendJSON(w, http.StatusOK, messageResponse{Message: "Task deleted"})
}

func parseTaskID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	taskID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || taskID <= 0 {
		sendError(w, "task id must be a positive integer", http.StatusBadRequest)
		return 0, false
	}
	return taskID, true
}

func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, input any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(input); err != nil {
		sendError(w, "Invalid JSON body", http.StatusBadRequest)
		return false
	}
	if err := h.validate.Struct(input); err != nil {
		sendError(w, validationMessage(err), http.StatusBadRequest)
		return false
	}
	return true
}

func validationMessage(err error) string {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) || len(validationErrs) == 0 {
		return "Invalid input"
	}
	fieldErr := validationErrs[0]
	switch fieldErr.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fieldErr.Field())
	case "min":
		if fieldErr.Param() == "1" {
			return fmt.Sprintf("%s must not be empty", fieldErr.Field())
		}
		return fmt.Sprintf("%s must be at least %s characters", fieldErr.Field(), fieldErr.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fieldErr.Field(), fieldErr.Param())
	default:
		return fmt.Sprintf("%s is invalid", fieldErr.Field())
	}
}

func (h *Handler) sendStoreError(w http.ResponseWriter, action string, err error) {
	switch {
	case errors.Is(err, db.ErrNotFound):
		sendError(w, msgTaskNotFound, http.StatusNotFound)
	case errors.Is(err, db.ErrConstraintViolation):
		// input is validated before every write, so this is a handler bug
		log.Printf("Unexpected constraint violation on %s: %v", action, err)
		sendError(w, "Unexpected constraint violation", http.StatusInternalServerError)
	default:
		log.Printf("Failed to %s: %v", action, err)
		sendError(w, "Failed to "+action, http.StatusInternalServerError)
	}
}

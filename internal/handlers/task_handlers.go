package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"taskKeeper/internal/handlers/dto"
	"taskKeeper/internal/logger"
	"taskKeeper/internal/models/task"
	"taskKeeper/internal/service"
	"taskKeeper/internal/validation"
	"taskKeeper/internal/view"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type TaskHandler struct {
	TaskService TaskService
	Reminders   ReminderLister
	Health      HealthChecker
	// Location is used to read picker dates and times.
	Location *time.Location
	// Now anchors a picked time of day onto the current date.
	Now func() time.Time
}

func NewTaskHandler(taskService TaskService, reminders ReminderLister, health HealthChecker) *TaskHandler {
	return &TaskHandler{
		TaskService: taskService,
		Reminders:   reminders,
		Health:      health,
		Location:    time.Local,
		Now:         time.Now,
	}
}

// Routes mounts the task API on r.
func (h *TaskHandler) Routes(r chi.Router) {
	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", h.GetTasks)      // GET /tasks?sort=&starred=
		r.Post("/", h.PostTask)     // POST /tasks
		r.Delete("/", h.ClearTasks) // DELETE /tasks

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetTaskByID)
			r.Delete("/", h.DeleteTaskByID)
			r.Post("/complete", h.ToggleCompleted)
			r.Post("/star", h.ToggleStarred)
			r.Put("/text", h.EditText)
			r.Post("/subtasks", h.AddSubtask)
			r.Post("/subtasks/{index}/complete", h.ToggleSubtask)
		})
	})
	r.Get("/reminders", h.GetReminders)
	r.Get("/health", h.HealthCheck)
}

func (h *TaskHandler) GetTasks(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	query := r.URL.Query()
	sortOption := view.ParseSortOption(query.Get("sort"))

	starred := false
	if raw := query.Get("starred"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			logger.Warn("HTTP: Invalid query parameter",
				zap.String("query", "starred"),
				zap.Error(err))
			responseWithError(w, http.StatusBadRequest, "starred must be true or false")
			return
		}
		starred = parsed
	}

	tasks := h.TaskService.Project(sortOption, starred)
	responseWithJSON(w, http.StatusOK,
		toPayload("sort", sortOption),
		toPayload("starred", starred),
		toPayload("tasks", dto.FromTaskList(tasks)),
	)
}

func (h *TaskHandler) PostTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	if !checkContentType(r, "application/json") {
		logger.Warn("HTTP: Wrong content type",
			zap.String("expected", "application/json"),
			zap.String("received", r.Header.Get("Content-Type")))
		responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return
	}

	var request dto.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: Could not read JSON", zap.Error(err))
		responseWithError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	options, err := h.createOptions(request)
	if err != nil {
		handleServiceError(w, err, "create_task")
		return
	}

	created, err := h.TaskService.Add(r.Context(), request.Text, options...)
	if err != nil {
		handleServiceError(w, err, "create_task")
		return
	}

	logger.Info("HTTP_OUT: Task created",
		zap.Int64("task_id", created.ID),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	responseWithJSON(w, http.StatusCreated, toPayload("task", dto.FromTask(created)))
}

func (h *TaskHandler) createOptions(request dto.CreateTaskRequest) ([]task.Option, error) {
	priority, err := task.ParsePriority(request.Priority)
	if err != nil {
		return nil, service.NewValidationError("priority", err.Error())
	}
	options := []task.Option{task.WithPriority(priority)}

	if request.DueDate != "" {
		date, err := time.ParseInLocation(dto.DateLayout, request.DueDate, h.Location)
		if err != nil {
			return nil, service.NewValidationError("dueDate", "expected "+dto.DateLayout)
		}
		options = append(options, task.WithDueDate(date))
	}
	if request.DueTime != "" {
		parsed, err := time.Parse(dto.TimeLayout, request.DueTime)
		if err != nil {
			return nil, service.NewValidationError("dueTime", "expected "+dto.TimeLayout)
		}
		// Anchored on today's date; year 0 has sub-minute LMT offsets.
		today := h.Now().In(h.Location)
		clock := time.Date(today.Year(), today.Month(), today.Day(),
			parsed.Hour(), parsed.Minute(), 0, 0, h.Location)
		options = append(options, task.WithDueTime(clock))
	}
	return options, nil
}

func (h *TaskHandler) ClearTasks(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	tasks := h.TaskService.ClearAll()
	responseWithJSON(w, http.StatusOK, toPayload("tasks", dto.FromTaskList(tasks)))
}

func (h *TaskHandler) GetTaskByID(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	current, ok := h.lookup(w, r)
	if !ok {
		return
	}
	responseWithJSON(w, http.StatusOK, toPayload("task", dto.FromTask(current)))
}

func (h *TaskHandler) DeleteTaskByID(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	current, ok := h.lookup(w, r)
	if !ok {
		return
	}
	tasks := h.TaskService.Delete(current.ID)
	responseWithJSON(w, http.StatusOK,
		toPayload("deleted", current.ID),
		toPayload("tasks", dto.FromTaskList(tasks)),
	)
}

func (h *TaskHandler) ToggleCompleted(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	current, ok := h.lookup(w, r)
	if !ok {
		return
	}
	h.respondWithTask(w, current.ID, h.TaskService.ToggleCompleted(current.ID))
}

func (h *TaskHandler) ToggleStarred(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	current, ok := h.lookup(w, r)
	if !ok {
		return
	}
	h.respondWithTask(w, current.ID, h.TaskService.ToggleStarred(current.ID))
}

func (h *TaskHandler) EditText(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	current, ok := h.lookup(w, r)
	if !ok {
		return
	}
	text, ok := readText(w, r)
	if !ok {
		return
	}
	h.respondWithTask(w, current.ID, h.TaskService.EditText(current.ID, text))
}

func (h *TaskHandler) AddSubtask(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	current, ok := h.lookup(w, r)
	if !ok {
		return
	}
	text, ok := readText(w, r)
	if !ok {
		return
	}
	h.respondWithTask(w, current.ID, h.TaskService.AddSubtask(current.ID, text))
}

func (h *TaskHandler) ToggleSubtask(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	current, ok := h.lookup(w, r)
	if !ok {
		return
	}

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		logger.Warn("HTTP: Could not read subtask index", zap.Error(err))
		responseWithError(w, http.StatusBadRequest, "subtask index must be an integer")
		return
	}
	if index < 0 || index >= len(current.Subtasks) {
		handleBusinessError(w, service.NewNotFound("subtask", index))
		return
	}
	h.respondWithTask(w, current.ID, h.TaskService.ToggleSubtask(current.ID, index))
}

func (h *TaskHandler) GetReminders(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	if h.Reminders == nil {
		responseWithJSON(w, http.StatusOK, toPayload("reminders", []dto.ReminderResponse{}))
		return
	}
	responseWithJSON(w, http.StatusOK, toPayload("reminders", dto.FromPending(h.Reminders.Pending())))
}

func (h *TaskHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP: Health check")

	var err error
	if h.Health != nil {
		err = h.Health.HealthCheck(r.Context())
	}
	if err != nil {
		logger.Error("HTTP: Health check failed", err)
	}
	healthCheck(w, err)
}

// lookup resolves the {id} path parameter to an existing task, writing the
// error response itself when it cannot.
func (h *TaskHandler) lookup(w http.ResponseWriter, r *http.Request) (task.Task, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		logger.Warn("HTTP: Could not read id", zap.Error(err))
		responseWithError(w, http.StatusBadRequest, "id must be an integer")
		return task.Task{}, false
	}

	current, err := h.TaskService.Get(id)
	if err != nil {
		handleServiceError(w, err, "get_task")
		return task.Task{}, false
	}
	return current, true
}

func (h *TaskHandler) respondWithTask(w http.ResponseWriter, id int64, tasks []task.Task) {
	for _, t := range tasks {
		if t.ID == id {
			responseWithJSON(w, http.StatusOK, toPayload("task", dto.FromTask(t)))
			return
		}
	}
	handleBusinessError(w, service.NewNotFound("task", id))
}

func readText(w http.ResponseWriter, r *http.Request) (string, bool) {
	if !checkContentType(r, "application/json") {
		responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return "", false
	}
	var request dto.TextRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: Could not read JSON", zap.Error(err))
		responseWithError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return "", false
	}
	if !validation.IsNonBlank(request.Text) {
		handleBusinessError(w, service.NewValidationError("text", "must not be blank"))
		return "", false
	}
	return request.Text, true
}

package handlers

import (
	"net/http"

	"taskboard/backend/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type TaskHandler struct {
	db          *gorm.DB
	taskService services.TaskService
}

func NewTaskHandler(db *gorm.DB, taskService services.TaskService) *TaskHandler {
	return &TaskHandler{db: db, taskService: taskService}
}

// GetTasks lists tasks, narrowed by any of the user_id, assigned_to and
// assigned_by query parameters.
func (h *TaskHandler) GetTasks(c *gin.Context) {
	filter := services.TaskFilter{
		UserID:     queryID(c, "user_id"),
		AssignedTo: queryID(c, "assigned_to"),
		AssignedBy: queryID(c, "assigned_by"),
	}
	h.listTasks(c, filter)
}

func (h *TaskHandler) GetAssignedTasks(c *gin.Context) {
	userID := queryID(c, "user_id")
	if userID == nil {
		respondError(c, services.ErrUserIDRequired)
		return
	}
	h.listTasks(c, services.TaskFilter{AssignedTo: userID})
}

func (h *TaskHandler) GetCreatedTasks(c *gin.Context) {
	userID := queryID(c, "user_id")
	if userID == nil {
		respondError(c, services.ErrUserIDRequired)
		return
	}
	h.listTasks(c, services.TaskFilter{AssignedBy: userID})
}

func (h *TaskHandler) listTasks(c *gin.Context, filter services.TaskFilter) {
	tasks, err := h.taskService.GetTasks(h.db.WithContext(c.Request.Context()), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (h *TaskHandler) GetTaskByID(c *gin.Context) {
	id, ok := pathID(c, "id", services.ErrTaskNotFound)
	if !ok {
		return
	}

	task, err := h.taskService.GetTaskByID(h.db.WithContext(c.Request.Context()), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	var req services.CreateTaskRequest
	if err := bindJSON(c, &req, false); err != nil {
		respondError(c, err)
		return
	}

	task, err := h.taskService.CreateTask(h.db.WithContext(c.Request.Context()), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (h *TaskHandler) AssignTask(c *gin.Context) {
	var req services.AssignTaskRequest
	if err := bindJSON(c, &req, false); err != nil {
		respondError(c, err)
		return
	}

	task, err := h.taskService.AssignTask(h.db.WithContext(c.Request.Context()), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (h *TaskHandler) UpdateTask(c *gin.Context) {
	id, ok := pathID(c, "id", services.ErrTaskNotFound)
	if !ok {
		return
	}

	var req services.UpdateTaskRequest
	if err := bindJSON(c, &req, true); err != nil {
		respondError(c, err)
		return
	}

	task, err := h.taskService.UpdateTask(h.db.WithContext(c.Request.Context()), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) CompleteTask(c *gin.Context) {
	id, ok := pathID(c, "id", services.ErrTaskNotFound)
	if !ok {
		return
	}

	var req services.CompleteTaskRequest
	if err := bindJSON(c, &req, true); err != nil {
		respondError(c, err)
		return
	}

	task, err := h.taskService.CompleteTask(h.db.WithContext(c.Request.Context()), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) ApproveTask(c *gin.Context) {
	id, ok := pathID(c, "id", services.ErrTaskNotFound)
	if !ok {
		return
	}

	var req services.ApproveTaskRequest
	if err := bindJSON(c, &req, true); err != nil {
		respondError(c, err)
		return
	}

	task, err := h.taskService.ApproveTask(h.db.WithContext(c.Request.Context()), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) DeleteTask(c *gin.Context) {
	id, ok := pathID(c, "id", services.ErrTaskNotFound)
	if !ok {
		return
	}

	if err := h.taskService.DeleteTask(h.db.WithContext(c.Request.Context()), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

package transport

import "github.com/Skotchmaster/task_manager/internal/models"

type RegisterRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type UserResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type CreateTaskRequest struct {
	Title string `json:"title"`
}

// PatchTaskRequest leaves a field nil when the client did not send it.
type PatchTaskRequest struct {
	Title     *string `json:"title"`
	Completed *bool   `json:"completed"`
}

type SearchResponse struct {
	Total int64         `json:"total"`
	Tasks []models.Task `json:"tasks"`
}

package models

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type PaginatedResponse[T any] struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	TotalPages int   `json:"total_pages"`
	TotalItems int64 `json:"total_items"`
	Items      []T   `json:"items"`
}

type MeResponse struct {
	User         User  `json:"user"`
	StorageUsage int64 `json:"storage_usage"`
}

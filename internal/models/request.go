package models

type EntryUpdateRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=255"`
	Title       *string `json:"title" binding:"omitempty,max=255"`
	Description *string `json:"description" binding:"omitempty,max=2047"`
}

type ShareLinkUpdateRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

type ViewCreateRequest struct {
	Name         string  `json:"name" binding:"required,min=1,max=255"`
	Description  *string `json:"description"`
	SnapshotURL  *string `json:"snapshot_url" binding:"omitempty,max=2083"`
	ThumbnailURL *string `json:"thumbnail_url" binding:"omitempty,max=2083"`
	IsThumbnail  bool    `json:"is_thumbnail"`
	OrderIndex   int     `json:"order_index"`
}

type ViewUpdateRequest struct {
	Name         *string `json:"name" binding:"omitempty,min=1,max=255"`
	Description  *string `json:"description"`
	SnapshotURL  *string `json:"snapshot_url" binding:"omitempty,max=2083"`
	ThumbnailURL *string `json:"thumbnail_url" binding:"omitempty,max=2083"`
	IsThumbnail  *bool   `json:"is_thumbnail"`
	OrderIndex   *int    `json:"order_index"`
}

type PaginationQuery struct {
	Page      int    `form:"page,default=1" binding:"min=1"`
	PerPage   int    `form:"per_page,default=20" binding:"min=1,max=100"`
	SortBy    string `form:"sort_by,default=created_at" binding:"oneof=created_at updated_at name"`
	SortOrder string `form:"sort_order,default=desc" binding:"oneof=asc desc"`
}

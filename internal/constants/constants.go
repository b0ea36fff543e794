package constants

// Pagination
const (
	DefaultSkip     = 0
	DefaultPageSize = 100
	MinPageSize     = 1
	MaxPageSize     = 1000
)

// Bulk operations accept between MinBulkTaskIDs and MaxBulkTaskIDs ids
const (
	MinBulkTaskIDs = 1
	MaxBulkTaskIDs = 100
)

// API metadata
const (
	APIName        = "Task Management API"
	APIVersion     = "1.0.0"
	APIDescription = "A RESTful API for managing tasks with CRUD operations, filtering, sorting, search and pagination"
)

// Context keys and headers
const (
	ContextKeyRequestID = "request_id"
	HeaderRequestID     = "X-Request-ID"
)

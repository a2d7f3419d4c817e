package view

// Response is the common API envelope.
type Response[T any] struct {
	Data    T      `json:"data"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
	Request any    `json:"request,omitempty"`
}

// CreateResponse builds the envelope. The failed request body is echoed
// back alongside the error so clients can see what was rejected.
func CreateResponse[T any](data T, err error, request any, message string) Response[T] {
	resp := Response[T]{
		Data:    data,
		Message: message,
	}
	if err != nil {
		resp.Error = err.Error()
		resp.Request = request
	}
	return resp
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Pagination describes one page of a list response.
type Pagination struct {
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
	Total    int64 `json:"total"`
}

type ListResponse[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
	Error      string     `json:"error,omitempty"`
	Message    string     `json:"message,omitempty"`
}

func CreateListResponse[T any](data []T, page, pageSize int, total int64) ListResponse[T] {
	return ListResponse[T]{
		Data: data,
		Pagination: Pagination{
			Page:     page,
			PageSize: pageSize,
			Total:    total,
		},
	}
}

package common

type StatusAPIResponse[T any] struct {
	Status  bool        `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    T           `json:"data,omitempty"`
	Error   interface{} `json:"error,omitempty"`
}

// ErrorMessage returns the backend's reason, or fallback when it gave none.
func (r *StatusAPIResponse[T]) ErrorMessage(fallback string) string {
	switch e := r.Error.(type) {
	case string:
		if e != "" {
			return e
		}
	case map[string]interface{}:
		if m, ok := e["message"].(string); ok && m != "" {
			return m
		}
	}
	if r.Message != "" {
		return r.Message
	}
	return fallback
}

package common

type ErrorResponse struct {
	Message string `json:"message"`
	// Kind is the recovery class of a punch failure
	Kind string `json:"kind,omitempty"`
}

func NewErrorResponse(message string) *ErrorResponse {
	return &ErrorResponse{
		Message: message,
	}
}

func (e *ErrorResponse) WithKind(kind string) *ErrorResponse {
	e.Kind = kind
	return e
}

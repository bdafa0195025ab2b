package response

// Resp is the GraphQL-over-HTTP error body used when a request is rejected
// before it reaches the executor.
type Resp struct {
	Errors []Err `json:"errors"`
}

type Err struct {
	Message    string         `json:"message"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// Error builds a single-error body; an empty msg falls back to the code's text.
func Error(code int, customMsg string) Resp {
	msg := CodeMsgMap[code]
	if customMsg != "" {
		msg = customMsg
	}
	return Resp{Errors: []Err{{Message: msg, Extensions: map[string]any{"code": code}}}}
}

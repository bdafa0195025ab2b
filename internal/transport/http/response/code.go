package response

// Codes reported in errors[].extensions.code; they follow HTTP semantics.
const (
	CodeBadRequest       = 400
	CodeNotFound         = 404
	CodeMethodNotAllowed = 405
	CodeTooLarge         = 413
	CodeTooManyRequests  = 429
	CodeServerError      = 500
	CodeUnavailable      = 503
	CodeTimeout          = 504
)

var CodeMsgMap = map[int]string{
	CodeBadRequest:       "Bad Request",
	CodeNotFound:         "Not Found",
	CodeMethodNotAllowed: "Method Not Allowed",
	CodeTooLarge:         "Request Entity Too Large",
	CodeTooManyRequests:  "Too Many Requests",
	CodeServerError:      "Internal Server Error",
	CodeUnavailable:      "Service Unavailable",
	CodeTimeout:          "Gateway Timeout",
}

package core

// ErrorCode identifies the taxonomy of error kinds this package raises.
// Errors raised by the schema index and the reconciliation workers, and the
// registrar's engine-unavailable and missing-transform cases, carry one of
// these, so callers (and the workflow engine's retry policy) can branch on
// Code without string matching. The registrar returns create/update
// failures from the engine unwrapped.
type ErrorCode string

const (
	CodeSchemaError        ErrorCode = "SCHEMA_ERROR"
	CodeEngineUnavailable  ErrorCode = "ENGINE_UNAVAILABLE"
	CodeHostQueryError     ErrorCode = "HOST_QUERY_ERROR"
	CodeTransformExecution ErrorCode = "TRANSFORM_EXECUTION_ERROR"
	CodeMutationError      ErrorCode = "MUTATION_ERROR"
	CodeMissingTransform   ErrorCode = "MISSING_TRANSFORM"
)

// Error is the engine's structured error, mirroring the shape the host graph
// mutation layer expects back from a failed run (Message/Code/Details).
type Error struct {
	Message string         `json:"message,omitempty"`
	Code    ErrorCode      `json:"code,omitempty"`
	Details map[string]any `json:"details,omitempty"`
	cause   error
}

func NewError(err error, code ErrorCode, details map[string]any) *Error {
	message := "unknown error"
	if err != nil {
		message = err.Error()
	}
	return &Error{Message: message, Code: code, Details: details, cause: err}
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func (e *Error) Is(code ErrorCode) bool {
	return e != nil && e.Code == code
}

func (e *Error) AsMap() map[string]any {
	if e == nil {
		return nil
	}
	return map[string]any{"message": e.Message, "code": e.Code, "details": e.Details}
}

// SchemaError reports a malformed computed-attribute descriptor. This
// aborts index construction for the offending descriptor only.
func SchemaError(kind, attribute, reason string) *Error {
	return NewError(
		nil,
		CodeSchemaError,
		map[string]any{"kind": kind, "attribute": attribute, "reason": reason},
	)
}

// EngineUnavailableError reports that the workflow engine could not be
// reached during Reconcile.
func EngineUnavailableError(cause error) *Error {
	return NewError(cause, CodeEngineUnavailable, nil)
}

// HostQueryError reports a failed node or subscriber-group lookup.
func HostQueryError(cause error, details map[string]any) *Error {
	return NewError(cause, CodeHostQueryError, details)
}

// TransformExecutionError reports a failed external transform invocation.
func TransformExecutionError(cause error, repositoryName, commit string) *Error {
	return NewError(cause, CodeTransformExecution, map[string]any{
		"repository_name": repositoryName,
		"commit":           commit,
	})
}

// MutationError reports a failed UpdateComputedAttribute call.
func MutationError(cause error, nodeID, attribute string) *Error {
	return NewError(cause, CodeMutationError, map[string]any{
		"node_id":   nodeID,
		"attribute": attribute,
	})
}

// MissingTransformError reports a schema reference to a transform absent
// from the transforms store. Logged as a warning at setup; the descriptor is
// skipped, not retried.
func MissingTransformError(transformRef string) *Error {
	return NewError(nil, CodeMissingTransform, map[string]any{"transform_ref": transformRef})
}

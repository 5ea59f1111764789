package errors

type Code string

const (
	CodeUnknown            Code = "UNKNOWN"
	CodeInvalidArgument    Code = "INVALID_ARGUMENT"
	CodeInvalidParticipant Code = "INVALID_PARTICIPANT"
	CodeBlocked            Code = "BLOCKED"
	CodeNotFound           Code = "NOT_FOUND"
	CodePermissionDenied   Code = "PERMISSION_DENIED"
	CodeTransientIO        Code = "TRANSIENT_IO"
	CodeInconsistent       Code = "INCONSISTENT"
	CodeInternal           Code = "INTERNAL"
)

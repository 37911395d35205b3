package cerr

import "log/slog"

type Code int

const (
	OK                 = Code(0)
	Canceled           = Code(1)
	Unknown            = Code(2)
	InvalidArgument    = Code(3)
	DeadlineExceeded   = Code(4)
	NotFound           = Code(5)
	AlreadyExists      = Code(6)
	PermissionDenied   = Code(7)
	FailedPrecondition = Code(9)
	Aborted            = Code(10)
	Internal           = Code(13)
	Unavailable        = Code(14)
	DataLoss           = Code(15)
	Unauthenticated    = Code(16)
)

var codeNames = map[Code]string{
	OK:                 "ok",
	Canceled:           "canceled",
	Unknown:            "unknown",
	InvalidArgument:    "invalid_argument",
	DeadlineExceeded:   "deadline_exceeded",
	NotFound:           "not_found",
	AlreadyExists:      "already_exists",
	PermissionDenied:   "permission_denied",
	FailedPrecondition: "failed_precondition",
	Aborted:            "aborted",
	Internal:           "internal",
	Unavailable:        "unavailable",
	DataLoss:           "data_loss",
	Unauthenticated:    "unauthenticated",
}

func (c Code) String() string {
	name, ok := codeNames[c]
	if !ok {
		return "unknown"
	}
	return name
}

// SlogLevel maps an error code to the severity it should be logged at.
// Caller mistakes (bad queries, unknown statuses, missing items) are
// expected traffic and stay at info; infrastructure failures are errors.
func (c Code) SlogLevel() slog.Level {
	switch c {
	case OK, Canceled:
		return slog.LevelInfo
	case InvalidArgument, NotFound, AlreadyExists, FailedPrecondition, Aborted, Unauthenticated, PermissionDenied:
		return slog.LevelInfo
	case DeadlineExceeded, DataLoss:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

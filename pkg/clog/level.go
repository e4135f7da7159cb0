package clog

import (
	"connectrpc.com/connect"
)

type Level int

const (
	LevelDebug Level = iota + 1
	LevelInfo
	LevelWarn
	LevelError
)

func HTTPStatusToLevel(status int) Level {
	switch {
	case status >= 100 && status < 400:
		return LevelInfo
	case status == 499:
		return LevelInfo
	case status >= 400 && status < 500:
		return LevelWarn
	case status >= 500:
		return LevelError
	default:
		return LevelError
	}
}

// serverFaultCodes are the codes that point at a problem on our side.
var serverFaultCodes = map[connect.Code]bool{
	connect.CodeUnknown:           true,
	connect.CodeResourceExhausted: true,
	connect.CodeUnimplemented:     true,
	connect.CodeInternal:          true,
	connect.CodeUnavailable:       true,
	connect.CodeDataLoss:          true,
}

func ConnectCodeToLevel(code connect.Code) Level {
	if code == 0 {
		return LevelInfo
	}
	if serverFaultCodes[code] {
		return LevelError
	}
	if code < connect.CodeCanceled || code > connect.CodeUnauthenticated {
		return LevelError
	}
	return LevelInfo
}

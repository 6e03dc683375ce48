package helper

import (
	"fmt"

	"github.com/apiprobe/apiprobe/common/ctxkey"
	"github.com/apiprobe/apiprobe/common/random"
)

const RequestIdKey = ctxkey.RequestId

func GenRequestID() string {
	return GetTimeString() + random.GetRandomString(8)
}

// MessageWithRequestId appends the request id so users can quote it when reporting problems.
func MessageWithRequestId(message string, id string) string {
	if id == "" {
		return message
	}
	return fmt.Sprintf("%s (request id: %s)", message, id)
}

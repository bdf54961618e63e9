package shm

import (
	"github.com/msgpack-rpc/msgpackrpc-go/status"
)

func errRegionMismatch(name string) error {
	return status.Newf(status.InvalidMessage, "shm: region %q has no valid header (wrong name or stale file)", name)
}

func errOperationFailure(op string, err error) error {
	return status.Newf(status.OperationFailure, "shm: %s: %v", op, err)
}

func errClosed() error {
	return status.New(status.OperationAborted, "shm: connection closed")
}

func errRegionTooSmall(path string, want, have int) error {
	return status.Newf(status.OperationFailure, "shm: region %s too small: have %d want %d", path, have, want)
}

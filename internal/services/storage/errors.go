package storage

import (
	"errors"
	"fmt"

	"github.com/aws/smithy-go"
)

// OpError describes a failed store call with its bucket/key context.
type OpError struct {
	Op     string
	Bucket string
	Key    string
	// Code is the service error code when the store returned one.
	Code string
	Err  error
}

func (e *OpError) Error() string {
	target := e.Bucket
	if e.Key != "" {
		target = e.Bucket + "/" + e.Key
	}
	if e.Code != "" {
		return fmt.Sprintf("%s %s: %s: %v", e.Op, target, e.Code, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, target, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

func newOpError(op, bucket, key string, err error) *OpError {
	opErr := &OpError{Op: op, Bucket: bucket, Key: key, Err: err}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		opErr.Code = apiErr.ErrorCode()
	}
	return opErr
}

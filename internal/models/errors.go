package models

import (
	"errors"
	"fmt"
)

// Stage names the step of the item pipeline where a failure happened.
type Stage string

const (
	StageNone      Stage = ""
	StageScan      Stage = "scan"
	StageDecode    Stage = "decode"
	StageEncode    Stage = "encode"
	StageRead      Stage = "read-for-upload"
	StageUpload    Stage = "network-upload"
	StageCancelled Stage = "cancelled"
)

// StageError is a per-item failure. Err is the underlying cause and is
// always preserved for errors.Is / errors.As.
type StageError struct {
	Stage Stage
	Path  string
	Err   error
}

func NewStageError(stage Stage, path string, err error) *StageError {
	return &StageError{Stage: stage, Path: path, Err: err}
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Stage, e.Path, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// StageOf returns the stage recorded in err, or StageNone when err carries
// no StageError.
func StageOf(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return StageNone
}

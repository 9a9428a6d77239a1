package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for the two conditions that abort a run and are recorded
// against the video.
var (
	ErrDecode             = errors.New("video could not be decoded")
	ErrInsufficientFrames = errors.New("insufficient usable frames")
)

// ErrEstimatorUnavailable marks runs that could not reach the pose model.
// It says nothing about the video, so such runs are never recorded.
var ErrEstimatorUnavailable = errors.New("pose estimator unavailable")

// DecodeError reports that the video could not be opened or its duration
// could not be determined. It matches both ErrDecode and the cause.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() []error { return []error{ErrDecode, e.Err} }

// InsufficientFramesError reports that too few frames yielded a pose.
type InsufficientFramesError struct {
	Poses    int
	Required int
}

func (e *InsufficientFramesError) Error() string {
	return fmt.Sprintf("%v: %d poses detected, %d required", ErrInsufficientFrames, e.Poses, e.Required)
}

func (e *InsufficientFramesError) Unwrap() error { return ErrInsufficientFrames }

// EstimatorError reports that the pose model could not be started or failed
// on every frame. It matches ErrEstimatorUnavailable and the cause.
type EstimatorError struct {
	Err error
}

func (e *EstimatorError) Error() string {
	return fmt.Sprintf("%v: %v", ErrEstimatorUnavailable, e.Err)
}

func (e *EstimatorError) Unwrap() []error { return []error{ErrEstimatorUnavailable, e.Err} }

// TimeoutError reports that a run hit its hard time limit. It matches
// context.DeadlineExceeded.
type TimeoutError struct {
	Limit time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("analysis did not finish within %s", e.Limit)
}

func (e *TimeoutError) Unwrap() error { return context.DeadlineExceeded }

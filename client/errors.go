package client

import (
	"errors"

	"github.com/bitelog/bitelog/client/internal/analysis"
	"github.com/bitelog/bitelog/client/internal/imaging"
	"github.com/bitelog/bitelog/client/internal/lifecycle"
	"github.com/bitelog/bitelog/client/internal/localstate"
	"github.com/bitelog/bitelog/client/internal/shardqueue"
)

// ErrBackPressure is returned when the analysis queue for an entry is full.
var ErrBackPressure = shardqueue.ErrQueueFull

// IsBackPressure reports whether err is a back-pressure error.
func IsBackPressure(err error) bool { return errors.Is(err, ErrBackPressure) }

// ErrAnalysisNotConfigured is returned by Capture without a Gemini API key.
var ErrAnalysisNotConfigured = errors.New("analysis is not configured: set BITELOG_GEMINI_API_KEY")

// ErrClosed is returned after Close.
var ErrClosed = errors.New("client is closed")

// Re-exported so callers compare against a single symbol.
var (
	ErrNotFound         = lifecycle.ErrNotFound
	ErrNotEditable      = lifecycle.ErrNotEditable
	ErrCaptureCancelled = lifecycle.ErrCaptureCancelled
	ErrInvalidWeight    = lifecycle.ErrInvalidWeight
	ErrInvalidEdit      = lifecycle.ErrInvalidEdit
	ErrInvalidGoal      = lifecycle.ErrInvalidGoal
	ErrDecode           = imaging.ErrDecode
	ErrInference        = analysis.ErrInference
)

// ErrStateNotFound must be returned by a StateStore for an absent key.
var ErrStateNotFound = localstate.ErrNotFound

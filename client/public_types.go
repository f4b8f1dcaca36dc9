package client

import (
	"github.com/bitelog/bitelog/client/internal/analysis"
	"github.com/bitelog/bitelog/client/internal/entrystore"
	"github.com/bitelog/bitelog/client/internal/gateway"
	"github.com/bitelog/bitelog/client/internal/identity"
	"github.com/bitelog/bitelog/client/internal/imaging"
	"github.com/bitelog/bitelog/client/internal/lifecycle"
)

// Public aliases so SDK consumers can import only the client package.
type (
	Entry      = entrystore.Entry
	EntryState = entrystore.State
	Pending    = entrystore.Pending
	Ready      = entrystore.Ready
	Failed     = entrystore.Failed
	EntryClass = entrystore.Class

	AnalysisResult = analysis.Result
	FoodItem       = analysis.FoodItem
	Macros         = analysis.Macros

	Identity = identity.Identity
	Account  = gateway.Account

	WeightAnswer  = lifecycle.WeightAnswer
	EditRequest   = lifecycle.EditRequest
	DeleteRequest = lifecycle.DeleteRequest
	Summary       = lifecycle.Summary

	Phase        = lifecycle.Phase
	Transition   = lifecycle.Transition
	Observer     = lifecycle.Observer
	ObserverFunc = lifecycle.ObserverFunc
	Notifier     = lifecycle.Notifier
	NotifierFunc = lifecycle.NotifierFunc

	PersistenceError = lifecycle.PersistenceError
	InferenceError   = analysis.InferenceError
	DecodeError      = imaging.DecodeError
	LoginError       = identity.LoginError
)

const (
	ClassPending = entrystore.ClassPending
	ClassReady   = entrystore.ClassReady
	ClassFailed  = entrystore.ClassFailed
)

// Weight prompt answers.
var (
	NotAsked  = lifecycle.NotAsked
	Unknown   = lifecycle.Unknown
	Cancelled = lifecycle.Cancelled
)

// Declared is an exact weight in grams.
func Declared(grams float64) WeightAnswer { return lifecycle.Declared(grams) }

// StateStore is durable key-value storage for identity and snapshots. Get
// returns ErrStateNotFound for an absent key.
type StateStore interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

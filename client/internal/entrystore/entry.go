package entrystore

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/bitelog/bitelog/client/internal/analysis"
)

// State is exactly one of Pending, Ready or Failed.
type State interface {
	isState()
}

// Pending means the placeholder is stored and analysis has not finished.
type Pending struct{}

// Ready carries the analysis result.
type Ready struct {
	Analysis *analysis.Result
}

// Failed carries a user-facing reason.
type Failed struct {
	Reason string
}

func (Pending) isState() {}
func (Ready) isState()   {}
func (Failed) isState()  {}

// Class is how an entry is presented.
type Class string

const (
	ClassPending Class = "pending"
	ClassReady   Class = "ready"
	ClassFailed  Class = "failed"
)

// Entry is one food-log item as the client sees it.
type Entry struct {
	ID                 string
	Timestamp          int64
	ImageURL           *string
	UserProvidedWeight *float64
	State              State
}

// Analysis returns the result of a Ready entry, or nil.
func (e Entry) Analysis() *analysis.Result {
	if r, ok := e.State.(Ready); ok {
		return r.Analysis
	}
	return nil
}

// Class maps the state for rendering. A Ready result that is not food is
// presented like a failure.
func (e Entry) Class() Class {
	switch s := e.State.(type) {
	case Ready:
		if s.Analysis == nil || !s.Analysis.IsFood {
			return ClassFailed
		}
		return ClassReady
	case Failed:
		return ClassFailed
	default:
		return ClassPending
	}
}

// Time returns the capture time in loc.
func (e Entry) Time(loc *time.Location) time.Time {
	return time.UnixMilli(e.Timestamp).In(loc)
}

func (e Entry) clone() Entry {
	out := e
	if e.ImageURL != nil {
		v := *e.ImageURL
		out.ImageURL = &v
	}
	if e.UserProvidedWeight != nil {
		v := *e.UserProvidedWeight
		out.UserProvidedWeight = &v
	}
	if r, ok := e.State.(Ready); ok {
		out.State = Ready{Analysis: r.Analysis.Clone()}
	}
	return out
}

// snapshot is the persisted shape: loading and error flags instead of a
// state tag.
type snapshot struct {
	ID                 string           `json:"id"`
	Timestamp          int64            `json:"timestamp"`
	ImageURL           *string          `json:"imageUrl,omitempty"`
	Analysis           *analysis.Result `json:"analysis"`
	Loading            bool             `json:"loading"`
	Error              string           `json:"error,omitempty"`
	UserProvidedWeight *float64         `json:"userProvidedWeight"`
}

func (e Entry) MarshalJSON() ([]byte, error) {
	s := snapshot{
		ID:                 e.ID,
		Timestamp:          e.Timestamp,
		ImageURL:           e.ImageURL,
		UserProvidedWeight: e.UserProvidedWeight,
	}
	switch st := e.State.(type) {
	case Ready:
		s.Analysis = st.Analysis
	case Failed:
		s.Error = st.Reason
	default:
		s.Loading = true
	}
	return json.Marshal(s)
}

func (e *Entry) UnmarshalJSON(b []byte) error {
	var s snapshot
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s.ID == "" {
		return fmt.Errorf("entry without id")
	}
	*e = Entry{
		ID:                 s.ID,
		Timestamp:          s.Timestamp,
		ImageURL:           s.ImageURL,
		UserProvidedWeight: s.UserProvidedWeight,
	}
	switch {
	case s.Analysis != nil:
		e.State = Ready{Analysis: s.Analysis}
	case s.Error != "":
		e.State = Failed{Reason: s.Error}
	default:
		e.State = Pending{}
	}
	return nil
}

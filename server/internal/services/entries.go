package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bitelog/bitelog/server/internal/model"
	"github.com/bitelog/bitelog/server/internal/store"
)

// EntryService owns the diary rows. Every operation is scoped by the
// caller-supplied user ID.
type EntryService struct {
	store  store.Store
	images ImageSink
	loc    *time.Location
}

// NewEntryService wires the store with an image sink and the zone used when
// a list request carries a date without a zone.
func NewEntryService(s store.Store, images ImageSink, loc *time.Location) *EntryService {
	if images == nil {
		images = InlineImages{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &EntryService{store: s, images: images, loc: loc}
}

// Create persists a new entry. A data-URL image is handed to the image sink
// first; the returned reference is what gets stored.
func (s *EntryService) Create(ctx context.Context, e *model.FoodEntry) (*model.FoodEntry, error) {
	if e.ImageURL != nil && *e.ImageURL != "" {
		ref, err := s.images.Put(ctx, e.UserID, *e.ImageURL)
		if err != nil {
			return nil, fmt.Errorf("store image: %w", err)
		}
		e.ImageURL = &ref
	}
	return s.store.Entries().Create(ctx, e)
}

// List returns the user's entries newest first. With a date, only entries in
// that calendar day of tz (or the service default) are returned.
func (s *EntryService) List(ctx context.Context, userID, date, tz string) ([]*model.FoodEntry, error) {
	req := model.ListEntriesRequest{UserID: userID}
	if date != "" {
		loc := s.loc
		if tz != "" {
			l, err := model.ParseZone(tz)
			if err != nil {
				return nil, err
			}
			loc = l
		}
		from, to, err := model.DayBounds(date, loc)
		if err != nil {
			return nil, err
		}
		req.From, req.To = &from, &to
	}
	return s.store.Entries().List(ctx, req)
}

// UpdateAnalysis replaces analysis_data on an entry the user owns.
func (s *EntryService) UpdateAnalysis(ctx context.Context, userID, entryID string, analysis json.RawMessage) (*model.FoodEntry, error) {
	return s.store.Entries().UpdateAnalysis(ctx, userID, entryID, analysis)
}

// Delete removes an entry the user owns.
func (s *EntryService) Delete(ctx context.Context, userID, entryID string) error {
	return s.store.Entries().Delete(ctx, userID, entryID)
}

package localstate

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/bitelog/bitelog/client/internal/entrystore"
)

const (
	KeyEntries    = "snapcalorie_entries"
	KeyGoal       = "snapcalorie_goal"
	KeyUser       = "bite_user"
	KeyTempUserID = "bite_temp_user_id"

	DefaultGoal = 2200
)

// Store is the subset of KV the helpers need.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// SaveEntries writes the snapshot. Images of entries captured before the
// start of now's day are dropped to keep the snapshot small.
func SaveEntries(kv Store, entries []entrystore.Entry, now time.Time) error {
	cutoff := entrystore.StartOfDay(now).UnixMilli()
	out := make([]entrystore.Entry, len(entries))
	for i, e := range entries {
		if e.Timestamp < cutoff {
			e.ImageURL = nil
		}
		out[i] = e
	}
	b, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("encode entries: %w", err)
	}
	return kv.Set(KeyEntries, string(b))
}

// LoadEntries reads the snapshot. A missing key yields no entries.
func LoadEntries(kv Store) ([]entrystore.Entry, error) {
	raw, err := kv.Get(KeyEntries)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []entrystore.Entry
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decode entries: %w", err)
	}
	return out, nil
}

func SaveGoal(kv Store, goal int) error {
	return kv.Set(KeyGoal, strconv.Itoa(goal))
}

// LoadGoal returns the stored goal, or DefaultGoal when nothing usable is
// stored.
func LoadGoal(kv Store) (int, error) {
	raw, err := kv.Get(KeyGoal)
	if errors.Is(err, ErrNotFound) {
		return DefaultGoal, nil
	}
	if err != nil {
		return 0, err
	}
	goal, err := strconv.Atoi(raw)
	if err != nil || goal <= 0 {
		return DefaultGoal, nil
	}
	return goal, nil
}

package validate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
)

var emailRx = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// userIDRx accepts UUIDs and similar opaque tokens; anonymous clients mint
// their own identifiers so the shape is deliberately loose.
var userIDRx = regexp.MustCompile(`^[A-Za-z0-9_\-]{1,64}$`)

func Email(v string) error {
	if v == "" {
		return fmt.Errorf("email is required")
	}
	if len(v) > 255 || !emailRx.MatchString(v) {
		return fmt.Errorf("invalid email")
	}
	return nil
}

func NonEmpty(field, v string) error {
	if v == "" {
		return fmt.Errorf("%s is required", field)
	}
	return nil
}

func MaxLen(field, v string, limit int) error {
	if len(v) > limit {
		return fmt.Errorf("%s exceeds %d characters", field, limit)
	}
	return nil
}

func UserID(v string) error {
	if v == "" {
		return fmt.Errorf("user_id is required")
	}
	if !userIDRx.MatchString(v) {
		return fmt.Errorf("user_id must match %s", userIDRx.String())
	}
	return nil
}

// AnalysisData accepts an absent payload, JSON null, or a JSON object.
func AnalysisData(raw json.RawMessage) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &m); err != nil {
		return fmt.Errorf("analysis_data must be a JSON object")
	}
	return nil
}

// Weight accepts nil or a positive finite number of grams.
func Weight(v *float64) error {
	if v == nil {
		return nil
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) || *v <= 0 {
		return fmt.Errorf("user_provided_weight must be a positive number")
	}
	return nil
}

// CalorieGoal requires a positive whole number.
func CalorieGoal(v *float64) error {
	if v == nil {
		return fmt.Errorf("calorie_goal is required and must be a number")
	}
	if *v <= 0 || *v != math.Trunc(*v) || *v > 100000 {
		return fmt.Errorf("calorie_goal must be a positive whole number")
	}
	return nil
}

// -------- Request specific helpers ----------

// CreateEntry validates a placeholder or complete entry.
func CreateEntry(userID string, timestamp int64, imageURL *string, analysis json.RawMessage, weight *float64) error {
	if err := UserID(userID); err != nil {
		return err
	}
	if timestamp <= 0 {
		return fmt.Errorf("user_id and timestamp are required")
	}
	if imageURL != nil {
		// ~15 MB of base64; compressed captures are far below this.
		if err := MaxLen("image_url", *imageURL, 20<<20); err != nil {
			return err
		}
	}
	if err := AnalysisData(analysis); err != nil {
		return err
	}
	return Weight(weight)
}

func Login(email, name string) error {
	if email == "" || name == "" {
		return fmt.Errorf("email and name are required")
	}
	if err := Email(email); err != nil {
		return err
	}
	return MaxLen("name", name, 255)
}

// Package analysis asks the Gemini generateContent API for a nutrition
// estimate of a single photo.
package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultModel   = "gemini-2.5-flash"
	temperature    = 0.1
)

// ErrInference matches every *InferenceError.
var ErrInference = errors.New("analysis: inference failed")

// InferenceError wraps any failure of a single analysis attempt.
type InferenceError struct {
	StatusCode int
	Err        error
}

func (e *InferenceError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("analysis: HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("analysis: %v", e.Err)
}

func (e *InferenceError) Unwrap() error        { return e.Err }
func (e *InferenceError) Is(target error) bool { return target == ErrInference }

// Config selects the model endpoint.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// Client performs one generateContent call per Analyze. It never retries.
type Client struct {
	http  *resty.Client
	model string
}

// New builds a Client on top of hc. A nil hc gets a fresh http.Client.
func New(cfg Config, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	r := resty.NewWithClient(hc).
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetHeader("x-goog-api-key", cfg.APIKey).
		SetTimeout(cfg.Timeout)
	return &Client{http: r, model: cfg.Model}
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type part struct {
	InlineData *inlineData `json:"inlineData,omitempty"`
	Text       string      `json:"text,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents         []content `json:"contents"`
	GenerationConfig struct {
		ResponseMimeType string  `json:"responseMimeType"`
		ResponseSchema   schema  `json:"responseSchema"`
		Temperature      float64 `json:"temperature"`
	} `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

var dataURLPrefix = regexp.MustCompile(`^data:image/(png|jpg|jpeg|webp);base64,`)

// StripDataURL removes a data:image/...;base64, prefix if present.
func StripDataURL(encoded string) string {
	return dataURLPrefix.ReplaceAllString(encoded, "")
}

// Analyze sends the image and prompt and decodes the structured answer.
func (c *Client) Analyze(ctx context.Context, encodedImage string, declaredWeight *float64) (*Result, error) {
	var req generateRequest
	req.Contents = []content{{Parts: []part{
		{InlineData: &inlineData{MimeType: "image/jpeg", Data: StripDataURL(encodedImage)}},
		{Text: BuildPrompt(declaredWeight)},
	}}}
	req.GenerationConfig.ResponseMimeType = "application/json"
	req.GenerationConfig.ResponseSchema = responseSchema
	req.GenerationConfig.Temperature = temperature

	var out generateResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(&req).
		SetResult(&out).
		Post("/v1beta/models/" + c.model + ":generateContent")
	if err != nil {
		return nil, &InferenceError{Err: err}
	}
	if resp.IsError() {
		return nil, &InferenceError{StatusCode: resp.StatusCode(), Err: fmt.Errorf("%s", strings.TrimSpace(resp.String()))}
	}

	text := firstText(&out)
	if text == "" {
		return nil, &InferenceError{Err: errors.New("no response from model")}
	}
	res, err := ParseResult([]byte(text))
	if err != nil {
		return nil, &InferenceError{Err: err}
	}
	log.Debug().Bool("is_food", res.IsFood).Int("items", len(res.FoodItems)).Msg("analysis completed")
	return res, nil
}

func firstText(r *generateResponse) string {
	for _, c := range r.Candidates {
		for _, p := range c.Content.Parts {
			if strings.TrimSpace(p.Text) != "" {
				return p.Text
			}
		}
	}
	return ""
}

// ParseResult decodes model output, checks that every required field is
// present, and rejects negative macros or a confidence outside 0..1.
func ParseResult(text []byte) (*Result, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(text, &fields); err != nil {
		return nil, fmt.Errorf("malformed result: %w", err)
	}
	for _, k := range []string{"isFood", "summary", "foodItems", "totalMacros"} {
		if v, ok := fields[k]; !ok || string(v) == "null" {
			return nil, fmt.Errorf("result missing %s", k)
		}
	}
	var res Result
	if err := json.Unmarshal(text, &res); err != nil {
		return nil, fmt.Errorf("malformed result: %w", err)
	}
	if res.ConfidenceScore < 0 || res.ConfidenceScore > 1 {
		return nil, fmt.Errorf("confidenceScore %v outside 0..1", res.ConfidenceScore)
	}
	if err := res.TotalMacros.check("totalMacros"); err != nil {
		return nil, err
	}
	for i, item := range res.FoodItems {
		if err := item.Macros.check(fmt.Sprintf("foodItems[%d].macros", i)); err != nil {
			return nil, err
		}
	}
	return &res, nil
}

func (m Macros) check(field string) error {
	if m.Calories < 0 || m.Protein < 0 || m.Carbs < 0 || m.Fat < 0 {
		return fmt.Errorf("%s has a negative value", field)
	}
	return nil
}

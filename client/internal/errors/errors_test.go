package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestFromHTTPStatus(t *testing.T) {
	cases := []struct {
		status int
		want   Category
	}{
		{0, Recoverable},
		{400, Irrecoverable},
		{404, Irrecoverable},
		{408, Recoverable},
		{429, Recoverable},
		{500, Recoverable},
		{503, Recoverable},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprint(tc.status), func(t *testing.T) {
			got := FromHTTPStatus("update entry", tc.status, "boom")
			if got.Category != tc.want {
				t.Fatalf("status %d: got %s want %s", tc.status, got.Category, tc.want)
			}
		})
	}
}

func TestIrrecoverableWrapsAndUnwraps(t *testing.T) {
	base := stderrors.New("analysis failed")
	err := fmt.Errorf("job: %w", MarkIrrecoverable(base))
	if !IsIrrecoverable(err) {
		t.Fatal("expected wrapped irrecoverable error to be detected")
	}
	if !stderrors.Is(err, base) {
		t.Fatal("expected chain to reach the base error")
	}
	if IsIrrecoverable(base) {
		t.Fatal("plain error must not be irrecoverable")
	}
	if MarkIrrecoverable(nil) != nil {
		t.Fatal("nil must stay nil")
	}
}

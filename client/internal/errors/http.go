package errors

import "fmt"

// FromHTTPStatus classifies a failed response: 408 and 429 can be retried,
// other 4xx cannot, 5xx and anything unexpected can. Status 0 means the
// request never got a response.
func FromHTTPStatus(op string, statusCode int, msg string) *ClassifiedError {
	if statusCode == 0 {
		return &ClassifiedError{Category: Recoverable, Underlying: fmt.Errorf("%s: %s", op, msg)}
	}
	return &ClassifiedError{
		Category:   categoryFor(statusCode),
		StatusCode: statusCode,
		Underlying: fmt.Errorf("%s: %s", op, msg),
	}
}

func categoryFor(statusCode int) Category {
	switch {
	case statusCode == 408, statusCode == 429:
		return Recoverable
	case statusCode >= 400 && statusCode < 500:
		return Irrecoverable
	default:
		return Recoverable
	}
}

package domain

// Example is one corpus record used to ground a diagnostic prompt.
type Example struct {
	Language     Language `json:"lang"`
	ErrorContext string   `json:"error_context"`
	Fix          string   `json:"fix"`
	Code         string   `json:"code,omitempty"`
}

// Solution is the known-good fix, older corpus rows only carry code.
func (e Example) Solution() string {
	if e.Fix != "" {
		return e.Fix
	}
	return e.Code
}

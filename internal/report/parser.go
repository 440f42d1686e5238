package report

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Report is the parsed narrative findings report.
type Report struct {
	Summary         string    `json:"summary"`
	Findings        []Finding `json:"findings"`
	Recommendations []string  `json:"recommendations"`
	Model           string    `json:"model,omitempty"`
}

type Finding struct {
	Severity string `json:"severity"`
	Title    string `json:"title"`
	Detail   string `json:"detail"`
}

type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Errors, "; "))
}

var validSeverities = map[string]bool{"info": true, "warning": true, "critical": true}

func ParseReport(responseBody string) (*Report, error) {
	cleaned := stripCodeFences(responseBody)

	var rep Report
	if err := json.Unmarshal([]byte(cleaned), &rep); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	if err := validateReport(&rep); err != nil {
		return nil, err
	}

	return &rep, nil
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimSpace(s)
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSpace(s)
	}
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSuffix(s, "```")
		s = strings.TrimSpace(s)
	}
	return s
}

func validateReport(rep *Report) error {
	var errs []string

	if strings.TrimSpace(rep.Summary) == "" {
		errs = append(errs, "summary is empty")
	}
	for i, f := range rep.Findings {
		if !validSeverities[f.Severity] {
			errs = append(errs, fmt.Sprintf("finding %d: invalid severity %q", i+1, f.Severity))
		}
		if strings.TrimSpace(f.Title) == "" {
			errs = append(errs, fmt.Sprintf("finding %d: title is empty", i+1))
		}
		if strings.TrimSpace(f.Detail) == "" {
			errs = append(errs, fmt.Sprintf("finding %d: detail is empty", i+1))
		}
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

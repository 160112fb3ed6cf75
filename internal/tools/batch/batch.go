package batch

import (
	"context"
	"encoding/json"
	"fmt"
)

// Result is the outcome of one item in a batch.
type Result struct {
	ID     string `json:"id"`
	Status string `json:"status"` // "success" or "error"
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Summary aggregates a whole batch.
type Summary struct {
	Total      int      `json:"total"`
	Successful int      `json:"successful"`
	Failed     int      `json:"failed"`
	Results    []Result `json:"results"`
}

// ParseIDs accepts a tool argument that is either a single string or an
// array of strings and returns the list of IDs.
func ParseIDs(param interface{}, paramName string) ([]string, error) {
	if param == nil {
		return nil, fmt.Errorf("%s is required", paramName)
	}

	switch v := param.(type) {
	case string:
		if v == "" {
			return nil, fmt.Errorf("%s cannot be empty", paramName)
		}
		return []string{v}, nil
	case []interface{}:
		if len(v) == 0 {
			return nil, fmt.Errorf("%s cannot be empty", paramName)
		}
		ids := make([]string, 0, len(v))
		for i, item := range v {
			str, ok := item.(string)
			if !ok || str == "" {
				return nil, fmt.Errorf("%s[%d] must be a non-empty string", paramName, i)
			}
			ids = append(ids, str)
		}
		return ids, nil
	default:
		return nil, fmt.Errorf("%s must be a string or array of strings", paramName)
	}
}

// Run applies fn to every ID in order, continuing past failures, and
// returns the aggregated summary.
func Run(ctx context.Context, ids []string, fn func(ctx context.Context, id string) (string, error)) Summary {
	summary := Summary{
		Total:   len(ids),
		Results: make([]Result, 0, len(ids)),
	}

	for _, id := range ids {
		result := Result{ID: id}
		msg, err := fn(ctx, id)
		if err != nil {
			result.Status = "error"
			result.Error = err.Error()
			summary.Failed++
		} else {
			result.Status = "success"
			result.Result = msg
			summary.Successful++
		}
		summary.Results = append(summary.Results, result)
	}

	return summary
}

// Format renders a summary as indented JSON for a tool result.
func (s Summary) Format() string {
	jsonBytes, _ := json.MarshalIndent(s, "", "  ")
	return string(jsonBytes)
}

package batch

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestParseIDsSingleString(t *testing.T) {
	ids, err := ParseIDs("task-1", "taskIds")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 1 || ids[0] != "task-1" {
		t.Errorf("expected [task-1], got %v", ids)
	}
}

func TestParseIDsArray(t *testing.T) {
	ids, err := ParseIDs([]interface{}{"a", "b", "c"}, "taskIds")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 3 || ids[2] != "c" {
		t.Errorf("expected [a b c], got %v", ids)
	}
}

func TestParseIDsRejectsBadInput(t *testing.T) {
	cases := []struct {
		name  string
		param interface{}
	}{
		{"nil", nil},
		{"empty string", ""},
		{"empty array", []interface{}{}},
		{"non-string element", []interface{}{"a", 42}},
		{"empty element", []interface{}{"a", ""}},
		{"number", 7},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseIDs(tc.param, "taskIds"); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestRunContinuesPastFailures(t *testing.T) {
	summary := Run(context.Background(), []string{"ok-1", "bad", "ok-2"}, func(ctx context.Context, id string) (string, error) {
		if id == "bad" {
			return "", errors.New("boom")
		}
		return "done " + id, nil
	})

	if summary.Total != 3 || summary.Successful != 2 || summary.Failed != 1 {
		t.Errorf("unexpected counts: %+v", summary)
	}
	if summary.Results[1].Status != "error" || summary.Results[1].Error != "boom" {
		t.Errorf("middle failure not recorded: %+v", summary.Results[1])
	}
	if summary.Results[2].Result != "done ok-2" {
		t.Errorf("batch stopped early: %+v", summary.Results[2])
	}
}

func TestFormatIncludesCounts(t *testing.T) {
	summary := Run(context.Background(), []string{"a"}, func(ctx context.Context, id string) (string, error) {
		return "ok", nil
	})
	out := summary.Format()
	if !strings.Contains(out, `"total": 1`) || !strings.Contains(out, `"successful": 1`) {
		t.Errorf("formatted output missing counts: %s", out)
	}
}

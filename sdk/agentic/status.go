package agentic

import (
	"encoding/json"

	"github.com/tidwall/gjson"
)

// StatusResult is the decoded response of the find-run-status endpoint. The
// platform nests most of the interesting data under loosely documented keys,
// so the full body is kept and individual fields are extracted on demand.
type StatusResult struct {
	RunID  string
	Status string
	Raw    []byte
}

func newStatusResult(runID string, body []byte) *StatusResult {
	status := gjson.GetBytes(body, "status").String()
	if status == "" {
		status = gjson.GetBytes(body, "run.status").String()
	}
	return &StatusResult{
		RunID:  runID,
		Status: status,
		Raw:    body,
	}
}

// Response returns the legacy top-level response text, if present.
func (s *StatusResult) Response() string {
	return gjson.GetBytes(s.Raw, "response").String()
}

// ErrorMessage returns the error message of a failed run, or "".
func (s *StatusResult) ErrorMessage() string {
	return gjson.GetBytes(s.Raw, "error.message").String()
}

// HasRunOutput reports whether the response carries the nested
// run.kwargs block where completed output lives.
func (s *StatusResult) HasRunOutput() bool {
	return gjson.GetBytes(s.Raw, "run.kwargs").Exists()
}

// RunOutput extracts the output array from the nested run.kwargs block.
// A missing or empty array yields a nil slice and no error; items that do
// not decode as output items are an error.
func (s *StatusResult) RunOutput() ([]OutputItem, error) {
	value := gjson.GetBytes(s.Raw, "run.kwargs.output")
	if !value.Exists() || value.Raw == "" {
		return nil, nil
	}

	var items []OutputItem
	if err := json.Unmarshal([]byte(value.Raw), &items); err != nil {
		return nil, wrapError(KindResponse, err, "decode run output")
	}
	return items, nil
}

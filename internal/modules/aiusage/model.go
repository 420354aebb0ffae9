package aiusage

import "errors"

// ErrInsufficientCalls is returned when a session has no LLM calls left for the current day.
var ErrInsufficientCalls = errors.New("insufficient llm calls")

// DefaultDailyCalls is the number of LLM calls granted per session per day.
const DefaultDailyCalls = 60

const periodLayout = "2006-01-02"

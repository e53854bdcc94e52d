package wire

import (
	"bytes"
	"errors"
	"strings"

	json "github.com/goccy/go-json"
	"golang.org/x/text/encoding/unicode"
)

// LessonData is the graded-submission payload of a topic agent. All three
// members must be sent; zero values count as sent.
type LessonData struct {
	Concept    *string  `json:"concept" validate:"required"`
	Difficulty *float64 `json:"difficulty" validate:"required"`
	TimeSpent  *uint64  `json:"time_spent" validate:"required"`
}

// Request is one decoded invocation. Op is always set; presence of the
// other fields is checked per operation, which is why most are pointers.
type Request struct {
	Op         string      `json:"op"`
	AgentID    string      `json:"agent_id,omitempty"`
	Context    *string     `json:"context,omitempty"`
	Claim      *string     `json:"claim,omitempty" validate:"required"`
	Frequency  *float64    `json:"frequency,omitempty" validate:"required"`
	Amplitude  *float64    `json:"amplitude,omitempty" validate:"required"`
	Concept    *string     `json:"concept,omitempty" validate:"required"`
	Delta      *float64    `json:"delta,omitempty" validate:"required"`
	ClassID    *string     `json:"class_id,omitempty" validate:"required"`
	Content    *string     `json:"content,omitempty" validate:"required"`
	ChildID    *string     `json:"child_id,omitempty" validate:"required"`
	StudentID  *string     `json:"student_id,omitempty" validate:"required"`
	LessonData *LessonData `json:"lesson_data,omitempty" validate:"required"`
}

// ContextOr returns the request context, or fallback when none was sent.
func (r *Request) ContextOr(fallback string) string {
	if r.Context == nil {
		return fallback
	}
	return *r.Context
}

// discriminant reads op alone so absence can be told apart from "".
type discriminant struct {
	Op *string `json:"op"`
}

var errMissingOp = errors.New("missing op discriminant")

// Decode parses an inbound buffer. Invalid UTF-8 is replaced rather than
// rejected; only unparseable text or a missing op fails.
func Decode(buf []byte) (*Request, error) {
	text := lossyUTF8(buf)

	trimmed := bytes.TrimSpace(text)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, DecodeError(errors.New("input is not a JSON object"))
	}

	var tag discriminant
	if err := json.Unmarshal(trimmed, &tag); err != nil {
		return nil, DecodeError(err)
	}
	if tag.Op == nil {
		return nil, DecodeError(errMissingOp)
	}

	var req Request
	if err := json.Unmarshal(trimmed, &req); err != nil {
		return nil, DecodeError(err)
	}
	return &req, nil
}

func lossyUTF8(buf []byte) []byte {
	out, err := unicode.UTF8.NewDecoder().Bytes(buf)
	if err != nil {
		return []byte(strings.ToValidUTF8(string(buf), "\uFFFD"))
	}
	return out
}

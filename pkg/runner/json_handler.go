package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"
)

// JSONHandler implements the IOHandler interface for JSON-Lines communication.
// Each input line is a JSON string, an object with an "input" field, or plain text.
// Each reply is written as one Message object per line.
type JSONHandler struct {
	Reader  *bufio.Reader
	Writer  io.Writer
	Encoder *json.Encoder
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		Writer:  w,
		Encoder: json.NewEncoder(w),
	}
}

func (h *JSONHandler) Output(ctx context.Context, msg Message) error {
	return h.Encoder.Encode(msg)
}

type jsonInput struct {
	Input string `json:"input"`
}

func (h *JSONHandler) Input(ctx context.Context) (string, error) {
	text, err := h.Reader.ReadString('\n')
	if err != nil && (err != io.EOF || text == "") {
		return "", err
	}
	text = strings.TrimSpace(text)

	var val string
	var obj jsonInput
	switch {
	case json.Unmarshal([]byte(text), &val) == nil:
		text = val
	case strings.HasPrefix(text, "{") && json.Unmarshal([]byte(text), &obj) == nil:
		text = obj.Input
	}
	return SanitizeInput(strings.TrimSpace(text))
}

func (h *JSONHandler) SystemOutput(ctx context.Context, msg string) error {
	return h.Encoder.Encode(map[string]string{"system": msg})
}

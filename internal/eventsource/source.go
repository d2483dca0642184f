// Package eventsource reads account events from line-oriented input.
package eventsource

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Veraticus/account-history/internal/common"
	"github.com/Veraticus/account-history/internal/model"
)

const (
	fieldsPerLine = 3
	maxLineBytes  = 1024 * 1024
)

// Source parses "<date>,<customer>,<type>" lines. Fields are split on every
// comma; quotes carry no meaning. It stops at the first malformed line and
// every later call to Next returns the same error.
type Source struct {
	scanner *bufio.Scanner
	err     error
	line    int
}

// NewSource creates a source reading from r. Blank lines are skipped.
func NewSource(r io.Reader) *Source {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	return &Source{scanner: scanner}
}

// NewLineSource creates a source over already-split input lines.
func NewLineSource(lines []string) *Source {
	return NewSource(strings.NewReader(strings.Join(lines, "\n")))
}

// Line returns the input line number of the most recently read line.
func (s *Source) Line() int {
	return s.line
}

// Next returns the next event, or io.EOF at the end of input.
func (s *Source) Next(ctx context.Context) (model.Event, error) {
	if s.err != nil {
		return model.Event{}, s.err
	}
	if err := ctx.Err(); err != nil {
		return model.Event{}, err
	}

	for s.scanner.Scan() {
		s.line++
		text := strings.TrimSuffix(s.scanner.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}

		event, err := ParseLine(text)
		if err != nil {
			s.err = &common.LineError{Err: err, Line: s.line, Text: text}
			return model.Event{}, s.err
		}
		return event, nil
	}

	if err := s.scanner.Err(); err != nil {
		s.err = &common.LineError{
			Err:  fmt.Errorf("%w: %w", common.ErrMalformedLine, err),
			Line: s.line + 1,
		}
		return model.Event{}, s.err
	}

	s.err = io.EOF
	return model.Event{}, s.err
}

// ParseLine converts a single input line into an event.
func ParseLine(line string) (model.Event, error) {
	fields := strings.Split(line, ",")
	if len(fields) != fieldsPerLine {
		return model.Event{}, fmt.Errorf("%w: expected %d fields, got %d", common.ErrMalformedLine, fieldsPerLine, len(fields))
	}

	rawDate := strings.TrimSpace(fields[0])
	customerID := strings.TrimSpace(fields[1])
	eventType := model.EventType(strings.TrimSpace(fields[2]))

	date, err := time.Parse(model.DateLayout, rawDate)
	if err != nil {
		return model.Event{}, fmt.Errorf("%w: invalid date %q", common.ErrMalformedLine, rawDate)
	}

	if customerID == "" {
		return model.Event{}, fmt.Errorf("%w: missing customer identifier", common.ErrMalformedLine)
	}

	if !eventType.IsValid() {
		return model.Event{}, fmt.Errorf("%w: %q", common.ErrUnknownEventType, eventType)
	}

	return model.Event{Date: date, CustomerID: customerID, Type: eventType}, nil
}

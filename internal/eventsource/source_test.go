package eventsource

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/account-history/internal/common"
	"github.com/Veraticus/account-history/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, src *Source) ([]model.Event, error) {
	t.Helper()
	ctx := context.Background()

	var events []model.Event
	for {
		ev, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return events, nil
		}
		if err != nil {
			return events, err
		}
		events = append(events, ev)
	}
}

func TestSource_ReadsEvents(t *testing.T) {
	input := "2021-01-01,joe@signifyd.com,PURCHASE\n" +
		"\n" +
		"2021-02-01, fraudster@fraud.com , FRAUD_REPORT\n"

	events, err := drain(t, NewSource(strings.NewReader(input)))
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, model.Event{
		Date:       time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
		CustomerID: "joe@signifyd.com",
		Type:       model.EventPurchase,
	}, events[0])
	assert.Equal(t, "fraudster@fraud.com", events[1].CustomerID)
	assert.Equal(t, model.EventFraudReport, events[1].Type)
}

func TestSource_FailsFast(t *testing.T) {
	tests := []struct {
		wantErr  error
		name     string
		input    string
		wantLine int
		wantRead int
	}{
		{
			name:     "bad date",
			input:    "2021-01-01,a,PURCHASE\n2021-13-01,b,PURCHASE\n2021-01-03,c,PURCHASE\n",
			wantErr:  common.ErrMalformedLine,
			wantLine: 2,
			wantRead: 1,
		},
		{
			name:     "missing field",
			input:    "2021-01-01,a,PURCHASE\n2021-01-02,b\n",
			wantErr:  common.ErrMalformedLine,
			wantLine: 2,
			wantRead: 1,
		},
		{
			name:     "unknown event type",
			input:    "2021-01-01,a,REFUND\n",
			wantErr:  common.ErrUnknownEventType,
			wantLine: 1,
		},
		{
			name:     "empty customer",
			input:    "2021-01-01,,PURCHASE\n",
			wantErr:  common.ErrMalformedLine,
			wantLine: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := NewSource(strings.NewReader(tt.input))
			events, err := drain(t, src)

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Len(t, events, tt.wantRead)

			var lineErr *common.LineError
			require.ErrorAs(t, err, &lineErr)
			assert.Equal(t, tt.wantLine, lineErr.Line)

			assert.NotEmpty(t, lineErr.Text)

			// The source stays failed.
			_, again := src.Next(context.Background())
			assert.ErrorIs(t, again, tt.wantErr)
		})
	}
}

func TestSource_RespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLineSource([]string{"2021-01-01,a,PURCHASE"}).Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseLine(t *testing.T) {
	ev, err := ParseLine("2021-10-01,joe@signifyd.com,PURCHASE")
	require.NoError(t, err)
	assert.Equal(t, "2021-10-01,joe@signifyd.com,PURCHASE", ev.String())

	_, err = ParseLine("2021-10-01;joe@signifyd.com;PURCHASE")
	assert.ErrorIs(t, err, common.ErrMalformedLine)
}

func TestSource_OpaqueIdentifiers(t *testing.T) {
	input := "2021-01-01,o\"brien@x.com,PURCHASE\r\n" +
		"2021-01-02,'single'@x.com,FRAUD_REPORT\n"

	events, err := drain(t, NewSource(strings.NewReader(input)))
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, `o"brien@x.com`, events[0].CustomerID)
	assert.Equal(t, model.EventPurchase, events[0].Type)
	assert.Equal(t, "'single'@x.com", events[1].CustomerID)
}

func TestSource_QuotesDoNotProtectCommas(t *testing.T) {
	line := `2021-01-01,"a,b",PURCHASE`
	src := NewSource(strings.NewReader("2021-01-01,ok,PURCHASE\n" + line + "\n"))

	events, err := drain(t, src)
	require.ErrorIs(t, err, common.ErrMalformedLine)
	assert.Len(t, events, 1)

	var lineErr *common.LineError
	require.ErrorAs(t, err, &lineErr)
	assert.Equal(t, 2, lineErr.Line)
	assert.Equal(t, line, lineErr.Text)
	assert.Contains(t, err.Error(), `line 2 "2021-01-01,\"a,b\",PURCHASE"`)
}

func TestSource_LineNumbersCountBlankLines(t *testing.T) {
	src := NewSource(strings.NewReader("\n2021-01-01,a,PURCHASE\n\n\n2021-01-02,b,PURCHASE\n"))
	ctx := context.Background()

	_, err := src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, src.Line())

	_, err = src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, src.Line())

	_, err = src.Next(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewInterruptHandler(t *testing.T) {
	tests := []struct {
		writer io.Writer
		name   string
	}{
		{name: "with custom writer", writer: &bytes.Buffer{}},
		{name: "with nil writer", writer: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewInterruptHandler(tt.writer)
			assert.NotNil(t, handler)
			assert.NotNil(t, handler.writer)
			assert.False(t, handler.WasInterrupted())
		})
	}
}

func TestInterruptCancelsContext(t *testing.T) {
	var output bytes.Buffer
	handler := NewInterruptHandler(&output)

	ctx := handler.HandleInterrupts(context.Background(), true)

	select {
	case <-ctx.Done():
		t.Fatal("context should not be canceled initially")
	default:
	}

	handler.interrupt()
	handler.interrupt()

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context was not canceled")
	}

	assert.True(t, handler.WasInterrupted())
	assert.Equal(t, 1, strings.Count(output.String(), "Categorization interrupted!"))
}

func TestShowInterruptMessage(t *testing.T) {
	tests := []struct {
		name        string
		expected    []string
		notExpected []string
		applying    bool
	}{
		{
			name:     "while applying",
			applying: true,
			expected: []string{"Categorization interrupted!", "already applied are kept", "--strategy skip_existing"},
		},
		{
			name:        "dry run",
			expected:    []string{"Categorization interrupted!"},
			notExpected: []string{"already applied"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var output bytes.Buffer
			handler := &InterruptHandler{writer: &output, applying: tt.applying}

			handler.showInterruptMessage()

			for _, want := range tt.expected {
				assert.Contains(t, output.String(), want)
			}
			for _, unwanted := range tt.notExpected {
				assert.NotContains(t, output.String(), unwanted)
			}
		})
	}
}

func TestStopCancelsWithoutInterrupt(t *testing.T) {
	var buf bytes.Buffer
	h := NewInterruptHandler(&buf)
	ctx := h.HandleInterrupts(context.Background(), false)

	h.Stop()

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context was not canceled")
	}
	assert.False(t, h.WasInterrupted())
	assert.Empty(t, buf.String())
}

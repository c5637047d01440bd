// Code generated manually for testing. DO NOT EDIT.

package mocks

import (
	"context"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/mock"
)

// MessageWriter is a mock implementation of blockwatch.MessageWriter
type MessageWriter struct {
	mock.Mock
}

func (m *MessageWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *MessageWriter) Close() error {
	args := m.Called()
	return args.Error(0)
}

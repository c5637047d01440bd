// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package blockwatch

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	luxlog "github.com/luxfi/log"
	"github.com/segmentio/kafka-go"
)

// MessageWriter is the part of *kafka.Writer the sink uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publishes each event as JSON, keyed by chain name so that one
// chain's blocks stay ordered within a partition.
type KafkaSink struct {
	mu     sync.Mutex
	writer MessageWriter
	log    luxlog.Logger
}

func NewKafkaSink(broker, topic string, log luxlog.Logger) *KafkaSink {
	return NewKafkaSinkWithWriter(&kafka.Writer{
		Addr:     kafka.TCP(broker),
		Topic:    topic,
		Balancer: &kafka.Hash{},
	}, log)
}

func NewKafkaSinkWithWriter(w MessageWriter, log luxlog.Logger) *KafkaSink {
	if log == nil {
		log = luxlog.NewNoOpLogger()
	}
	return &KafkaSink{writer: w, log: log}
}

func (k *KafkaSink) Write(ctx context.Context, e Event) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.writer == nil {
		return ErrSinkClosed
	}

	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal block event: %w", err)
	}
	if err := k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.Chain),
		Value: value,
	}); err != nil {
		return fmt.Errorf("failed to write block event to kafka: %w", err)
	}
	k.log.Debug("published block", "chain", e.Chain, "height", e.Height)
	return nil
}

func (k *KafkaSink) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.writer == nil {
		return nil
	}
	err := k.writer.Close()
	k.writer = nil
	return err
}

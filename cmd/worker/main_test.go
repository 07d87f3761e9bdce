package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/generator"
)

type processorFunc func(ctx context.Context, body []byte) error

func (f processorFunc) Process(ctx context.Context, body []byte) error {
	return f(ctx, body)
}

type recordingAcknowledger struct {
	acked   bool
	nacked  bool
	requeue bool
}

func (a *recordingAcknowledger) Ack(tag uint64, multiple bool) error {
	a.acked = true
	return nil
}

func (a *recordingAcknowledger) Nack(tag uint64, multiple bool, requeue bool) error {
	a.nacked = true
	a.requeue = requeue
	return nil
}

func (a *recordingAcknowledger) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

func TestHandleDelivery(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name        string
		err         error
		wantAck     bool
		wantNack    bool
		wantRequeue bool
	}{
		{"processed", nil, true, false, false},
		{"malformed message dropped", fmt.Errorf("%w: unexpected end of JSON input", generator.ErrMalformedJob), false, true, false},
		{"infrastructure error requeued", errors.New("dial tcp: connection refused"), false, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ack := &recordingAcknowledger{}
			msg := amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, Body: []byte(`{}`)}

			p := processorFunc(func(ctx context.Context, body []byte) error {
				assert.Equal(t, []byte(`{}`), body)
				return tt.err
			})

			handleDelivery(context.Background(), logger, p, msg)

			assert.Equal(t, tt.wantAck, ack.acked)
			assert.Equal(t, tt.wantNack, ack.nacked)
			assert.Equal(t, tt.wantRequeue, ack.requeue)
		})
	}
}

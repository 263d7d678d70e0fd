package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// StartRedemptionConsumer connects to RabbitMQ, declares the durable
// claim.redeemed queue and consumes it, appending one line per pickup
// to logs/redemption.log.  It runs a reconnect loop with exponential
// backoff until ctx is canceled; processing errors are logged and the
// offending message is rejected without requeue so the consumer never
// spins on a poison message.
func StartRedemptionConsumer(ctx context.Context) {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return
		}
		conn, err := amqp.Dial(brokerURL())
		if err != nil {
			log.Printf("redemption-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeLoop(ctx, conn); err != nil && ctx.Err() == nil {
			log.Printf("redemption-consumer: consume loop ended: %v; reconnecting", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(2 * time.Second):
			}
		}
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	// Closing the connection on cancellation closes the deliveries
	// channel below, which unblocks the range loop.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("redemption-consumer: set QoS failed: %v", err)
	}

	if _, err := ch.QueueDeclare(redeemedQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(redeemedQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := handleMessage(d.Body); err != nil {
			log.Printf("redemption-consumer: handle message failed: %v", err)
			_ = d.Nack(false, false) // reject, do not requeue
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func handleMessage(body []byte) error {
	var ev ClaimRedeemedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if err := os.MkdirAll("logs", 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	fpath := filepath.Join("logs", "redemption.log")
	f, err := os.OpenFile(fpath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("[%s] Claim redeemed | claim_id=%d | listing_id=%d | student_id=%d | quantity=%d\n",
		ev.RedeemedAt, ev.ClaimID, ev.ListingID, ev.StudentID, ev.Quantity)

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

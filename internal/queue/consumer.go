package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// SeatingLogFile is the file the consumer appends to inside its log directory.
const SeatingLogFile = "seating.log"

// Consumer drains the seating queue into a line-oriented log file.
type Consumer struct {
	url    string
	queue  string
	logDir string
	log    *zap.Logger
}

// NewConsumer returns a consumer for the given broker URL and queue that
// writes to logDir/seating.log.
func NewConsumer(url, queue, logDir string, log *zap.Logger) *Consumer {
	if log == nil {
		log = zap.NewNop()
	}
	if logDir == "" {
		logDir = "logs"
	}
	return &Consumer{url: url, queue: queue, logDir: logDir, log: log}
}

// Run connects to RabbitMQ, declares the queue and consumes until ctx is
// cancelled.  Lost connections are re-dialled with exponential backoff
// capped at 30s.  A message that cannot be handled is rejected without
// requeue so a bad payload cannot spin the loop.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.Warn("seating consumer: dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn("seating consumer: loop ended, reconnecting", zap.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.log.Warn("seating consumer: set QoS failed", zap.Error(err))
	}
	if _, err := ch.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.handleMessage(d.Body); err != nil {
				c.log.Error("seating consumer: handle message failed", zap.Error(err))
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *Consumer) handleMessage(body []byte) error {
	var ev SeatingAssignedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if err := os.MkdirAll(c.logDir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", c.logDir, err)
	}
	f, err := os.OpenFile(filepath.Join(c.logDir, SeatingLogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(FormatLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatLine renders ev as one human-friendly log line ending in a newline.
// Table counts are listed in ascending table id order.
func FormatLine(ev SeatingAssignedEvent) string {
	mode := "reset"
	if ev.KeepExisting {
		mode = "keep_existing"
	}
	ids := make([]string, 0, len(ev.TableCounts))
	for id := range ev.TableCounts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if len(ids[i]) != len(ids[j]) {
			return len(ids[i]) < len(ids[j])
		}
		return ids[i] < ids[j]
	})
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf("%s:%d", id, ev.TableCounts[id]))
	}
	return fmt.Sprintf("[%s] Seating assigned | run_id=%s | event_id=%d | mode=%s | status=%s | assigned=%d | unassigned=%d | tables=[%s]\n",
		ev.FinishedAt, ev.RunID, ev.EventID, mode, ev.Status, ev.Assigned, ev.Unassigned, strings.Join(parts, ","))
}

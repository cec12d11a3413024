package redis

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
	"langquiz-service/internal/app"
	"langquiz-service/internal/logger"
)

const progressChannelPrefix = "progress:learner:"

// ProgressRelay fans progress updates out across service instances.
// Publish sends each update to a per-learner Redis channel; Run forwards
// every update seen on those channels into the local hub, so a learner's
// websocket receives results no matter which instance scored the attempt.
type ProgressRelay struct {
	client *redis.Client
	hub    *app.ProgressHub
	log    *logger.Logger
}

func NewProgressRelay(client *redis.Client, hub *app.ProgressHub, log *logger.Logger) *ProgressRelay {
	if log == nil {
		log = logger.Nop()
	}
	return &ProgressRelay{client: client, hub: hub, log: log}
}

// Publish implements app.ProgressPublisher. Delivery is best effort.
func (r *ProgressRelay) Publish(learnerID int64, update app.ProgressUpdate) {
	payload, err := json.Marshal(update)
	if err != nil {
		r.log.Error("encode progress update", "learner_id", learnerID, "error", err)
		return
	}
	if err := r.client.Publish(context.Background(), channelFor(learnerID), payload).Err(); err != nil {
		r.log.Warn("progress relay publish failed, delivering locally", "learner_id", learnerID, "error", err)
		r.hub.Publish(learnerID, update)
	}
}

// Run subscribes to all learner channels until ctx is cancelled. ready is
// closed once the subscription settles; a failure is sent on done first.
func (r *ProgressRelay) Run(ctx context.Context) (<-chan struct{}, <-chan error) {
	ready := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		defer close(done)
		sub := r.client.PSubscribe(ctx, progressChannelPrefix+"*")
		defer sub.Close()

		if _, err := sub.Receive(ctx); err != nil {
			done <- err
			close(ready)
			return
		}
		close(ready)

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				r.forward(msg)
			}
		}
	}()
	return ready, done
}

func (r *ProgressRelay) forward(msg *redis.Message) {
	learnerID, err := strconv.ParseInt(strings.TrimPrefix(msg.Channel, progressChannelPrefix), 10, 64)
	if err != nil {
		r.log.Warn("progress relay: unexpected channel", "channel", msg.Channel)
		return
	}
	var update app.ProgressUpdate
	if err := json.Unmarshal([]byte(msg.Payload), &update); err != nil {
		r.log.Warn("progress relay: bad payload", "learner_id", learnerID, "error", err)
		return
	}
	r.hub.Publish(learnerID, update)
}

func channelFor(learnerID int64) string {
	return progressChannelPrefix + strconv.FormatInt(learnerID, 10)
}

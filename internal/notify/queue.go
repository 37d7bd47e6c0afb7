package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"smart-task-list/internal/models"
	"smart-task-list/internal/worker"
)

// QueueNotifier defers display to the background worker.
type QueueNotifier struct {
	queue *worker.JobQueue
}

func NewQueueNotifier(queue *worker.JobQueue) *QueueNotifier {
	return &QueueNotifier{queue: queue}
}

func (q *QueueNotifier) Show(ctx context.Context, n models.Notification) error {
	return q.queue.Enqueue(ctx, worker.QueueNotifications, worker.JobTypeShowNotification, n)
}

// DisplayHandler is the worker handler that shows queued notifications.
func DisplayHandler(center *Center) worker.JobHandler {
	return func(ctx context.Context, job *worker.Job) error {
		var n models.Notification
		if err := json.Unmarshal(job.Payload, &n); err != nil {
			return fmt.Errorf("invalid notification payload: %w", err)
		}
		return center.Show(ctx, n)
	}
}

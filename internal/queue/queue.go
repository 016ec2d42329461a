package queue

import (
	"context"
	"encoding/json"
	"log"

	"socialflow/internal/publish"

	"github.com/hibiken/asynq"
)

const TaskTypeBulkPublish = "publish:bulk"

type BulkPublishPayload struct {
	PostID string `json:"post_id"`
}

// Client wraps the asynq client as the publish service's Enqueuer.
type Client struct {
	asynq *asynq.Client
}

func NewClient(asynqClient *asynq.Client) *Client {
	return &Client{asynq: asynqClient}
}

func (c *Client) EnqueueBulkPublish(postID string) error {
	payload, err := json.Marshal(BulkPublishPayload{PostID: postID})
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypeBulkPublish, payload)
	if _, err := c.asynq.Enqueue(task); err != nil {
		return err
	}

	log.Printf("Bulk publish task queued for post %s", postID)
	return nil
}

// Worker consumes bulk publish tasks and drives the fan-out.
type Worker struct {
	svc *publish.Service
}

func NewWorker(svc *publish.Service) *Worker {
	return &Worker{svc: svc}
}

func (w *Worker) HandleBulkPublishTask(ctx context.Context, task *asynq.Task) error {
	var payload BulkPublishPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}
	return w.svc.Run(ctx, payload.PostID)
}

package models

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

type TaskTopic string

const (
	ProductEmbedderTopic TaskTopic = "product_embedder"
	ReviewEmbedderTopic  TaskTopic = "review_embedder"
)

type Task interface {
	Execute(ctx context.Context, event *message.Message) error
	HandleError(err error)
}

type TaskRouter interface {
	Run(ctx context.Context) error
	AddTask(ctx context.Context, name string, taskType TaskTopic, task Task)
	RunHandlers(ctx context.Context) error
	IsRunning() bool
	Close() error
}

type TaskPublisher interface {
	Publish(taskType TaskTopic, metadata map[string]string, payload any) error
	Close() error
}

// ProductEmbedTask identifies a product awaiting embedding.
type ProductEmbedTask struct {
	UUID uuid.UUID `json:"uuid"`
}

// ReviewEmbedTask identifies a review awaiting embedding.
type ReviewEmbedTask struct {
	UUID uuid.UUID `json:"uuid"`
}

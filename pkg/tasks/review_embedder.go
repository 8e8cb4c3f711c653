package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/dcnsakthi/intellica/pkg/models"
)

var _ models.Task = &ReviewEmbedderTask{}

func NewReviewEmbedderTask(
	appState *models.AppState,
) *ReviewEmbedderTask {
	return &ReviewEmbedderTask{
		BaseTask: BaseTask{
			appState: appState,
		},
	}
}

type ReviewEmbedderTask struct {
	BaseTask
}

func (rt *ReviewEmbedderTask) Execute(
	ctx context.Context,
	msg *message.Message,
) error {
	ctx, done := context.WithTimeout(ctx, TaskTimeout*time.Second)
	defer done()

	log.Debugf("ReviewEmbedderTask called")

	var tasks []models.ReviewEmbedTask
	err := json.Unmarshal(msg.Payload, &tasks)
	if err != nil {
		return err
	}

	err = rt.Process(ctx, tasks)
	if err != nil {
		return err
	}

	msg.Ack()

	return nil
}

func (rt *ReviewEmbedderTask) Process(
	ctx context.Context,
	embedTasks []models.ReviewEmbedTask,
) error {
	uuids := make([]uuid.UUID, len(embedTasks))
	for i, r := range embedTasks {
		uuids[i] = r.UUID
	}

	reviews, err := rt.appState.DocStore.GetReviewsByUUID(ctx, uuids)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			log.Warnf(
				"ReviewEmbedderTask GetReviewsByUUID not found. Were the records deleted? %v",
				err,
			)
			// Don't error out
			return nil
		}
		return fmt.Errorf("ReviewEmbedderTask retrieve reviews failed: %w", err)
	}

	if len(reviews) == 0 {
		return fmt.Errorf("ReviewEmbedderTask no reviews found for given uuids")
	}

	texts := make([]string, len(reviews))
	for i, r := range reviews {
		texts[i] = r.EmbeddingText()
	}

	embeddings, err := rt.appState.EmbeddingsClient.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("ReviewEmbedderTask embed failed: %w", err)
	}

	for i := range reviews {
		reviews[i].Embedding = embeddings[i]
	}
	err = rt.appState.DocStore.PutReviewEmbeddings(ctx, reviews)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			log.Warnf(
				"ReviewEmbedderTask PutReviewEmbeddings not found. Were the records deleted? %v",
				err,
			)
			return nil
		}
		return fmt.Errorf("ReviewEmbedderTask save embeddings failed: %w", err)
	}
	return nil
}

func (rt *ReviewEmbedderTask) HandleError(err error) {
	log.Errorf("ReviewEmbedderTask error: %s", err)
}

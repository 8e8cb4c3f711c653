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

var _ models.Task = &ProductEmbedderTask{}

func NewProductEmbedderTask(
	appState *models.AppState,
) *ProductEmbedderTask {
	return &ProductEmbedderTask{
		BaseTask: BaseTask{
			appState: appState,
		},
	}
}

type ProductEmbedderTask struct {
	BaseTask
}

func (pt *ProductEmbedderTask) Execute(
	ctx context.Context,
	msg *message.Message,
) error {
	ctx, done := context.WithTimeout(ctx, TaskTimeout*time.Second)
	defer done()

	log.Debugf("ProductEmbedderTask called")

	var tasks []models.ProductEmbedTask
	err := json.Unmarshal(msg.Payload, &tasks)
	if err != nil {
		return err
	}

	err = pt.Process(ctx, tasks)
	if err != nil {
		return err
	}

	msg.Ack()

	return nil
}

func (pt *ProductEmbedderTask) Process(
	ctx context.Context,
	embedTasks []models.ProductEmbedTask,
) error {
	uuids := make([]uuid.UUID, len(embedTasks))
	for i, r := range embedTasks {
		uuids[i] = r.UUID
	}

	products, err := pt.appState.CatalogStore.GetProductsByUUID(ctx, uuids)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			log.Warnf(
				"ProductEmbedderTask GetProductsByUUID not found. Were the records deleted? %v",
				err,
			)
			// Don't error out
			return nil
		}
		return fmt.Errorf("ProductEmbedderTask retrieve products failed: %w", err)
	}

	if len(products) == 0 {
		return fmt.Errorf("ProductEmbedderTask no products found for given uuids")
	}

	texts := make([]string, len(products))
	for i, p := range products {
		texts[i] = p.EmbeddingText()
	}

	embeddings, err := pt.appState.EmbeddingsClient.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("ProductEmbedderTask embed failed: %w", err)
	}

	for i := range products {
		products[i].Embedding = embeddings[i]
	}
	err = pt.appState.CatalogStore.PutProductEmbeddings(ctx, products)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			log.Warnf(
				"ProductEmbedderTask PutProductEmbeddings not found. Were the records deleted? %v",
				err,
			)
			return nil
		}
		return fmt.Errorf("ProductEmbedderTask save embeddings failed: %w", err)
	}
	return nil
}

func (pt *ProductEmbedderTask) HandleError(err error) {
	log.Errorf("ProductEmbedderTask error: %s", err)
}

package publisher

import (
	"context"
	"encoding/json"

	"github.com/Rezanikmanesh-79/Karamoozi/internal/crawler"
	"github.com/Rezanikmanesh-79/Karamoozi/logger"
	crawlerrors "github.com/Rezanikmanesh-79/Karamoozi/pkg/errors"
)

// ProductKey is the stream field every product record is published under
const ProductKey = "b64_product"

// CorpusMirror publishes every record of a persisted corpus, then trims the streams
type CorpusMirror struct {
	publisher Publisher
}

// NewCorpusMirror creates a corpus mirror over pub
func NewCorpusMirror(pub Publisher) *CorpusMirror {
	return &CorpusMirror{publisher: pub}
}

func (m *CorpusMirror) Name() string {
	return "redis"
}

// Mirror publishes the records in corpus order. The first failure stops publishing.
func (m *CorpusMirror) Mirror(ctx context.Context, corpus crawler.Corpus) error {
	log := logger.ForComponent("publisher")

	for i, record := range corpus {
		data, err := json.Marshal(record)
		if err != nil {
			return crawlerrors.NewPublisher("redis", "failed to encode product", err)
		}
		if err := m.publisher.Publish(ctx, ProductKey, data); err != nil {
			log.Error().Err(err).Int("position", i).Str("category", record.Category).Msg("Publish failed")
			return err
		}
		if i == 0 && logger.IsDebugEnabled() {
			log.Debug().RawJSON("product", data).Msg("First published product")
		}
	}

	if err := m.publisher.TrimStreams(ctx); err != nil {
		log.Warn().Err(err).Msg("Stream trimming failed")
	}
	return nil
}

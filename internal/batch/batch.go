package batch

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"VPNLogSift/internal/models"
)

// Sink — получатель пачек сессий (ClickHouse в рабочем режиме)
type Sink interface {
	InsertSessionBatch(ctx context.Context, records []models.SessionRecord) error
}

// Batcher накапливает сессии и отправляет их пачками
// batchSize — сколько сессий отправлять за раз
// batchInterval — максимальный интервал между отправками
type Batcher struct {
	batchSize     int
	batchInterval time.Duration
	logger        *zap.Logger
	sink          Sink
}

// NewBatcher создает новый batcher
func NewBatcher(batchSize int, batchInterval time.Duration, logger *zap.Logger, sink Sink) *Batcher {
	return &Batcher{
		batchSize:     batchSize,
		batchInterval: batchInterval,
		logger:        logger,
		sink:          sink,
	}
}

// Send синхронно отправляет записи пачками по batchSize.
// Возвращает первую ошибку получателя: вызывающий не должен считать записи доставленными.
func (b *Batcher) Send(ctx context.Context, records []models.SessionRecord) error {
	size := b.batchSize
	if size <= 0 {
		size = len(records)
	}
	for start := 0; start < len(records); start += size {
		end := min(start+size, len(records))
		if err := b.send(ctx, records[start:end], "bundle"); err != nil {
			return err
		}
	}
	return nil
}

func (b *Batcher) send(ctx context.Context, batch []models.SessionRecord, reason string) error {
	b.logger.Info("Отправляем пачку сессий", zap.Int("count", len(batch)), zap.String("reason", reason))
	if err := b.sink.InsertSessionBatch(ctx, batch); err != nil {
		b.logger.Error("Ошибка при отправке пачки", zap.Error(err))
		return fmt.Errorf("insert %d sessions: %w", len(batch), err)
	}
	b.logger.Info("Пачка успешно отправлена", zap.Int("count", len(batch)))
	return nil
}

// Run собирает и отправляет пачки до отмены контекста или закрытия канала.
// При отмене контекста забирает из канала всё, что уже в нём лежит, и отправляет.
func (b *Batcher) Run(ctx context.Context, in <-chan models.SessionRecord) {
	batch := make([]models.SessionRecord, 0, b.batchSize)
	timer := time.NewTimer(b.batchInterval)
	defer timer.Stop()

	flush := func(reason string) {
		if len(batch) == 0 {
			return
		}
		_ = b.send(ctx, batch, reason)
		batch = batch[:0]
	}

	for {
		select {
		case <-ctx.Done():
			b.drain(in, &batch, flush)
			flush("graceful shutdown")
			return
		case rec, ok := <-in:
			if !ok {
				flush("input closed")
				return
			}
			batch = append(batch, rec)
			if len(batch) >= b.batchSize {
				flush("batch size reached")
				timer.Reset(b.batchInterval)
			}
		case <-timer.C:
			flush("interval")
			timer.Reset(b.batchInterval)
		}
	}
}

// drain без блокировки вычитывает буфер канала
func (b *Batcher) drain(in <-chan models.SessionRecord, batch *[]models.SessionRecord, flush func(string)) {
	for {
		select {
		case rec, ok := <-in:
			if !ok {
				return
			}
			*batch = append(*batch, rec)
			if len(*batch) >= b.batchSize {
				flush("graceful shutdown")
			}
		default:
			return
		}
	}
}

// Package rating поддерживает денормализованный рейтинг фильма в соответствии
// с его отзывами. Каждое изменение отзыва порождает Signal, который доставляется
// координатору синхронно или через очередь Redis.
package rating

import (
	"context"
	"time"

	"github.com/google/uuid"

	"catalog-service/internal/domain"
)

// Signal - "отзывы фильма изменились". Доставка не менее одного раза,
// поэтому обработка обязана быть идемпотентной.
type Signal struct {
	EventID   uuid.UUID `json:"event_id"`
	MovieID   domain.ID `json:"movie_id"`
	EmittedAt time.Time `json:"emitted_at"`
}

func NewSignal(movieID domain.ID) Signal {
	return Signal{EventID: uuid.New(), MovieID: movieID, EmittedAt: time.Now().UTC()}
}

// Notifier доставляет сигналы координатору.
type Notifier interface {
	Notify(ctx context.Context, sig Signal) error
}

// Handler обрабатывает доставленный сигнал.
type Handler interface {
	Handle(ctx context.Context, sig Signal) error
}

// SyncNotifier вызывает обработчик прямо в горутине вызывающего.
type SyncNotifier struct {
	handler Handler
}

func NewSyncNotifier(handler Handler) *SyncNotifier {
	return &SyncNotifier{handler: handler}
}

func (n *SyncNotifier) Notify(ctx context.Context, sig Signal) error {
	return n.handler.Handle(ctx, sig)
}

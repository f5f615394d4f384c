package worker

import (
	"context"
	"time"

	"github.com/ZeckoPlatform/zeckoplatform-sub003/internal/repository"
	"github.com/ZeckoPlatform/zeckoplatform-sub003/internal/service"
	"github.com/ZeckoPlatform/zeckoplatform-sub003/pkg/logger"
)

// TrialWorker периодически находит подписки с истекшим пробным периодом
// и переводит их в активный статус. Повторные срабатывания безопасны:
// HandleTrialEnd игнорирует подписки не в статусе trial.
type TrialWorker struct {
	subscriptionRepo repository.SubscriptionRepository
	subscriptionSvc  service.SubscriptionService
	interval         time.Duration
	log              *logger.Logger
	stopCh           chan struct{}
}

// NewTrialWorker создает новый воркер окончания пробных периодов
func NewTrialWorker(
	subscriptionRepo repository.SubscriptionRepository,
	subscriptionSvc service.SubscriptionService,
	interval time.Duration,
	log *logger.Logger,
) *TrialWorker {
	return &TrialWorker{
		subscriptionRepo: subscriptionRepo,
		subscriptionSvc:  subscriptionSvc,
		interval:         interval,
		log:              log,
		stopCh:           make(chan struct{}),
	}
}

// Start запускает цикл воркера в отдельной горутине
func (w *TrialWorker) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		w.log.Info("Trial worker started with interval %s", w.interval)

		for {
			select {
			case <-ticker.C:
				w.RunOnce(ctx)
			case <-w.stopCh:
				w.log.Info("Trial worker stopped")
				return
			case <-ctx.Done():
				w.log.Info("Trial worker context cancelled")
				return
			}
		}
	}()
}

// RunOnce выполняет один проход: активирует все подписки,
// у которых пробный период уже закончился.
func (w *TrialWorker) RunOnce(ctx context.Context) {
	subscriptions, err := w.subscriptionRepo.ListTrialsEndingBefore(ctx, time.Now())
	if err != nil {
		w.log.Error("Failed to list expiring trials: %v", err)
		return
	}

	if len(subscriptions) == 0 {
		return
	}

	w.log.Debug("Found %d subscriptions with expired trials", len(subscriptions))

	for _, subscription := range subscriptions {
		if err := w.subscriptionSvc.HandleTrialEnd(ctx, subscription.ID.String()); err != nil {
			w.log.Error("Failed to handle trial end for subscription %s: %v", subscription.ID, err)
		}
	}
}

// Stop останавливает воркер
func (w *TrialWorker) Stop() {
	close(w.stopCh)
}

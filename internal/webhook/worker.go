package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/shenikar/bantaybayan/internal/config"
	"github.com/shenikar/bantaybayan/internal/observability"
	"github.com/sirupsen/logrus"
)

const (
	popTimeout = time.Second
	// SignatureHeader - заголовок с HMAC-SHA256 подписью тела запроса
	SignatureHeader = "X-Webhook-Signature"
)

// WebhookWorker - структура для обработки и отправки вебхуков
type WebhookWorker struct {
	source     EventSource
	logger     *logrus.Logger
	cfg        *config.Config
	metrics    *observability.Metrics
	httpClient *http.Client

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWebhookWorker создает новый WebhookWorker
func NewWebhookWorker(source EventSource, logger *logrus.Logger, cfg *config.Config, metrics *observability.Metrics) *WebhookWorker {
	return &WebhookWorker{
		source:  source,
		logger:  logger,
		cfg:     cfg,
		metrics: metrics,
		httpClient: &http.Client{
			Timeout: cfg.WebhookTimeout,
		},
	}
}

// Start запускает горутину для обработки очереди вебхуков
func (w *WebhookWorker) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)
	w.logger.Info("Starting webhook worker...")

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			if ctx.Err() != nil {
				w.logger.Info("Stopping webhook worker.")
				return
			}

			payload, err := w.source.Pop(ctx, popTimeout)
			if err != nil {
				if errors.Is(err, ErrQueueEmpty) || ctx.Err() != nil {
					continue
				}
				w.logger.WithError(err).Error("Failed to pop webhook event")
				w.sleep(ctx, w.cfg.WebhookTimeout) // Ждем перед повторной попыткой
				continue
			}

			var event WebhookEvent
			if err := json.Unmarshal([]byte(payload), &event); err != nil {
				w.logger.WithError(err).Error("Failed to unmarshal webhook event")
				continue
			}

			w.processWebhookEvent(ctx, event, payload)
		}
	}()
}

// Stop останавливает воркер и ждет завершения текущей доставки
func (w *WebhookWorker) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	w.httpClient.CloseIdleConnections()
}

func (w *WebhookWorker) processWebhookEvent(ctx context.Context, event WebhookEvent, rawPayload string) {
	log := w.logger.WithFields(logrus.Fields{
		"event_type":         event.Type,
		"event_user_id":      event.UserID,
		"event_is_dangerous": event.IsDangerous,
	})
	log.Debug("Processing webhook event...")

	if w.cfg.WebhookURL == "" {
		log.Warn("Webhook URL is not configured. Skipping webhook delivery.")
		return
	}

	maxRetries := w.cfg.WebhookMaxRetries
	delay := w.cfg.WebhookBaseDelay

	for i := 0; i < maxRetries; i++ {
		err := w.deliver(ctx, rawPayload)
		if err == nil {
			w.metrics.WebhookDeliveries.WithLabelValues("success").Inc()
			log.Info("Webhook delivered successfully.")
			return
		}
		if i == maxRetries-1 {
			break
		}

		w.metrics.WebhookDeliveries.WithLabelValues("retry").Inc()
		log.WithError(err).Warnf("Webhook delivery failed. Retrying in %v. Retries left: %d", delay, maxRetries-1-i)
		if !w.sleep(ctx, delay) {
			log.Warn("Webhook delivery interrupted by shutdown")
			w.metrics.WebhookDeliveries.WithLabelValues("failed").Inc()
			return
		}
		delay *= 2 // Экспоненциальная задержка
	}

	w.metrics.WebhookDeliveries.WithLabelValues("failed").Inc()
	log.Errorf("Failed to deliver webhook for event after %d attempts.", maxRetries)
}

func (w *WebhookWorker) deliver(ctx context.Context, rawPayload string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.cfg.WebhookURL, bytes.NewBufferString(rawPayload))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	// Добавляем HMAC подпись, если WEBHOOK_SECRET задан
	if w.cfg.WebhookSecret != "" {
		req.Header.Set(SignatureHeader, generateHMACSHA256(rawPayload, w.cfg.WebhookSecret))
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook endpoint responded with status code %d", resp.StatusCode)
	}
	return nil
}

// sleep ждет d, false если контекст отменен раньше
func (w *WebhookWorker) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// generateHMACSHA256 генерирует HMAC-SHA256 подпись для данных
func generateHMACSHA256(data, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}

package scanrelay

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/stockwise/fulfillment-service/internal/apperr"
	"github.com/stockwise/fulfillment-service/internal/packing"
	"github.com/stockwise/fulfillment-service/internal/picking"
	"github.com/stockwise/fulfillment-service/pkg/broker"
	"github.com/stockwise/fulfillment-service/pkg/logger"
	"go.uber.org/zap"
)

// Scan kinds relayed from handheld devices.
const (
	KindPicking      = "picking"
	KindPackingLabel = "packing_label"
	KindPackingItem  = "packing_item"
)

// ScanEvent is one barcode scan relayed from a phone or handheld into the
// desktop operator's session.
type ScanEvent struct {
	DeviceID  string    `json:"device_id"`
	Kind      string    `json:"kind"`
	ListID    string    `json:"list_id,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
	Code      string    `json:"code"`
	At        time.Time `json:"at"`
}

type ScanListener struct {
	consumer *broker.KafkaConsumer
	picking  picking.UseCase
	packing  packing.UseCase
	logger   logger.Logger
}

func NewScanListener(consumer *broker.KafkaConsumer, pickUC picking.UseCase, packUC packing.UseCase, log logger.Logger) *ScanListener {
	return &ScanListener{
		consumer: consumer,
		picking:  pickUC,
		packing:  packUC,
		logger:   log,
	}
}

func (l *ScanListener) Start(ctx context.Context) {
	l.logger.Info("Starting scan relay listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping scan relay listener")
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read scan message", zap.Error(err))
				time.Sleep(1 * time.Second)
				continue
			}
			l.processMessage(ctx, msg.Value)
		}
	}
}

func (l *ScanListener) processMessage(ctx context.Context, value []byte) {
	var event ScanEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal scan event", zap.Error(err))
		return
	}
	if event.Code == "" {
		l.logger.Warn("Dropping scan event without code", zap.String("device_id", event.DeviceID))
		return
	}

	var err error
	switch event.Kind {
	case KindPicking:
		_, err = l.picking.Scan(ctx, event.ListID, event.Code)
	case KindPackingLabel:
		_, err = l.packing.ScanLabel(ctx, event.SessionID, event.Code)
	case KindPackingItem:
		_, err = l.packing.ScanItem(ctx, event.SessionID, event.Code)
	default:
		l.logger.Warn("Dropping scan event of unknown kind", zap.String("kind", event.Kind))
		return
	}

	if err != nil {
		// Scan rejections are normal operation; the scanning device surfaces
		// them. Anything else is a relay-side problem worth a real error line.
		if errors.Is(err, apperr.ErrConflict) || errors.Is(err, apperr.ErrNotFound) {
			l.logger.Info("Scan rejected",
				zap.String("kind", event.Kind),
				zap.String("code", event.Code),
				zap.String("device_id", event.DeviceID),
				zap.Error(err))
			return
		}
		l.logger.Error("Failed to process scan event",
			zap.String("kind", event.Kind),
			zap.String("code", event.Code),
			zap.Error(err))
	}
}

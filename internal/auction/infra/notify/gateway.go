// Package notify delivers settlement messages to buyers and sellers over
// every configured channel.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/cristianortiz/auctionEase/internal/auction/domain"
	"github.com/cristianortiz/auctionEase/internal/shared/logger"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// Sender is one delivery channel.
type Sender interface {
	Send(ctx context.Context, msg domain.Message) error
	Name() string
}

// Gateway implements domain.NotificationGateway by handing every message to
// all senders. One sender failing does not stop the others; the message
// counts as delivered only if every sender succeeded.
type Gateway struct {
	senders []Sender
}

var _ domain.NotificationGateway = (*Gateway)(nil)

func NewGateway(senders ...Sender) *Gateway {
	return &Gateway{senders: senders}
}

func (g *Gateway) Send(ctx context.Context, msg domain.Message) error {
	var errs []error
	for _, s := range g.senders {
		if err := s.Send(ctx, msg); err != nil {
			log.Error("notify: sender failed",
				zap.String("sender", s.Name()),
				zap.String("auctionID", msg.AuctionID.String()),
				zap.String("kind", string(msg.Kind)),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		log.Debug("notify: message sent",
			zap.String("sender", s.Name()),
			zap.String("auctionID", msg.AuctionID.String()),
			zap.String("kind", string(msg.Kind)),
		)
	}
	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %w", len(errs), errors.Join(errs...))
	}
	return nil
}

// LogSender writes messages to the service log. It is the only sender when
// no SMTP host or webhook is configured.
type LogSender struct{}

func (LogSender) Name() string { return "log" }

func (LogSender) Send(_ context.Context, msg domain.Message) error {
	log.Info("notify: settlement message",
		zap.String("auctionID", msg.AuctionID.String()),
		zap.String("kind", string(msg.Kind)),
		zap.String("to", msg.To.Email),
		zap.String("subject", msg.Subject),
	)
	return nil
}

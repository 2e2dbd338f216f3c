// Package relay runs the two-stage forward/reply sequence for one inbound
// event: ask the NLU service for a reply, then deliver that reply to the
// original sender.
package relay

import (
	"context"
	"errors"

	"github.com/efdarkside/whatsapi/internal/delivery"
	"github.com/efdarkside/whatsapi/internal/intent"
	"github.com/efdarkside/whatsapi/internal/model"
	"go.uber.org/zap"
)

// Dispatcher performs the intent → delivery sequence. Stages run strictly
// in order; a failed intent stage means delivery is never attempted.
type Dispatcher struct {
	intent intent.Client
	sender delivery.Sender
	log    *zap.Logger
}

func New(ic intent.Client, ds delivery.Sender, log *zap.Logger) *Dispatcher {
	return &Dispatcher{intent: ic, sender: ds, log: log}
}

// Dispatch relays one event. The session id for intent detection is the
// sender address, so any conversational context the NLU service keeps is
// scoped per conversation partner.
func (d *Dispatcher) Dispatch(ctx context.Context, ev model.InboundEvent) model.RelayResult {
	fulfillment, err := d.intent.DetectIntent(ctx, ev.Text, ev.Sender)
	if err != nil {
		d.log.Error("dispatch: intent detection failed",
			zap.String("message_id", ev.MessageID), zap.Error(err))
		return model.RelayResult{
			Status: model.StatusIntentFailure,
			Detail: err.Error(),
			Err:    err,
		}
	}

	providerID, err := d.sender.Send(ctx, delivery.SendRequest{To: ev.Sender, Body: fulfillment})
	if err != nil {
		if errors.Is(err, delivery.ErrCredentialExpired) {
			d.log.Error("dispatch: delivery credential expired, rotate the token",
				zap.String("message_id", ev.MessageID), zap.Error(err))
		} else {
			d.log.Error("dispatch: reply delivery failed",
				zap.String("message_id", ev.MessageID), zap.Error(err))
		}
		return model.RelayResult{
			Status: model.StatusDeliveryFailure,
			Detail: err.Error(),
			Err:    err,
		}
	}

	d.log.Info("dispatch: relayed",
		zap.String("message_id", ev.MessageID),
		zap.String("to", ev.Sender),
		zap.String("provider_id", providerID))
	return model.RelayResult{
		Status:            model.StatusSuccess,
		ProviderMessageID: providerID,
	}
}

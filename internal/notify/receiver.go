package notify

import (
	"context"
	"log"
	"time"

	"github.com/diutransit/reminder_core/internal/models"
	"github.com/diutransit/reminder_core/internal/notifier"
)

// Emitter reacts to fired alarms: it reads the payload back and posts the
// user-visible notification. Everything it needs travels in the payload; it
// holds no reference to scheduler state.
type Emitter struct {
	notifier   notifier.Notifier
	reschedule func()
}

// NewEmitter creates an emitter. reschedule, if non-nil, is invoked after
// each delivery so the following reminder gets registered without waiting
// for an external data or settings change.
func NewEmitter(n notifier.Notifier, reschedule func()) *Emitter {
	return &Emitter{notifier: n, reschedule: reschedule}
}

// SetReschedule installs the post-delivery hook. It exists for wiring
// order: the pipeline that recomputes reminders needs the emitter first.
// Call it before any alarm can fire.
func (e *Emitter) SetReschedule(fn func()) {
	e.reschedule = fn
}

// ReceiveAlarm implements alarm.Receiver
func (e *Emitter) ReceiveAlarm(id string, payload models.AlarmPayload) {
	if payload.Title == "" {
		log.Printf("Warning: alarm %s fired with empty payload, dropping", id)
		return
	}

	channelID := ChannelID
	channelName := ChannelName
	channelDesc := ChannelDesc
	if payload.RouteNo != "" {
		channelID = RouteChannelID
		channelName = RouteChannelName
		channelDesc = RouteChannelDesc
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.notifier.EnsureChannel(ctx, channelID, channelName, channelDesc); err != nil {
		log.Printf("Warning: failed to ensure channel for alarm %s: %v", id, err)
	}

	if err := e.notifier.Post(ctx, channelID, payload.Title, payload.Body); err != nil {
		log.Printf("Error: failed to post notification for alarm %s: %v", id, err)
	} else {
		log.Printf("Alarm fired -> notification shown (%s)", id)
	}

	if e.reschedule != nil {
		e.reschedule()
	}
}

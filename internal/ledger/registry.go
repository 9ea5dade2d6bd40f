package ledger

import (
	"fmt"
	"time"

	"ticket-ledger/internal/metrics"
	"ticket-ledger/internal/models"
)

const maxRoyaltyBps = 5000

// CreateEvent registers a new ticketed event and returns its id. Event ids
// are strictly increasing and never reused. The organizer is the caller and
// never changes afterwards.
func (l *Ledger) CreateEvent(caller string, req models.CreateEventRequest) (uint64, error) {
	if caller == "" {
		return 0, ErrInvalidParams
	}
	if req.Name == "" || req.MaxSupply == 0 {
		return 0, ErrInvalidParams
	}
	if req.StartTime >= req.EndTime {
		return 0, ErrInvalidParams
	}
	if req.RoyaltyBps < 0 || req.RoyaltyBps > maxRoyaltyBps {
		return 0, ErrInvalidParams
	}

	l.mu.Lock()

	id := l.nextEventID
	l.nextEventID++

	ev := &models.Event{
		ID:             id,
		Name:           req.Name,
		MetadataURI:    req.MetadataURI,
		Organizer:      caller,
		MaxSupply:      req.MaxSupply,
		BasePrice:      req.BasePrice,
		StartTime:      time.Unix(req.StartTime, 0).UTC(),
		EndTime:        time.Unix(req.EndTime, 0).UTC(),
		Active:         true,
		Transferable:   req.Transferable,
		DynamicPricing: req.DynamicPricing,
		RoyaltyBps:     req.RoyaltyBps,
		Verifier:       req.Verifier, // advisory only, never checked in mint/transfer paths
		CreatedAt:      l.now(),
	}
	l.events[id] = ev

	l.mu.Unlock()

	metrics.EventsCreated.Inc()
	l.logInfo("LEDGER", fmt.Sprintf("event %d created by %s (supply %d, base price %d)", id, caller, req.MaxSupply, req.BasePrice))

	l.archiveEvent(ev)
	l.emit(models.Signal{
		Type:    models.SignalEventCreated,
		EventID: id,
		Actor:   caller,
		Amount:  req.BasePrice,
	})

	return id, nil
}

// SetEventStatus toggles an event's active flag. Organizer only.
func (l *Ledger) SetEventStatus(caller string, eventID uint64, active bool) error {
	l.mu.Lock()

	ev, ok := l.events[eventID]
	if !ok {
		l.mu.Unlock()
		return ErrEventNotFound
	}
	if ev.Organizer != caller {
		l.mu.Unlock()
		return ErrNotOrganizer
	}
	ev.Active = active

	l.mu.Unlock()

	l.archiveEvent(ev)
	l.emit(models.Signal{
		Type:    models.SignalEventStatusChanged,
		EventID: eventID,
		Actor:   caller,
		Reason:  fmt.Sprintf("active=%t", active),
	})
	return nil
}

// UpdateEventMetadata replaces the opaque metadata pointer. Organizer only.
func (l *Ledger) UpdateEventMetadata(caller string, eventID uint64, metadataURI string) error {
	l.mu.Lock()

	ev, ok := l.events[eventID]
	if !ok {
		l.mu.Unlock()
		return ErrEventNotFound
	}
	if ev.Organizer != caller {
		l.mu.Unlock()
		return ErrNotOrganizer
	}
	ev.MetadataURI = metadataURI

	l.mu.Unlock()

	l.archiveEvent(ev)
	return nil
}

// EmergencyWithdraw lets the organizer pull an event before it starts.
// Allowed only while no ticket has sold and the sale window has not opened;
// the event is force-deactivated.
func (l *Ledger) EmergencyWithdraw(caller string, eventID uint64) error {
	l.mu.Lock()

	ev, ok := l.events[eventID]
	if !ok {
		l.mu.Unlock()
		return ErrEventNotFound
	}
	if ev.Organizer != caller {
		l.mu.Unlock()
		return ErrNotOrganizer
	}
	if !l.now().Before(ev.StartTime) || ev.TotalMinted > 0 {
		l.mu.Unlock()
		return ErrEventAlreadyStarted
	}
	ev.Active = false

	l.mu.Unlock()

	l.logWarn("LEDGER", fmt.Sprintf("event %d withdrawn by organizer %s", eventID, caller))
	l.archiveEvent(ev)
	l.emit(models.Signal{
		Type:    models.SignalEmergencyWithdraw,
		EventID: eventID,
		Actor:   caller,
	})
	l.emit(models.Signal{
		Type:    models.SignalEventStatusChanged,
		EventID: eventID,
		Actor:   caller,
		Reason:  "active=false",
	})
	return nil
}

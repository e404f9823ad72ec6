package memory

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/sangkips/investify-pos/internal/domain/entity"
	"github.com/sangkips/investify-pos/internal/domain/enum"
	"github.com/shopspring/decimal"
)

// eventRepository drains across tenants like its postgres counterpart
type eventRepository struct{ session }

func (r *eventRepository) Create(ctx context.Context, event *entity.IntegrationEvent) error {
	unlock := r.lock()
	defer unlock()

	d := r.data()
	if _, ok := d.events[event.ID]; ok {
		return duplicate("integration event %s", event.ID)
	}
	event.CreatedAt, event.UpdatedAt = r.now(), r.now()
	d.events[event.ID] = *event
	return nil
}

func (r *eventRepository) ClaimDue(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]entity.IntegrationEvent, error) {
	unlock := r.lock()
	defer unlock()

	d := r.data()
	var due []entity.IntegrationEvent
	for _, e := range d.events {
		if e.Status == enum.EventStatusPending && !e.NextAttemptAt.After(now) {
			due = append(due, e)
		}
	}
	slices.SortFunc(due, func(a, b entity.IntegrationEvent) int {
		if c := a.NextAttemptAt.Compare(b.NextAttemptAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}

	for _, e := range due {
		stored := d.events[e.ID]
		stored.NextAttemptAt = now.Add(lease)
		d.events[e.ID] = stored
	}
	return due, nil
}

func (r *eventRepository) MarkProcessed(ctx context.Context, id snowflake.ID, at time.Time) error {
	unlock := r.lock()
	defer unlock()

	d := r.data()
	e, ok := d.events[id]
	if !ok {
		return nil
	}
	e.Status = enum.EventStatusProcessed
	e.ProcessedAt = &at
	e.LastError = nil
	e.UpdatedAt = r.now()
	d.events[id] = e
	return nil
}

func (r *eventRepository) MarkFailed(ctx context.Context, id snowflake.ID, attempts int, next time.Time, lastErr string, dead bool) error {
	unlock := r.lock()
	defer unlock()

	d := r.data()
	e, ok := d.events[id]
	if !ok {
		return nil
	}
	e.Status = enum.EventStatusPending
	if dead {
		e.Status = enum.EventStatusDead
	}
	e.Attempts = attempts
	e.NextAttemptAt = next
	e.LastError = &lastErr
	e.UpdatedAt = r.now()
	d.events[id] = e
	return nil
}

func (r *eventRepository) GetByID(ctx context.Context, id snowflake.ID) (*entity.IntegrationEvent, error) {
	unlock := r.lock()
	defer unlock()

	e, ok := r.data().events[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

// Events lists every outbox row in id order
func (s *Store) Events() []entity.IntegrationEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]entity.IntegrationEvent, 0, len(s.data.events))
	for _, e := range s.data.events {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b entity.IntegrationEvent) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

type journalRepository struct{ session }

func (r *journalRepository) Exists(ctx context.Context, sourceType string, sourceID uuid.UUID, kind string) (bool, error) {
	unlock := r.lock()
	defer unlock()

	for _, e := range r.data().journals {
		if e.SourceType == sourceType && e.SourceID == sourceID && e.Kind == kind {
			return true, nil
		}
	}
	return false, nil
}

func (r *journalRepository) Create(ctx context.Context, entry *entity.JournalEntry) error {
	unlock := r.lock()
	defer unlock()

	d := r.data()
	for _, e := range d.journals {
		if e.SourceType == entry.SourceType && e.SourceID == entry.SourceID && e.Kind == entry.Kind {
			return duplicate("journal %s for %s %s", entry.Kind, entry.SourceType, entry.SourceID)
		}
	}
	newID(&entry.ID)
	entry.CreatedAt = r.now()
	for i := range entry.Lines {
		newID(&entry.Lines[i].ID)
		entry.Lines[i].EntryID = entry.ID
	}
	stored := *entry
	stored.Lines = slices.Clone(entry.Lines)
	d.journals = append(d.journals, stored)
	return nil
}

func (r *journalRepository) ListBySource(ctx context.Context, sourceType string, sourceID uuid.UUID) ([]entity.JournalEntry, error) {
	unlock := r.lock()
	defer unlock()

	var out []entity.JournalEntry
	for _, e := range r.data().journals {
		if e.SourceType == sourceType && e.SourceID == sourceID && visible(ctx, e.TenantID) {
			e.Lines = slices.Clone(e.Lines)
			out = append(out, e)
		}
	}
	slices.SortStableFunc(out, func(a, b entity.JournalEntry) int { return a.PostedAt.Compare(b.PostedAt) })
	return out, nil
}

type returnRepository struct{ session }

func (r *returnRepository) Create(ctx context.Context, ret *entity.SaleReturn) error {
	unlock := r.lock()
	defer unlock()

	d := r.data()
	for _, existing := range d.returns {
		if existing.TenantID == ret.TenantID && existing.Number == ret.Number {
			return duplicate("return number %s", ret.Number)
		}
	}
	newID(&ret.ID)
	ret.CreatedAt = r.now()
	for i := range ret.Lines {
		newID(&ret.Lines[i].ID)
		ret.Lines[i].ReturnID = ret.ID
	}
	stored := *ret
	stored.Lines = slices.Clone(ret.Lines)
	stored.CreditNote = nil
	d.returns[ret.ID] = stored
	return nil
}

func (r *returnRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.SaleReturn, error) {
	unlock := r.lock()
	defer unlock()

	d := r.data()
	ret, ok := d.returns[id]
	if !ok || !visible(ctx, ret.TenantID) {
		return nil, nil
	}
	ret.Lines = slices.Clone(ret.Lines)
	if note, ok := d.creditNotes[id]; ok {
		ret.CreditNote = &note
	}
	return &ret, nil
}

func (r *returnRepository) CreateCreditNote(ctx context.Context, note *entity.CreditNote) error {
	unlock := r.lock()
	defer unlock()

	d := r.data()
	if _, ok := d.creditNotes[note.ReturnID]; ok {
		return duplicate("credit note for return %s", note.ReturnID)
	}
	for _, n := range d.creditNotes {
		if n.TenantID == note.TenantID && n.Number == note.Number {
			return duplicate("credit note number %s", note.Number)
		}
	}
	newID(&note.ID)
	note.CreatedAt = r.now()
	d.creditNotes[note.ReturnID] = *note
	return nil
}

func (r *returnRepository) ReturnedQuantities(ctx context.Context, saleID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	unlock := r.lock()
	defer unlock()

	out := make(map[uuid.UUID]decimal.Decimal)
	for _, ret := range r.data().returns {
		if ret.SaleID != saleID {
			continue
		}
		for _, l := range ret.Lines {
			out[l.SaleLineID] = out[l.SaleLineID].Add(l.Quantity)
		}
	}
	return out, nil
}

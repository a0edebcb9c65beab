package memory

import (
	"context"
	"sort"
	"sync"

	domainproperties "rentdesk/internal/domain/properties"
	domainreservations "rentdesk/internal/domain/reservations"
)

// PropertyRepository keeps properties in memory. Callers get copies.
type PropertyRepository struct {
	mu    sync.RWMutex
	items map[domainproperties.PropertyID]domainproperties.Property
}

func NewPropertyRepository() *PropertyRepository {
	return &PropertyRepository{items: make(map[domainproperties.PropertyID]domainproperties.Property)}
}

func (r *PropertyRepository) ByID(ctx context.Context, id domainproperties.PropertyID) (*domainproperties.Property, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.items[id]
	if !ok {
		return nil, domainproperties.ErrPropertyNotFound
	}
	return &p, nil
}

func (r *PropertyRepository) Save(ctx context.Context, property *domainproperties.Property) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.items[property.ID]; ok && current.Version != property.Version {
		return domainproperties.ErrConcurrentUpdate
	}
	property.Version++
	r.items[property.ID] = *property
	return nil
}

// List returns properties ordered by title, then id.
func (r *PropertyRepository) List(ctx context.Context) ([]*domainproperties.Property, error) {
	r.mu.RLock()
	out := make([]*domainproperties.Property, 0, len(r.items))
	for _, p := range r.items {
		p := p
		out = append(out, &p)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Title == out[j].Title {
			return out[i].ID < out[j].ID
		}
		return out[i].Title < out[j].Title
	})
	return out, nil
}

// ReservationRepository keeps reservations in memory with optimistic versioning.
type ReservationRepository struct {
	mu    sync.RWMutex
	items map[domainreservations.ReservationID]*domainreservations.Reservation
}

func NewReservationRepository() *ReservationRepository {
	return &ReservationRepository{items: make(map[domainreservations.ReservationID]*domainreservations.Reservation)}
}

func (r *ReservationRepository) ByID(ctx context.Context, id domainreservations.ReservationID) (*domainreservations.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.items[id]
	if !ok {
		return nil, domainreservations.ErrReservationNotFound
	}
	return res.Clone(), nil
}

// ListByProperty returns the property's reservations ordered by start.
func (r *ReservationRepository) ListByProperty(ctx context.Context, propertyID domainproperties.PropertyID) ([]*domainreservations.Reservation, error) {
	r.mu.RLock()
	out := make([]*domainreservations.Reservation, 0)
	for _, res := range r.items {
		if res.PropertyID == propertyID {
			out = append(out, res.Clone())
		}
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		return out[i].Range.Start.Before(out[j].Range.Start)
	})
	return out, nil
}

// Save inserts a new reservation (Version 0) or updates one whose Version matches the
// stored copy. The version is bumped on success.
func (r *ReservationRepository) Save(ctx context.Context, reservation *domainreservations.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.items[reservation.ID]; ok {
		if current.Version != reservation.Version {
			return domainreservations.ErrConcurrentUpdate
		}
	} else if reservation.Version != 0 {
		return domainreservations.ErrReservationNotFound
	}
	reservation.Version++
	r.items[reservation.ID] = reservation.Clone()
	return nil
}

func (r *ReservationRepository) Delete(ctx context.Context, id domainreservations.ReservationID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return domainreservations.ErrReservationNotFound
	}
	delete(r.items, id)
	return nil
}

var (
	_ domainproperties.Repository   = (*PropertyRepository)(nil)
	_ domainreservations.Repository = (*ReservationRepository)(nil)
)

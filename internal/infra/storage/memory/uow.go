package memory

import (
	"context"
	"errors"
	"sync"

	"rentdesk/internal/app/uow"
	domainproperties "rentdesk/internal/domain/properties"
	domainreservations "rentdesk/internal/domain/reservations"
)

var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// Factory hands out units over shared in-memory repositories. Writes are applied
// immediately and are not rolled back; write units are serialized so the availability
// re-check and the save of one command cannot interleave with another.
type Factory struct {
	PropertiesRepo   domainproperties.Repository
	ReservationsRepo domainreservations.Repository

	writeMu *sync.Mutex
}

func NewFactory(props domainproperties.Repository, res domainreservations.Repository) *Factory {
	return &Factory{PropertiesRepo: props, ReservationsRepo: res, writeMu: &sync.Mutex{}}
}

func (f *Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.PropertiesRepo == nil || f.ReservationsRepo == nil {
		return nil, ErrFactoryMisconfigured
	}
	unit := &Unit{properties: f.PropertiesRepo, reservations: f.ReservationsRepo}
	if !opts.ReadOnly && f.writeMu != nil {
		f.writeMu.Lock()
		unit.release = f.writeMu.Unlock
	}
	return unit, nil
}

type Unit struct {
	properties   domainproperties.Repository
	reservations domainreservations.Repository

	release func()
	once    sync.Once
}

func (u *Unit) Properties() domainproperties.Repository {
	return u.properties
}

func (u *Unit) Reservations() domainreservations.Repository {
	return u.reservations
}

func (u *Unit) Commit(ctx context.Context) error {
	u.finish()
	return nil
}

// Rollback only releases the write lock; repository writes are already applied.
func (u *Unit) Rollback(ctx context.Context) error {
	u.finish()
	return nil
}

func (u *Unit) finish() {
	u.once.Do(func() {
		if u.release != nil {
			u.release()
		}
	})
}

var _ uow.UnitOfWork = (*Unit)(nil)

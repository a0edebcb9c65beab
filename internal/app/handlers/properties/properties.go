package properties

import (
	"context"

	"rentdesk/internal/app/dto"
	"rentdesk/internal/app/handlers/support"
	"rentdesk/internal/app/queries"
	"rentdesk/internal/app/uow"
	domainproperties "rentdesk/internal/domain/properties"
)

const (
	ListKey = "properties.list"
	GetKey  = "properties.get"
)

type ListQuery struct{}

func (ListQuery) Key() string { return ListKey }

type GetQuery struct {
	PropertyID string `validate:"required"`
}

func (GetQuery) Key() string { return GetKey }

type ListHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListHandler) Handle(ctx context.Context, _ ListQuery) (dto.PropertyCollection, error) {
	unit, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.PropertyCollection{}, err
	}
	defer unit.Close()

	list, err := unit.Properties().List(unit.Ctx)
	if err != nil {
		return dto.PropertyCollection{}, err
	}
	return dto.MapProperties(list), nil
}

type GetHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetHandler) Handle(ctx context.Context, q GetQuery) (dto.Property, error) {
	unit, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Property{}, err
	}
	defer unit.Close()

	property, err := unit.Properties().ByID(unit.Ctx, domainproperties.PropertyID(q.PropertyID))
	if err != nil {
		return dto.Property{}, err
	}
	return dto.MapProperty(property), nil
}

var (
	_ queries.Handler[ListQuery, dto.PropertyCollection] = (*ListHandler)(nil)
	_ queries.Handler[GetQuery, dto.Property]            = (*GetHandler)(nil)
)

package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rentdesk/internal/domain/properties"
	"rentdesk/internal/domain/reservations"
	"rentdesk/internal/domain/shared/daterange"
	"rentdesk/internal/domain/shared/money"
)

// ReservationRepository stores reservations with optimistic versioning. Every write also
// bumps a per-property guard document, so two transactions booking the same property
// conflict on commit even when they touch different reservations.
type ReservationRepository struct {
	col    *mongo.Collection
	guards *mongo.Collection
}

func NewReservationRepository(db *mongo.Database) *ReservationRepository {
	col := db.Collection("reservations")
	idx := mongo.IndexModel{Keys: bson.D{{Key: "property_id", Value: 1}, {Key: "range.start", Value: 1}}}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	return &ReservationRepository{col: col, guards: db.Collection("property_guards")}
}

func (r *ReservationRepository) ByID(ctx context.Context, id reservations.ReservationID) (*reservations.Reservation, error) {
	var doc reservationDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, reservations.ErrReservationNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ReservationRepository) ListByProperty(ctx context.Context, propertyID properties.PropertyID) ([]*reservations.Reservation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "range.start", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"property_id": string(propertyID)}, opts)
	if err != nil {
		return nil, err
	}
	var docs []reservationDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*reservations.Reservation, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toAggregate())
	}
	return out, nil
}

func (r *ReservationRepository) Save(ctx context.Context, res *reservations.Reservation) error {
	if err := r.touchGuard(ctx, res.PropertyID); err != nil {
		return err
	}
	doc := newReservationDocument(res)
	filter := bson.M{"_id": doc.ID, "version": res.Version}
	doc.Version = res.Version + 1
	result, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc}, options.Update().SetUpsert(res.Version == 0))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return reservations.ErrConcurrentUpdate
		}
		return err
	}
	if result.MatchedCount == 0 && result.UpsertedCount == 0 {
		return r.missOrConflict(ctx, res.ID)
	}
	res.Version = doc.Version
	return nil
}

func (r *ReservationRepository) Delete(ctx context.Context, id reservations.ReservationID) error {
	existing, err := r.ByID(ctx, id)
	if err != nil {
		return err
	}
	if err := r.touchGuard(ctx, existing.PropertyID); err != nil {
		return err
	}
	result, err := r.col.DeleteOne(ctx, bson.M{"_id": string(id)})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return reservations.ErrReservationNotFound
	}
	return nil
}

func (r *ReservationRepository) touchGuard(ctx context.Context, propertyID properties.PropertyID) error {
	_, err := r.guards.UpdateByID(ctx, string(propertyID),
		bson.M{"$inc": bson.M{"seq": 1}, "$set": bson.M{"updated_at": time.Now().UTC()}},
		options.Update().SetUpsert(true))
	return err
}

func (r *ReservationRepository) missOrConflict(ctx context.Context, id reservations.ReservationID) error {
	n, err := r.col.CountDocuments(ctx, bson.M{"_id": string(id)})
	if err != nil {
		return err
	}
	if n == 0 {
		return reservations.ErrReservationNotFound
	}
	return reservations.ErrConcurrentUpdate
}

type reservationDocument struct {
	ID         string        `bson:"_id"`
	PropertyID string        `bson:"property_id"`
	Type       string        `bson:"type"`
	Range      rangeDocument `bson:"range"`
	Months     int           `bson:"months"`
	Guest      guestDocument `bson:"guest"`
	Total      money.Money   `bson:"total"`
	CreatedAt  int64         `bson:"created_at"`
	UpdatedAt  int64         `bson:"updated_at"`
	Version    int64         `bson:"version"`
}

type rangeDocument struct {
	Start int64 `bson:"start"`
	End   int64 `bson:"end"`
}

type guestDocument struct {
	Name           string `bson:"name"`
	Email          string `bson:"email"`
	Phone          string `bson:"phone"`
	PassportNumber string `bson:"passport_number,omitempty"`
	NationalID     string `bson:"national_id,omitempty"`
}

func newReservationDocument(r *reservations.Reservation) reservationDocument {
	return reservationDocument{
		ID:         string(r.ID),
		PropertyID: string(r.PropertyID),
		Type:       string(r.Type),
		Range:      rangeDocument{Start: r.Range.Start.UnixMilli(), End: r.Range.End.UnixMilli()},
		Months:     r.Months,
		Guest:      guestDocument(r.Guest),
		Total:      r.Total,
		CreatedAt:  r.CreatedAt.UnixMilli(),
		UpdatedAt:  r.UpdatedAt.UnixMilli(),
		Version:    r.Version,
	}
}

func (d reservationDocument) toAggregate() *reservations.Reservation {
	return &reservations.Reservation{
		ID:         reservations.ReservationID(d.ID),
		PropertyID: properties.PropertyID(d.PropertyID),
		Type:       properties.RentalType(d.Type),
		Range:      daterange.DateRange{Start: timestampToTime(d.Range.Start), End: timestampToTime(d.Range.End)},
		Months:     d.Months,
		Guest:      reservations.Guest(d.Guest),
		Total:      d.Total,
		CreatedAt:  timestampToTime(d.CreatedAt),
		UpdatedAt:  timestampToTime(d.UpdatedAt),
		Version:    d.Version,
	}
}

// timestampToTime decodes stored epoch milliseconds. Instants come back in UTC; the
// availability engine re-expresses them in its configured location.
func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

var _ reservations.Repository = (*ReservationRepository)(nil)

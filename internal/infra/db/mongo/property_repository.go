package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rentdesk/internal/domain/properties"
	"rentdesk/internal/domain/shared/money"
)

type PropertyRepository struct {
	col *mongo.Collection
}

func NewPropertyRepository(db *mongo.Database) *PropertyRepository {
	return &PropertyRepository{col: db.Collection("properties")}
}

func (r *PropertyRepository) ByID(ctx context.Context, id properties.PropertyID) (*properties.Property, error) {
	var doc propertyDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, properties.ErrPropertyNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *PropertyRepository) List(ctx context.Context) ([]*properties.Property, error) {
	opts := options.Find().SetSort(bson.D{{Key: "title", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	var docs []propertyDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*properties.Property, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toAggregate())
	}
	return out, nil
}

// Save upserts the property guarded by its version.
func (r *PropertyRepository) Save(ctx context.Context, p *properties.Property) error {
	doc := newPropertyDocument(p)
	filter := bson.M{"_id": doc.ID, "version": p.Version}
	doc.Version = p.Version + 1
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return properties.ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return properties.ErrConcurrentUpdate
	}
	p.Version = doc.Version
	return nil
}

type propertyDocument struct {
	ID             string      `bson:"_id"`
	Title          string      `bson:"title"`
	Address        string      `bson:"address"`
	Currency       string      `bson:"currency"`
	DailyRate      money.Money `bson:"daily_rate"`
	DailyEnabled   bool        `bson:"daily_enabled"`
	MonthlyRate    money.Money `bson:"monthly_rate"`
	MonthlyEnabled bool        `bson:"monthly_enabled"`
	CreatedAt      int64       `bson:"created_at"`
	UpdatedAt      int64       `bson:"updated_at"`
	Version        int64       `bson:"version"`
}

func newPropertyDocument(p *properties.Property) propertyDocument {
	return propertyDocument{
		ID:             string(p.ID),
		Title:          p.Title,
		Address:        p.Address,
		Currency:       p.Currency,
		DailyRate:      p.DailyRate,
		DailyEnabled:   p.DailyEnabled,
		MonthlyRate:    p.MonthlyRate,
		MonthlyEnabled: p.MonthlyEnabled,
		CreatedAt:      p.CreatedAt.UnixMilli(),
		UpdatedAt:      p.UpdatedAt.UnixMilli(),
		Version:        p.Version,
	}
}

func (d propertyDocument) toAggregate() *properties.Property {
	return &properties.Property{
		ID:             properties.PropertyID(d.ID),
		Title:          d.Title,
		Address:        d.Address,
		Currency:       d.Currency,
		DailyRate:      d.DailyRate,
		DailyEnabled:   d.DailyEnabled,
		MonthlyRate:    d.MonthlyRate,
		MonthlyEnabled: d.MonthlyEnabled,
		CreatedAt:      timestampToTime(d.CreatedAt),
		UpdatedAt:      timestampToTime(d.UpdatedAt),
		Version:        d.Version,
	}
}

var _ properties.Repository = (*PropertyRepository)(nil)

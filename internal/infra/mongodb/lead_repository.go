package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"github.com/xavierca1/edconsult-leads/internal/entity"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const DefaultCollection = "leads"

type LeadRepository struct {
	client     *Client
	collection string
}

func NewLeadRepository(client *Client, collection string) *LeadRepository {
	if collection == "" {
		collection = DefaultCollection
	}
	return &LeadRepository{client: client, collection: collection}
}

func (r *LeadRepository) coll(ctx context.Context) (*mongo.Collection, error) {
	return r.client.Collection(ctx, r.collection)
}

func indexModels() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}, {Key: "dayBucket", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("email_dayBucket_unique"),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("email_createdAt"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}},
			Options: options.Index().SetName("status"),
		},
	}
}

func (r *LeadRepository) EnsureSchema(ctx context.Context) error {
	coll, err := r.coll(ctx)
	if err != nil {
		return err
	}
	if _, err := coll.Indexes().CreateMany(ctx, indexModels()); err != nil {
		return eris.Wrap(err, "mongodb: create indexes")
	}
	return nil
}

func (r *LeadRepository) Create(ctx context.Context, lead *entity.Lead) error {
	lead.PrepareForCreate(time.Now())

	coll, err := r.coll(ctx)
	if err != nil {
		return err
	}
	if _, err := coll.InsertOne(ctx, lead); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return entity.ErrDuplicateLead
		}
		return eris.Wrap(err, "mongodb: insert lead")
	}
	return nil
}

func recentByEmailFilter(email string, since time.Time) bson.D {
	return bson.D{
		{Key: "email", Value: email},
		{Key: "createdAt", Value: bson.D{{Key: "$gte", Value: since.UTC()}}},
	}
}

func (r *LeadRepository) ExistsByEmailSince(ctx context.Context, email string, since time.Time) (bool, error) {
	coll, err := r.coll(ctx)
	if err != nil {
		return false, err
	}
	n, err := coll.CountDocuments(ctx, recentByEmailFilter(email, since), options.Count().SetLimit(1))
	if err != nil {
		return false, eris.Wrap(err, "mongodb: check recent lead")
	}
	return n > 0, nil
}

func (r *LeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	coll, err := r.coll(ctx)
	if err != nil {
		return nil, err
	}
	var lead entity.Lead
	err = coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&lead)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, entity.ErrLeadNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "mongodb: find lead %s", id)
	}
	return &lead, nil
}

func statusUpdate(status entity.LeadStatus, entry entity.TimelineEntry) bson.D {
	return bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "status", Value: string(status)},
			{Key: "updatedAt", Value: entry.Timestamp},
		}},
		{Key: "$push", Value: bson.D{{Key: "timeline", Value: entry}}},
	}
}

func (r *LeadRepository) UpdateStatus(ctx context.Context, id string, status entity.LeadStatus, entry entity.TimelineEntry) error {
	coll, err := r.coll(ctx)
	if err != nil {
		return err
	}
	res, err := coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: id}}, statusUpdate(status, entry))
	if err != nil {
		return eris.Wrapf(err, "mongodb: update lead %s", id)
	}
	if res.MatchedCount == 0 {
		return entity.ErrLeadNotFound
	}
	return nil
}

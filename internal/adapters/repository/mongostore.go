package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/okian/evalboard/internal/domain/model"
)

const defaultMongoTimeout = 5 * time.Second

// Collection names.
const (
	collInspectors    = "inspectors"
	collItems         = "evaluation_items"
	collRecords       = "evaluation_records"
	collTargets       = "targets"
	collNotifications = "notifications"
)

// MongoStore is a Store backed by MongoDB, one collection per entity.
type MongoStore struct {
	client  *mongo.Client
	db      *mongo.Database
	timeout time.Duration
	prefix  string
}

// NewMongoStore connects to uri, verifies the connection and ensures the
// indexes used by the record queries.
func NewMongoStore(ctx context.Context, uri, dbName string, opts ...MongoOption) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	s := &MongoStore{
		client:  client,
		db:      client.Database(dbName),
		timeout: defaultMongoTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	pingCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) coll(name string) *mongo.Collection {
	return s.db.Collection(s.prefix + name)
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.coll(collRecords).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "date", Value: 1}, {Key: "_id", Value: 1}}},
		{Keys: bson.D{{Key: "inspector_id", Value: 1}, {Key: "date", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create record indexes: %w", err)
	}
	_, err = s.coll(collNotifications).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "inspector_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create notification indexes: %w", err)
	}
	return nil
}

// recordQuery translates a filter into a MongoDB query document.
func recordQuery(f RecordFilter) bson.M {
	q := bson.M{}
	date := bson.M{}
	if f.DateFrom != "" {
		date["$gte"] = f.DateFrom
	}
	if f.DateTo != "" {
		date["$lte"] = f.DateTo
	}
	if len(date) > 0 {
		q["date"] = date
	}
	if f.InspectorID != "" {
		q["inspector_id"] = f.InspectorID
	}
	if f.Status != "" {
		q["status"] = string(f.Status)
	}
	if f.SubItem != "" {
		q["sub_item"] = f.SubItem
	}
	return q
}

func findAll[T any](ctx context.Context, c *mongo.Collection, filter any, opts ...*options.FindOptions) ([]T, error) {
	cur, err := c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MongoStore) ListRecords(ctx context.Context, f RecordFilter) ([]model.EvaluationRecord, error) {
	defer observe("list_records", time.Now())
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "_id", Value: 1}})
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}
	out, err := findAll[model.EvaluationRecord](ctx, s.coll(collRecords), recordQuery(f), opts)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return out, nil
}

// ListInspectors returns the roster ordered by id.
func (s *MongoStore) ListInspectors(ctx context.Context) ([]model.Inspector, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	out, err := findAll[model.Inspector](ctx, s.coll(collInspectors), bson.M{},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list inspectors: %w", err)
	}
	return out, nil
}

func (s *MongoStore) ListItems(ctx context.Context) ([]model.EvaluationItem, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	out, err := findAll[model.EvaluationItem](ctx, s.coll(collItems), bson.M{},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return out, nil
}

func (s *MongoStore) ListTargets(ctx context.Context) ([]model.Target, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	out, err := findAll[model.Target](ctx, s.coll(collTargets), bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list targets: %w", err)
	}
	return out, nil
}

func (s *MongoStore) Inspector(ctx context.Context, id string) (model.Inspector, error) {
	var in model.Inspector
	if err := s.findOne(ctx, collInspectors, id, &in); err != nil {
		return model.Inspector{}, fmt.Errorf("inspector %q: %w", id, err)
	}
	return in, nil
}

func (s *MongoStore) Item(ctx context.Context, id string) (model.EvaluationItem, error) {
	var it model.EvaluationItem
	if err := s.findOne(ctx, collItems, id, &it); err != nil {
		return model.EvaluationItem{}, fmt.Errorf("item %q: %w", id, err)
	}
	return it, nil
}

func (s *MongoStore) findOne(ctx context.Context, coll, id string, into any) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := s.coll(coll).FindOne(ctx, bson.M{"_id": id}).Decode(into)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

func (s *MongoStore) CreateRecord(ctx context.Context, r model.EvaluationRecord) error {
	defer observe("create_record", time.Now())
	if err := ValidateRecord(r); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if _, err := s.coll(collRecords).InsertOne(ctx, r); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("record %q: %w", r.ID, ErrDuplicate)
		}
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

func (s *MongoStore) UpdateRecordStatus(ctx context.Context, id string, status model.Status) error {
	return s.setStatus(ctx, collRecords, id, status)
}

func (s *MongoStore) UpdateItemStatus(ctx context.Context, id string, status model.Status) error {
	return s.setStatus(ctx, collItems, id, status)
}

func (s *MongoStore) setStatus(ctx context.Context, coll, id string, status model.Status) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidRecord, status)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	res, err := s.coll(coll).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"status": string(status)}})
	if err != nil {
		return fmt.Errorf("update %s status: %w", coll, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%s %q: %w", coll, id, ErrNotFound)
	}
	return nil
}

// replaceAll upserts every document by _id in one bulk write.
func (s *MongoStore) replaceAll(ctx context.Context, coll string, ids []string, docs []any) error {
	if len(docs) == 0 {
		return nil
	}
	models := make([]mongo.WriteModel, len(docs))
	for i, d := range docs {
		models[i] = mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": ids[i]}).
			SetReplacement(d).
			SetUpsert(true)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if _, err := s.coll(coll).BulkWrite(ctx, models, options.BulkWrite().SetOrdered(true)); err != nil {
		return fmt.Errorf("bulk write %s: %w", coll, err)
	}
	return nil
}

func (s *MongoStore) SaveBatchTargets(ctx context.Context, targets []model.Target) error {
	ids := make([]string, len(targets))
	docs := make([]any, len(targets))
	for i, t := range targets {
		if err := ValidateTarget(t); err != nil {
			return err
		}
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		ids[i], docs[i] = t.ID, t
	}
	return s.replaceAll(ctx, collTargets, ids, docs)
}

func (s *MongoStore) UpsertInspectors(ctx context.Context, inspectors []model.Inspector) error {
	ids := make([]string, len(inspectors))
	docs := make([]any, len(inspectors))
	for i, in := range inspectors {
		if in.ID == "" {
			return fmt.Errorf("%w: inspector without id", ErrInvalidRecord)
		}
		ids[i], docs[i] = in.ID, in
	}
	return s.replaceAll(ctx, collInspectors, ids, docs)
}

func (s *MongoStore) UpsertItems(ctx context.Context, items []model.EvaluationItem) error {
	ids := make([]string, len(items))
	docs := make([]any, len(items))
	for i, it := range items {
		if it.ID == "" {
			return fmt.Errorf("%w: item without id", ErrInvalidRecord)
		}
		if it.Status == "" {
			it.Status = model.StatusApproved
		}
		ids[i], docs[i] = it.ID, it
	}
	return s.replaceAll(ctx, collItems, ids, docs)
}

func (s *MongoStore) SaveNotification(ctx context.Context, n model.Notification) error {
	if n.InspectorID == "" {
		return fmt.Errorf("%w: notification without inspector", ErrInvalidRecord)
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if _, err := s.coll(collNotifications).InsertOne(ctx, n); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (s *MongoStore) ListNotifications(ctx context.Context, inspectorID string) ([]model.Notification, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	out, err := findAll[model.Notification](ctx, s.coll(collNotifications), bson.M{"inspector_id": inspectorID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return out, nil
}

func (s *MongoStore) Count(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.coll(collRecords).CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return int(n), nil
}

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoBackend maps store collections onto native MongoDB collections.
// Documents are stored with their JSON fields at the top level plus an
// _id mirror of the record id.
type MongoBackend struct {
	client *mongo.Client
	db     *mongo.Database
}

func NewMongoBackend(uri, dbName string) (*MongoBackend, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoBackend{client: client, db: client.Database(dbName)}, nil
}

func (b *MongoBackend) Insert(ctx context.Context, collection, id string, doc []byte) error {
	m, err := decodeJSONDoc(doc)
	if err != nil {
		return err
	}
	m["_id"] = id
	if _, err := b.db.Collection(collection).InsertOne(ctx, m); err != nil {
		return fmt.Errorf("failed to insert %s/%s: %w", collection, id, err)
	}
	return nil
}

func (b *MongoBackend) Get(ctx context.Context, collection, id string) ([]byte, error) {
	var m bson.M
	err := b.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s/%s: %w", collection, id, err)
	}
	return encodeJSONDoc(m)
}

func (b *MongoBackend) Replace(ctx context.Context, collection, id string, doc []byte) error {
	m, err := decodeJSONDoc(doc)
	if err != nil {
		return err
	}
	m["_id"] = id
	res, err := b.db.Collection(collection).ReplaceOne(ctx, bson.M{"_id": id}, m)
	if err != nil {
		return fmt.Errorf("failed to update %s/%s: %w", collection, id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (b *MongoBackend) Delete(ctx context.Context, collection, id string) error {
	res, err := b.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (b *MongoBackend) FindOne(ctx context.Context, collection string, filter Filter) ([]byte, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "_id", Value: 1}})
	var m bson.M
	err := b.db.Collection(collection).FindOne(ctx, mongoFilter(filter), opts).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", collection, err)
	}
	return encodeJSONDoc(m)
}

func (b *MongoBackend) Find(ctx context.Context, collection string, filter Filter, opts FindOptions) ([][]byte, int64, error) {
	opts = clampOptions(opts)
	coll := b.db.Collection(collection)
	mf := mongoFilter(filter)

	total, err := coll.CountDocuments(ctx, mf)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count %s: %w", collection, err)
	}

	sort := bson.D{{Key: "_id", Value: 1}}
	if opts.Sort != "" {
		dir := 1
		field := opts.Sort
		if strings.HasPrefix(field, "-") {
			field = field[1:]
			dir = -1
		}
		sort = bson.D{{Key: field, Value: dir}, {Key: "_id", Value: 1}}
	}

	findOpts := options.Find().
		SetSort(sort).
		SetSkip(int64((opts.Page - 1) * opts.Limit)).
		SetLimit(int64(opts.Limit))

	cursor, err := coll.Find(ctx, mf, findOpts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	var docs [][]byte
	for cursor.Next(ctx) {
		var m bson.M
		if err := cursor.Decode(&m); err != nil {
			return nil, 0, fmt.Errorf("failed to decode %s document: %w", collection, err)
		}
		doc, err := encodeJSONDoc(m)
		if err != nil {
			return nil, 0, err
		}
		docs = append(docs, doc)
	}
	if err := cursor.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read %s cursor: %w", collection, err)
	}
	return docs, total, nil
}

func (b *MongoBackend) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return b.client.Disconnect(ctx)
}

func mongoFilter(filter Filter) bson.M {
	m := bson.M{}
	for k, v := range filter {
		m[k] = v
	}
	return m
}

func decodeJSONDoc(doc []byte) (bson.M, error) {
	var m bson.M
	if err := bson.UnmarshalExtJSON(doc, false, &m); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return m, nil
}

func encodeJSONDoc(m bson.M) ([]byte, error) {
	delete(m, "_id")
	doc, err := bson.MarshalExtJSON(m, false, false)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return doc, nil
}

package slot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"storefront-client/internal/domain"
)

const mongoCollection = "session_slots"

type mongoSlot struct {
	Name    string    `bson:"_id"`
	Payload string    `bson:"payload"`
	SavedAt time.Time `bson:"saved_at"`
}

// Mongo stores the slot as one document keyed by the slot name.
type Mongo struct {
	client *mongo.Client
	coll   *mongo.Collection
	name   string
}

// ConnectMongo dials uri and verifies the connection with a ping.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	client, err := mongo.Connect(options.Client().ApplyURI(uri).SetServerAPIOptions(serverAPI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

func NewMongo(client *mongo.Client, database, name string) *Mongo {
	return &Mongo{
		client: client,
		coll:   client.Database(database).Collection(mongoCollection),
		name:   nameOrDefault(name),
	}
}

func (m *Mongo) Load(ctx context.Context) (*Record, error) {
	var doc mongoSlot
	if err := m.coll.FindOne(ctx, bson.D{{Key: "_id", Value: m.name}}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return decode([]byte(doc.Payload))
}

func (m *Mongo) Save(ctx context.Context, rec Record) error {
	raw, err := encode(rec)
	if err != nil {
		return err
	}
	doc := mongoSlot{Name: m.name, Payload: string(raw), SavedAt: time.Now().UTC()}
	_, err = m.coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: m.name}}, doc, options.Replace().SetUpsert(true))
	return err
}

func (m *Mongo) Clear(ctx context.Context) error {
	_, err := m.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: m.name}})
	return err
}

func (m *Mongo) Close() error {
	return m.client.Disconnect(context.Background())
}

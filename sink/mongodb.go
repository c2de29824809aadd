package sink

import (
	"context"
	"maps"
	"time"

	"github.com/edgeadmin/edgeadmin/config"
	"github.com/edgeadmin/edgeadmin/diag/telemetry"
	"github.com/edgeadmin/edgeadmin/log"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type mongoDbStore struct {
	mongoDb    *mongo.Client
	collection *mongo.Collection
	log        log.Logger
}

func newMongoDb(ctx context.Context, conf *config.MongoDbConfig, telemetryReporter telemetry.Reporter, log log.Logger) (*mongoDbStore, error) {
	opts := options.Client().ApplyURI(conf.Url)
	telemetryReporter.InstrumentMongoDb(opts)
	client, err := mongo.Connect(opts)
	if err != nil {
		log.Errorf("couldn't connect to MongoDB: %s", err)
		return nil, err
	}
	collection := client.Database(conf.Database).Collection(conf.Collection)
	_, err = collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: collectionName, Value: 1}, {Key: uuidName, Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		log.Errorf("couldn't create the 'collection, uuid' index in the '%s' MongoDB collection: %s", conf.Collection, err)
		_ = client.Disconnect(ctx)
		return nil, err
	}
	log.Reportf("using MongoDB for export storage")
	return &mongoDbStore{
		mongoDb:    client,
		collection: collection,
		log:        log,
	}, nil
}

// Write upserts the entities by collection and uuid.
func (m *mongoDbStore) Write(ctx context.Context, collection string, entities []map[string]any) error {
	models := make([]mongo.WriteModel, 0, len(entities))
	for _, e := range entities {
		_, id, err := entityKey(collection, e)
		if err != nil {
			return err
		}
		doc := bson.M{}
		maps.Copy(doc, e)
		doc[collectionName] = collection
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{collectionName: collection, uuidName: id}).
			SetReplacement(doc).
			SetUpsert(true))
	}
	if len(models) == 0 {
		return nil
	}
	_, err := m.collection.BulkWrite(ctx, models)
	return err
}

func (m *mongoDbStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := m.mongoDb.Disconnect(ctx)
	if err != nil {
		m.log.Errorf("shutdown error: %s", err)
		return err
	}
	m.log.Reportf("shutdown complete")
	return nil
}

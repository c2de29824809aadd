// Package sink stores exported BaaS entities in a JSON file or an external database.
package sink

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/edgeadmin/edgeadmin/config"
	"github.com/edgeadmin/edgeadmin/diag/telemetry"
	"github.com/edgeadmin/edgeadmin/log"
)

const (
	keyName        = "key"
	payloadName    = "payload"
	collectionName = "collection"
	uuidName       = "uuid"
)

type Sink interface {
	Write(ctx context.Context, collection string, entities []map[string]any) error
	Close() error
}

// Setup opens the enabled database sink, or the JSON file sink at file when none is enabled.
func Setup(conf *config.SinkConfig, file string, telemetryReporter telemetry.Reporter, log log.Logger) (Sink, error) {
	sinkLog := log.WithPrefix("sink")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second) // give 15 sec to spin up the connection
	defer cancel()

	switch {
	case conf.Redis.Enabled:
		return newRedis(&conf.Redis, telemetryReporter, sinkLog), nil
	case conf.MongoDb.Enabled:
		return newMongoDb(ctx, &conf.MongoDb, telemetryReporter, sinkLog)
	case conf.DynamoDb.Enabled:
		return newDynamoDb(ctx, &conf.DynamoDb, telemetryReporter, sinkLog)
	}
	if file == "" {
		return nil, errors.New("sink: an output file is required when no database is enabled")
	}
	return newFile(file, sinkLog)
}

func entityKey(collection string, entity map[string]any) (string, string, error) {
	id, ok := entity[uuidName].(string)
	if !ok || id == "" {
		return "", "", fmt.Errorf("sink: an entity of %s has no uuid", collection)
	}
	return collection + ":" + id, id, nil
}

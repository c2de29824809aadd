package sink

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/edgeadmin/edgeadmin/config"
	"github.com/edgeadmin/edgeadmin/diag/telemetry"
	"github.com/edgeadmin/edgeadmin/log"
	"github.com/redis/go-redis/v9"
)

type redisStore struct {
	redisDb redis.UniversalClient
	log     log.Logger
}

func newRedis(conf *config.RedisConfig, telemetryReporter telemetry.Reporter, log log.Logger) *redisStore {
	opts := &redis.UniversalOptions{
		Addrs:    conf.Addresses,
		Password: conf.Password,
		DB:       conf.DB,
	}
	if conf.User != "" {
		opts.Username = conf.User
	}
	rdb := redis.NewUniversalClient(opts)
	telemetryReporter.InstrumentRedis(rdb)
	log.Reportf("using Redis for export storage")
	return &redisStore{
		redisDb: rdb,
		log:     log,
	}
}

// Write sets <collection>:<uuid> to the JSON of every entity in one pipeline.
func (r *redisStore) Write(ctx context.Context, collection string, entities []map[string]any) error {
	pipe := r.redisDb.Pipeline()
	for _, e := range entities {
		key, _, err := entityKey(collection, e)
		if err != nil {
			return err
		}
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("sink: failed to encode entity %s: %w", key, err)
		}
		pipe.Set(ctx, key, data, 0)
	}
	if pipe.Len() == 0 {
		return nil
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (r *redisStore) Close() error {
	err := r.redisDb.Close()
	if err != nil {
		r.log.Errorf("shutdown error: %s", err)
		return err
	}
	r.log.Reportf("shutdown complete")
	return nil
}

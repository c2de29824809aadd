package sink

import (
	"context"
	"testing"

	"github.com/edgeadmin/edgeadmin/config"
	"github.com/edgeadmin/edgeadmin/diag/telemetry"
	"github.com/edgeadmin/edgeadmin/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type mongoTestSuite struct {
	suite.Suite

	db   *mongodb.MongoDBContainer
	addr string
}

func (s *mongoTestSuite) SetupSuite() {
	mongodbContainer, err := mongodb.Run(context.Background(), "mongo")
	if err != nil {
		panic("failed to start container: " + err.Error() + "")
	}
	s.db = mongodbContainer
	str, _ := s.db.ConnectionString(context.Background())
	s.addr = str
}

func (s *mongoTestSuite) TearDownSuite() {
	if err := s.db.Terminate(context.Background()); err != nil {
		panic("failed to terminate container: " + err.Error() + "")
	}
}

func TestRunMongoSuite(t *testing.T) {
	suite.Run(t, new(mongoTestSuite))
}

func (s *mongoTestSuite) TestMongoDbStore() {
	store, err := newMongoDb(context.Background(), &config.MongoDbConfig{
		Enabled:    true,
		Url:        s.addr,
		Database:   "test_db",
		Collection: "entities",
	}, telemetry.NewEmptyReporter(), log.NewNullLogger())
	require.NoError(s.T(), err)
	defer func() { _ = store.Close() }()

	require.NoError(s.T(), store.Write(context.Background(), "users", []map[string]any{{"uuid": "u1", "name": "a"}}))
	require.NoError(s.T(), store.Write(context.Background(), "users", []map[string]any{{"uuid": "u1", "name": "b"}}))
	require.NoError(s.T(), store.Write(context.Background(), "pets", []map[string]any{{"uuid": "u1", "name": "c"}}))

	count, err := store.collection.CountDocuments(context.Background(), bson.M{collectionName: "users"})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(1), count)

	var doc bson.M
	require.NoError(s.T(), store.collection.FindOne(context.Background(), bson.M{collectionName: "users", uuidName: "u1"}).Decode(&doc))
	assert.Equal(s.T(), "b", doc["name"])
}

func (s *mongoTestSuite) TestMongoDbStore_Invalid() {
	_, err := newMongoDb(context.Background(), &config.MongoDbConfig{
		Enabled:    true,
		Url:        "invalid",
		Database:   "test_db",
		Collection: "entities",
	}, telemetry.NewEmptyReporter(), log.NewNullLogger())
	assert.Error(s.T(), err)
}

package sink

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/edgeadmin/edgeadmin/config"
	"github.com/edgeadmin/edgeadmin/diag/telemetry"
	"github.com/edgeadmin/edgeadmin/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_File(t *testing.T) {
	file := filepath.Join(t.TempDir(), "out.json")
	s, err := Setup(&config.SinkConfig{}, file, telemetry.NewEmptyReporter(), log.NewNullLogger())
	require.NoError(t, err)
	_, ok := s.(*fileStore)
	assert.True(t, ok)
	require.NoError(t, s.Close())
}

func TestSetup_NoFile(t *testing.T) {
	_, err := Setup(&config.SinkConfig{}, "", telemetry.NewEmptyReporter(), log.NewNullLogger())
	assert.ErrorContains(t, err, "an output file is required")
}

func TestSetup_Redis(t *testing.T) {
	srv := miniredis.RunT(t)
	s, err := Setup(&config.SinkConfig{Redis: config.RedisConfig{Enabled: true, Addresses: []string{srv.Addr()}}}, "", telemetry.NewEmptyReporter(), log.NewNullLogger())
	require.NoError(t, err)
	_, ok := s.(*redisStore)
	assert.True(t, ok)
	require.NoError(t, s.Close())
}

func TestFileStore(t *testing.T) {
	file := filepath.Join(t.TempDir(), "out.json")
	s, err := newFile(file, log.NewNullLogger())
	require.NoError(t, err)

	require.NoError(t, s.Write(t.Context(), "users", []map[string]any{{"uuid": "u1", "name": "a"}}))
	require.NoError(t, s.Write(t.Context(), "users", nil))
	require.NoError(t, s.Write(t.Context(), "users", []map[string]any{{"uuid": "u2"}, {"uuid": "u3"}}))
	require.NoError(t, s.Close())

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	var entities []map[string]any
	require.NoError(t, json.Unmarshal(data, &entities))
	require.Len(t, entities, 3)
	assert.Equal(t, "a", entities[0]["name"])
	assert.Equal(t, "u3", entities[2]["uuid"])
}

func TestFileStore_Empty(t *testing.T) {
	file := filepath.Join(t.TempDir(), "out.json")
	s, err := newFile(file, log.NewNullLogger())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}

func TestRedisStore(t *testing.T) {
	srv := miniredis.RunT(t)
	s := newRedis(&config.RedisConfig{Addresses: []string{srv.Addr()}}, telemetry.NewEmptyReporter(), log.NewNullLogger())
	defer func() { _ = s.Close() }()

	require.NoError(t, s.Write(t.Context(), "users", []map[string]any{{"uuid": "u1", "name": "a"}, {"uuid": "u2"}}))
	require.NoError(t, s.Write(t.Context(), "users", nil))

	val, err := srv.Get("users:u1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"uuid":"u1","name":"a"}`, val)
	assert.True(t, srv.Exists("users:u2"))
}

func TestRedisStore_MissingUuid(t *testing.T) {
	srv := miniredis.RunT(t)
	s := newRedis(&config.RedisConfig{Addresses: []string{srv.Addr()}}, telemetry.NewEmptyReporter(), log.NewNullLogger())
	defer func() { _ = s.Close() }()

	err := s.Write(t.Context(), "users", []map[string]any{{"name": "a"}})
	assert.ErrorContains(t, err, "an entity of users has no uuid")
	assert.False(t, srv.Exists("users:"))
}

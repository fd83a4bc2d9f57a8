package persistence

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/gomodule/redigo/redis"

	"github.com/wfunc/monopoly/models"
)

const (
	redisSnapshotKey  = "monopoly:snapshot:"
	redisSnapshotList = "monopoly:snapshots"
	// redisKeep bounds the list of recent snapshot ids.
	redisKeep = 100
)

// RedisSnapshots caches dumps in redis: one key per game plus a list of
// recently saved ids, newest first.
type RedisSnapshots struct {
	pool *redis.Pool
}

func NewRedisSnapshots(addr string) *RedisSnapshots {
	return NewRedisSnapshotsWithPool(&redis.Pool{
		MaxIdle:     10,
		IdleTimeout: 60 * time.Second,
		Dial: func() (redis.Conn, error) {
			return redis.Dial("tcp", addr, redis.DialConnectTimeout(5*time.Second))
		},
	})
}

func NewRedisSnapshotsWithPool(pool *redis.Pool) *RedisSnapshots {
	return &RedisSnapshots{pool: pool}
}

func (r *RedisSnapshots) SaveSnapshot(snap *models.Snapshot) error {
	s := *snap
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	data, err := json.Marshal(&s)
	if err != nil {
		return err
	}

	conn := r.pool.Get()
	defer conn.Close()

	conn.Send("MULTI")
	conn.Send("SET", redisSnapshotKey+s.GameID, data)
	conn.Send("LREM", redisSnapshotList, 0, s.GameID)
	conn.Send("LPUSH", redisSnapshotList, s.GameID)
	conn.Send("LTRIM", redisSnapshotList, 0, redisKeep-1)
	_, err = conn.Do("EXEC")
	return err
}

func (r *RedisSnapshots) LoadSnapshot(gameID string) (*models.Snapshot, error) {
	conn := r.pool.Get()
	defer conn.Close()

	if isLatest(gameID) {
		id, err := redis.String(conn.Do("LINDEX", redisSnapshotList, 0))
		if err != nil {
			if errors.Is(err, redis.ErrNil) {
				return nil, ErrRecordNotFound
			}
			return nil, err
		}
		gameID = id
	}

	data, err := redis.Bytes(conn.Do("GET", redisSnapshotKey+gameID))
	if err != nil {
		if errors.Is(err, redis.ErrNil) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	var snap models.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (r *RedisSnapshots) Close() error {
	return r.pool.Close()
}

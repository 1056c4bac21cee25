package boltdb

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"telegram-horoscope-bot/internal/domain"
	"telegram-horoscope-bot/internal/domain/model"
	"telegram-horoscope-bot/internal/domain/ports/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

var bucketUsers = []byte("users")

// UserRepo keeps user records in an embedded bbolt file, one JSON value per
// user under a big-endian id key so cursor order is id order.
type UserRepo struct {
	db  *bolt.DB
	now func() time.Time
}

func Open(path string) (*UserRepo, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, e := tx.CreateBucketIfNotExists(bucketUsers)
		return e
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &UserRepo{db: db, now: time.Now}, nil
}

func (r *UserRepo) Close() error { return r.db.Close() }

func userKey(id int64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, uint64(id))
	return k
}

func (r *UserRepo) Get(ctx context.Context, userID int64) (*model.UserRecord, error) {
	var u model.UserRecord
	err := r.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketUsers).Get(userKey(userID))
		if v == nil {
			return domain.ErrNotFound
		}
		return json.Unmarshal(v, &u)
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Upsert reads, merges and writes inside a single read-write transaction;
// bbolt serializes writers, so concurrent upserts never lose fields.
func (r *UserRepo) Upsert(ctx context.Context, userID int64, patch model.UserPatch) error {
	if userID <= 0 {
		return domain.ErrInvalidArgument
	}
	if err := patch.Validate(); err != nil {
		return err
	}
	now := r.now()
	return r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketUsers)
		key := userKey(userID)
		u := model.UserRecord{UserID: userID, CreatedAt: now}
		if v := b.Get(key); v != nil {
			if err := json.Unmarshal(v, &u); err != nil {
				return fmt.Errorf("decode user %d: %w", userID, err)
			}
		}
		patch.Apply(&u)
		u.UpdatedAt = now
		data, err := json.Marshal(u)
		if err != nil {
			return err
		}
		return b.Put(key, data)
	})
}

func (r *UserRepo) ListWithSign(ctx context.Context, offset, limit int) ([]*model.UserRecord, error) {
	out := make([]*model.UserRecord, 0)
	skipped := 0
	err := r.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketUsers).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var u model.UserRecord
			if err := json.Unmarshal(v, &u); err != nil {
				return err
			}
			if u.ChosenSign == "" {
				continue
			}
			if skipped < offset {
				skipped++
				continue
			}
			out = append(out, &u)
			if limit > 0 && len(out) >= limit {
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *UserRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(bucketUsers).Stats().KeyN
		return nil
	})
	return n, err
}

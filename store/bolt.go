package store

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/goccy/go-json"
	"github.com/golang/geo/s2"
	bolt "go.etcd.io/bbolt"

	"github.com/rotblauer/catTrips/model"
)

var (
	tracksKey   = []byte("tracks")
	analysisKey = []byte("analysis")
	cellsKey    = []byte("cells")
)

// Bolt stores points under tracks/<user>/<stream>, keyed on time.UnixNano then point id,
// and records under analysis/<user>/<key>/<entity id>.
type Bolt struct {
	db *bolt.DB
}

// OpenBolt opens or creates the database at path along with its top level buckets.
func OpenBolt(path string, timeout time.Duration) (*Bolt, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := bolt.Open(path, 0666, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("open bolt db %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, k := range [][]byte{tracksKey, analysisKey, cellsKey} {
			if _, e := tx.CreateBucketIfNotExists(k); e != nil {
				return e
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init buckets: %w", err)
	}
	return &Bolt{db: db}, nil
}

// DB is the underlying handle.
func (b *Bolt) DB() *bolt.DB {
	return b.db
}

func (b *Bolt) Close() error {
	return b.db.Close()
}

// I64tob returns an 8-byte big endian representation of v.
func I64tob(v int64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, uint64(v))
	return k
}

func Btoi64(k []byte) int64 {
	return int64(binary.BigEndian.Uint64(k[0:8]))
}

func tsNanos(ts float64) int64 {
	return int64(ts * 1e9)
}

func pointKeyBytes(p model.Point) []byte {
	return append(I64tob(tsNanos(p.Ts)), []byte(p.ID)...)
}

// nested walks down a chain of buckets, nil if any is missing.
func nested(tx *bolt.Tx, names ...string) *bolt.Bucket {
	var b *bolt.Bucket
	for i, n := range names {
		if i == 0 {
			b = tx.Bucket([]byte(n))
		} else {
			b = b.Bucket([]byte(n))
		}
		if b == nil {
			return nil
		}
	}
	return b
}

func nestedCreate(tx *bolt.Tx, names ...string) (*bolt.Bucket, error) {
	b, err := tx.CreateBucketIfNotExists([]byte(names[0]))
	if err != nil {
		return nil, err
	}
	for _, n := range names[1:] {
		b, err = b.CreateBucketIfNotExists([]byte(n))
		if err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (b *Bolt) Users(ctx context.Context) ([]string, error) {
	seen := map[string]bool{}
	err := b.db.View(func(tx *bolt.Tx) error {
		for _, top := range [][]byte{tracksKey, analysisKey} {
			bk := tx.Bucket(top)
			if bk == nil {
				continue
			}
			bk.ForEach(func(k, v []byte) error {
				if v == nil {
					seen[string(k)] = true
				}
				return nil
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	users := make([]string, 0, len(seen))
	for u := range seen {
		users = append(users, u)
	}
	sort.Strings(users)
	return users, nil
}

func (b *Bolt) AppendPoints(ctx context.Context, user, stream string, points []model.Point) (int, error) {
	if err := checkUser(user); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	added := 0
	err := b.db.Update(func(tx *bolt.Tx) error {
		bk, err := nestedCreate(tx, string(tracksKey), user, stream)
		if err != nil {
			return err
		}
		for _, p := range points {
			val, err := json.Marshal(p)
			if err != nil {
				return fmt.Errorf("marshal point %s: %w", p.ID, err)
			}
			k := pointKeyBytes(p)
			if bk.Get(k) == nil {
				added++
			}
			if err := bk.Put(k, val); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("append %s/%s: %w", user, stream, err)
	}
	return added, nil
}

func (b *Bolt) Points(ctx context.Context, user, stream string, tq TimeQuery) ([]model.Point, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []model.Point
	err := b.db.View(func(tx *bolt.Tx) error {
		bk := nested(tx, string(tracksKey), user, stream)
		if bk == nil {
			return nil
		}
		endNanos := int64(1<<63 - 1)
		if tq.End != 0 {
			endNanos = tsNanos(tq.End)
		}
		c := bk.Cursor()
		for k, v := c.Seek(I64tob(tsNanos(tq.Start))); k != nil && Btoi64(k) <= endNanos; k, v = c.Next() {
			var p model.Point
			if err := json.Unmarshal(v, &p); err != nil {
				return fmt.Errorf("decode point %x: %w", k, err)
			}
			if tq.Contains(p.Ts) {
				out = append(out, p)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (b *Bolt) LastTs(ctx context.Context, user, stream string) (float64, error) {
	var last float64
	err := b.db.View(func(tx *bolt.Tx) error {
		bk := nested(tx, string(tracksKey), user, stream)
		if bk == nil {
			return ErrNotFound
		}
		k, v := bk.Cursor().Last()
		if k == nil {
			return ErrNotFound
		}
		var p model.Point
		if err := json.Unmarshal(v, &p); err != nil {
			return err
		}
		last = p.Ts
		return nil
	})
	return last, err
}

func (b *Bolt) PutEntry(ctx context.Context, user, key, entityID string, e Entry) error {
	if err := checkUser(user); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	val, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		bk, err := nestedCreate(tx, string(analysisKey), user, key)
		if err != nil {
			return err
		}
		return bk.Put([]byte(entityID), val)
	})
}

func (b *Bolt) Entry(ctx context.Context, user, key, entityID string) (Entry, error) {
	var e Entry
	err := b.db.View(func(tx *bolt.Tx) error {
		bk := nested(tx, string(analysisKey), user, key)
		if bk == nil {
			return ErrNotFound
		}
		v := bk.Get([]byte(entityID))
		if v == nil {
			return ErrNotFound
		}
		return json.Unmarshal(v, &e)
	})
	return e, err
}

func (b *Bolt) DeleteEntry(ctx context.Context, user, key, entityID string) error {
	if err := checkUser(user); err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		bk := nested(tx, string(analysisKey), user, key)
		if bk == nil {
			return nil
		}
		return bk.Delete([]byte(entityID))
	})
}

func (b *Bolt) Entries(ctx context.Context, user, key string) ([]Entry, error) {
	out := []Entry{}
	err := b.db.View(func(tx *bolt.Tx) error {
		bk := nested(tx, string(analysisKey), user, key)
		if bk == nil {
			return nil
		}
		return bk.ForEach(func(k, v []byte) error {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("decode entry %s: %w", k, err)
			}
			out = append(out, e)
			return nil
		})
	})
	return out, err
}

// ReplaceCells keys each id under the big endian form of its cell, the same way
// the old geohash bucket did, so a cell's range is one cursor walk.
func (b *Bolt) ReplaceCells(ctx context.Context, user, key string, cells map[string]s2.CellID) error {
	if err := checkUser(user); err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		ub, err := nestedCreate(tx, string(cellsKey), user)
		if err != nil {
			return err
		}
		if ub.Bucket([]byte(key)) != nil {
			if err := ub.DeleteBucket([]byte(key)); err != nil {
				return err
			}
		}
		bk, err := ub.CreateBucket([]byte(key))
		if err != nil {
			return err
		}
		for id, c := range cells {
			k := append(I64tob(int64(c)), []byte(id)...)
			if err := bk.Put(k, []byte(id)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *Bolt) InCell(ctx context.Context, user, key string, c s2.CellID) ([]string, error) {
	bmin := make([]byte, 8)
	bmax := make([]byte, 8)
	binary.BigEndian.PutUint64(bmin, uint64(c.RangeMin()))
	binary.BigEndian.PutUint64(bmax, uint64(c.RangeMax()))

	var ids []string
	err := b.db.View(func(tx *bolt.Tx) error {
		bk := nested(tx, string(cellsKey), user, key)
		if bk == nil {
			return nil
		}
		cur := bk.Cursor()
		for k, v := cur.Seek(bmin); k != nil && bytes.Compare(k[:8], bmax) <= 0; k, v = cur.Next() {
			ids = append(ids, string(v))
		}
		return nil
	})
	sort.Strings(ids)
	return ids, err
}

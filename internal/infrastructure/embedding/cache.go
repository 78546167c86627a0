package embedding

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/rulevii/compliance-rag/internal/core/domain"
)

const cacheKeyPrefix = "qemb:"

// Cache keeps query embeddings on disk so repeated questions skip the model call.
// Entries expire after the configured TTL.
type Cache struct {
	db     *badger.DB
	ttl    time.Duration
	logger *slog.Logger
}

// badgerLogger routes badger's own logging into slog.
type badgerLogger struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLogger)(nil)

func (l *badgerLogger) Errorf(msg string, items ...any)   { l.logger.Error(fmt.Sprintf(msg, items...)) }
func (l *badgerLogger) Warningf(msg string, items ...any) { l.logger.Warn(fmt.Sprintf(msg, items...)) }
func (l *badgerLogger) Infof(msg string, items ...any)    { l.logger.Debug(fmt.Sprintf(msg, items...)) }
func (l *badgerLogger) Debugf(msg string, items ...any)   { l.logger.Debug(fmt.Sprintf(msg, items...)) }

// OpenCache opens the cache at dir; an empty dir keeps it in memory.
func OpenCache(dir string, ttl time.Duration, logger *slog.Logger) (*Cache, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var opts badger.Options
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
		opts = badger.DefaultOptions(dir)
	}
	opts.Logger = &badgerLogger{logger: logger.With("component", "embedding-cache")}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open embedding cache: %w", err)
	}
	return &Cache{db: db, ttl: ttl, logger: logger}, nil
}

func (c *Cache) Get(model, text string) (domain.Vector, bool) {
	var vector domain.Vector
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(cacheKey(model, text))
		if err != nil {
			return err
		}
		return item.Value(func(raw []byte) error {
			decoded, err := decodeVector(raw)
			if err != nil {
				return err
			}
			vector = decoded
			return nil
		})
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			c.logger.Warn("embedding cache read failed", "model", model, "error", err)
		}
		return nil, false
	}
	return vector, true
}

func (c *Cache) Put(model, text string, vector domain.Vector) error {
	return c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(cacheKey(model, text), encodeVector(vector))
		if c.ttl > 0 {
			entry = entry.WithTTL(c.ttl)
		}
		return txn.SetEntry(entry)
	})
}

func (c *Cache) Close() error {
	return c.db.Close()
}

func cacheKey(model, text string) []byte {
	sum := sha256.Sum256([]byte(model + "\x00" + text))
	key := make([]byte, 0, len(cacheKeyPrefix)+len(sum))
	key = append(key, cacheKeyPrefix...)
	return append(key, sum[:]...)
}

func encodeVector(vector domain.Vector) []byte {
	out := make([]byte, 4*len(vector))
	for i, v := range vector {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}

func decodeVector(raw []byte) (domain.Vector, error) {
	if len(raw) == 0 || len(raw)%4 != 0 {
		return nil, fmt.Errorf("cached vector has %d bytes", len(raw))
	}
	out := make(domain.Vector, len(raw)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return out, nil
}

package host

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v4"
	json "github.com/goccy/go-json"

	"github.com/nmxmxh/fot_agents/internal/utils"
)

var (
	ErrMissingOperation = errors.New("graph payload has no operation")
	ErrNoSelector       = errors.New("graph query names no indexed field")
)

const (
	recordPrefix = "rec/"
	indexPrefix  = "idx/"
)

// GraphOptions selects where the graph lives.
type GraphOptions struct {
	Path     string
	InMemory bool
}

// GraphStore is a small document graph on badger. Every mutation is kept
// whole and indexed by its concept and *_id fields; a query returns all
// records matching every indexed field it names.
type GraphStore struct {
	db     *badger.DB
	logger *utils.Logger
}

// OpenGraph opens (or creates) the store.
func OpenGraph(opts GraphOptions, logger *utils.Logger) (*GraphStore, error) {
	if logger == nil {
		logger = utils.NopLogger()
	}
	var bopts badger.Options
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if opts.Path == "" {
			return nil, utils.NewError("graph path required unless in-memory")
		}
		bopts = badger.DefaultOptions(opts.Path)
	}
	bopts = bopts.WithLogger(badgerLogger{logger}).WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, utils.WrapError(err, "open graph")
	}
	logger.Info("Graph opened", utils.String("path", opts.Path), utils.Bool("in_memory", opts.InMemory))
	return &GraphStore{db: db, logger: logger}, nil
}

func (g *GraphStore) Close() error {
	return g.db.Close()
}

// indexed reports whether a payload field participates in lookups.
func indexed(field string) bool {
	return field == "concept" || (strings.HasSuffix(field, "_id") && field != "request_id")
}

// indexKey is idx/<hex field>/<hex value>/. Hex keeps '/' out of both
// segments, so one value's prefix never matches a longer value.
func indexKey(field, value string) string {
	return indexPrefix + hex.EncodeToString([]byte(field)) + "/" + hex.EncodeToString([]byte(value)) + "/"
}

func selectors(doc map[string]any) []string {
	var out []string
	for field, v := range doc {
		if !indexed(field) {
			continue
		}
		switch v.(type) {
		case string, float64, bool:
			out = append(out, indexKey(field, fmt.Sprint(v)))
		}
	}
	sort.Strings(out)
	return out
}

func parse(payload []byte) (map[string]any, error) {
	var doc map[string]any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, utils.WrapError(err, "graph payload")
	}
	if op, _ := doc["operation"].(string); op == "" {
		return nil, ErrMissingOperation
	}
	return doc, nil
}

// Apply stores a mutation and answers with its record id.
func (g *GraphStore) Apply(ctx context.Context, mutation []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := parse(mutation)
	if err != nil {
		return nil, err
	}
	id, _ := doc["request_id"].(string)
	if id == "" {
		if id, err = utils.GenerateID(); err != nil {
			return nil, err
		}
	}

	err = g.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(recordPrefix+id), mutation); err != nil {
			return err
		}
		for _, sel := range selectors(doc) {
			if err := txn.Set([]byte(sel+id), nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, utils.WrapError(err, "graph write")
	}

	g.logger.Debug("Graph mutation applied", utils.String("id", id), utils.String("operation", doc["operation"].(string)))
	return json.Marshal(map[string]any{"ok": true, "id": id})
}

// Query returns a JSON array of every stored mutation matching all the
// indexed fields of query, ordered by record id.
func (g *GraphStore) Query(ctx context.Context, query []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := parse(query)
	if err != nil {
		return nil, err
	}
	sels := selectors(doc)
	if len(sels) == 0 {
		return nil, ErrNoSelector
	}

	records := []json.RawMessage{}
	err = g.db.View(func(txn *badger.Txn) error {
		var ids map[string]bool
		for _, sel := range sels {
			matched := scanIDs(txn, []byte(sel))
			if ids == nil {
				ids = matched
				continue
			}
			for id := range ids {
				if !matched[id] {
					delete(ids, id)
				}
			}
		}

		sorted := make([]string, 0, len(ids))
		for id := range ids {
			sorted = append(sorted, id)
		}
		sort.Strings(sorted)

		for _, id := range sorted {
			item, err := txn.Get([]byte(recordPrefix + id))
			if err != nil {
				return err
			}
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			records = append(records, json.RawMessage(val))
		}
		return nil
	})
	if err != nil {
		return nil, utils.WrapError(err, "graph read")
	}
	return json.Marshal(records)
}

func scanIDs(txn *badger.Txn, prefix []byte) map[string]bool {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	ids := make(map[string]bool)
	for it.Rewind(); it.ValidForPrefix(prefix); it.Next() {
		ids[string(bytes.TrimPrefix(it.Item().Key(), prefix))] = true
	}
	return ids
}

// badgerLogger routes badger's printf logging into the component logger.
type badgerLogger struct {
	l *utils.Logger
}

func (b badgerLogger) Errorf(format string, args ...interface{}) {
	b.l.Error(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (b badgerLogger) Warningf(format string, args ...interface{}) {
	b.l.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (b badgerLogger) Infof(format string, args ...interface{}) {
	b.l.Info(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (b badgerLogger) Debugf(format string, args ...interface{}) {
	b.l.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

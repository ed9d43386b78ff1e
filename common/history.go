package common

import (
	"errors"
	"time"

	"go.etcd.io/bbolt"
	"gopkg.in/yaml.v2"
)

var BUCKET_RUNS = []byte("runs")

// fixed width and always UTC so keys sort as times do
const HISTORY_TIME_FORMAT = "2006-01-02T15:04:05.000000000Z"

func HistoryTime(t time.Time) string {
	return t.UTC().Format(HISTORY_TIME_FORMAT)
}

// RunRecord is what we keep from every harness run.
type RunRecord struct {
	Chain     string           `yaml:"chain"`
	StartedAt string           `yaml:"started-at"`
	Results   []ScenarioRecord `yaml:"results"`
}

type ScenarioRecord struct {
	Name   string `yaml:"name"`
	Status string `yaml:"status"`
	Error  string `yaml:"error,omitempty"`
	Millis int64  `yaml:"millis"`
}

type History struct {
	db *bbolt.DB
}

func OpenHistory(path string) (*History, error) {
	db, err := bbolt.Open(path, 0644, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(txn *bbolt.Tx) error {
		_, err := txn.CreateBucketIfNotExists(BUCKET_RUNS)
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &History{db: db}, nil
}

func (h *History) Close() error {
	return h.db.Close()
}

// Record stores a run under its start time, so keys sort chronologically.
func (h *History) Record(run RunRecord) error {
	if run.StartedAt == "" {
		return errors.New("run has no start time")
	}
	value, err := yaml.Marshal(run)
	if err != nil {
		return err
	}

	return h.db.Update(func(txn *bbolt.Tx) error {
		return txn.Bucket(BUCKET_RUNS).Put([]byte(run.StartedAt), value)
	})
}

// Last returns up to n runs, newest first.
func (h *History) Last(n int) ([]RunRecord, error) {
	var runs []RunRecord
	err := h.db.View(func(txn *bbolt.Tx) error {
		c := txn.Bucket(BUCKET_RUNS).Cursor()
		for k, v := c.Last(); k != nil && len(runs) < n; k, v = c.Prev() {
			var run RunRecord
			if err := yaml.Unmarshal(v, &run); err != nil {
				return err
			}
			runs = append(runs, run)
		}
		return nil
	})
	return runs, err
}

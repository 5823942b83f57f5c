// Package boltdb keeps the task history in a bbolt file.
package boltdb

import (
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/mytube/mytube/internal/session"
)

var Buckets = struct {
	Metadata []byte
	Tasks    []byte
}{
	Metadata: []byte("__metadata__"),
	Tasks:    []byte("tasks"),
}

var MetadataKeys = struct {
	Version []byte
}{
	Version: []byte("version"),
}

const currentVersion = 1

var _ session.Database = (*Database)(nil)

type Database struct {
	db *bbolt.DB
}

func Open(path string) (*Database, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		metadata, err := tx.CreateBucketIfNotExists(Buckets.Metadata)
		if err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists(Buckets.Tasks); err != nil {
			return err
		}

		var version int
		if versionBytes := metadata.Get(MetadataKeys.Version); versionBytes != nil {
			if err := json.Unmarshal(versionBytes, &version); err != nil {
				return err
			}
		}
		if version > currentVersion {
			return fmt.Errorf("history version %d is newer than supported version %d", version, currentVersion)
		}

		versionBytes, err := json.Marshal(currentVersion)
		if err != nil {
			return err
		}
		return metadata.Put(MetadataKeys.Version, versionBytes)
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Database{db}, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

// ListTasks returns tasks ordered by ID, which is random; callers sort as they need.
func (d *Database) ListTasks() (tasks []session.Task, err error) {
	err = d.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(Buckets.Tasks).ForEach(func(k, v []byte) error {
			var task session.Task
			if err := json.Unmarshal(v, &task); err != nil {
				return fmt.Errorf("corrupt task %s: %w", k, err)
			}
			tasks = append(tasks, task)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

func (d *Database) WriteTask(task *session.Task) error {
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return d.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(Buckets.Tasks).Put([]byte(task.ID), data)
	})
}

func (d *Database) DeleteTask(task *session.Task) error {
	return d.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(Buckets.Tasks).Delete([]byte(task.ID))
	})
}

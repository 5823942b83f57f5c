package boltdb

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	assert_ "github.com/stretchr/testify/assert"
	require_ "github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"github.com/mytube/mytube/internal/session"
)

func TestDatabase(t *testing.T) {
	assert := assert_.New(t)
	path := filepath.Join(t.TempDir(), "history.db")
	db, err := Open(path)
	require_.Nil(t, err)

	tasks, err := db.ListTasks()
	assert.Nil(err)
	assert.Empty(tasks)

	finished := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	task := session.Task{
		ID:         session.NewTaskID(),
		Title:      "A video",
		Status:     session.StatusSucceeded,
		Path:       "/tmp/[720p] A video.mp4",
		Resolution: "720p",
		Attempts:   1,
		FinishedAt: finished,
	}
	assert.Nil(db.WriteTask(&task))
	task.Attempts = 2
	assert.Nil(db.WriteTask(&task))
	assert.Nil(db.Close())

	// Reopening keeps what was written
	db, err = Open(path)
	require_.Nil(t, err)
	defer db.Close()
	tasks, err = db.ListTasks()
	assert.Nil(err)
	if assert.Len(tasks, 1) {
		assert.Equal(task.ID, tasks[0].ID)
		assert.Equal(2, tasks[0].Attempts)
		assert.True(finished.Equal(tasks[0].FinishedAt))
	}

	assert.Nil(db.DeleteTask(&task))
	tasks, err = db.ListTasks()
	assert.Nil(err)
	assert.Empty(tasks)
}

func TestOpen_NewerVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	raw, err := bbolt.Open(path, 0600, nil)
	require_.Nil(t, err)
	require_.Nil(t, raw.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(Buckets.Metadata)
		if err != nil {
			return err
		}
		v, _ := json.Marshal(currentVersion + 1)
		return b.Put(MetadataKeys.Version, v)
	}))
	require_.Nil(t, raw.Close())

	_, err = Open(path)
	assert_.NotNil(t, err)
}

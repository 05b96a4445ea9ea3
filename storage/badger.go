package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/janelia-flyem/stitch/labels"
	"github.com/janelia-flyem/stitch/stitch"

	"github.com/blang/semver"
	"github.com/dgraph-io/badger/v3"
	"github.com/twinj/uuid"
)

const (
	// DefaultSyncWrites is true if all writes are synced to disk, thereby
	// making the db resilient at cost of speed.
	DefaultSyncWrites = false

	// syncInterval is how often buffered writes are flushed to disk by the
	// background sync goroutine.
	syncInterval = 30 * time.Second
)

// Engine describes the BadgerDB backend.
type Engine struct {
	name   string
	desc   string
	semver semver.Version
}

// NewEngine returns the BadgerDB engine descriptor.
func NewEngine() Engine {
	ver, err := semver.Make("0.1.0")
	if err != nil {
		stitch.Errorf("Unable to make semver in badger: %v\n", err)
	}
	return Engine{"badger", "BadgerDB", ver}
}

func (e Engine) GetName() string {
	return e.name
}

func (e Engine) GetDescription() string {
	return e.desc
}

func (e Engine) GetSemVer() semver.Version {
	return e.semver
}

func (e Engine) String() string {
	return fmt.Sprintf("%s [%s]", e.name, e.semver)
}

// NewStore opens a BadgerDB block store at the given path, creating the
// directory if it doesn't exist.
func (e Engine) NewStore(path string) (*BadgerStore, error) {
	return openBadger(path)
}

// TestPath returns a fresh store path under the system temp directory,
// suitable for throwaway testing databases.
func TestPath() string {
	return filepath.Join(os.TempDir(), fmt.Sprintf("stitch-test-badger-%x", uuid.NewV4().Bytes()))
}

// BadgerStore is a BlockStore backed by a local BadgerDB.
type BadgerStore struct {
	// Directory of the database
	directory string

	options *badger.Options
	bdp     *badger.DB

	// stopSyncCh is used to signal the sync goroutine to stop.
	stopSyncCh chan bool
}

// Periodically sync to prevent too many writes from being buffered
// if the process crashes.
func syncPeriodically(db *BadgerStore) {
	ticker := time.NewTicker(syncInterval)
	defer ticker.Stop()
	for {
		select {
		case <-db.stopSyncCh:
			stitch.Infof("Stopping sync goroutine for badger @ %s\n", db.directory)
			return
		case <-ticker.C:
			db.bdp.Sync()
		}
	}
}

func openBadger(path string) (*BadgerStore, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		stitch.Infof("Database not already at path (%s). Creating directory...\n", path)
		if err := os.MkdirAll(path, 0744); err != nil {
			return nil, fmt.Errorf("can't make directory at %s: %v", path, err)
		}
	}

	opts := badger.DefaultOptions(path)
	opts.NumVersionsToKeep = 1
	opts.SyncWrites = DefaultSyncWrites
	opts.ValueThreshold = 100
	opts.Logger = nil

	db := &BadgerStore{
		directory:  path,
		options:    &opts,
		stopSyncCh: make(chan bool),
	}

	stitch.Infof("Opening badger @ path %s\n", path)
	bdp, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	db.bdp = bdp

	go syncPeriodically(db)
	return db, nil
}

func (db *BadgerStore) String() string {
	return fmt.Sprintf("badger @ %s", db.directory)
}

// Close closes the BadgerStore.
func (db *BadgerStore) Close() {
	if db != nil {
		if db.bdp != nil {
			db.stopSyncCh <- true
			db.bdp.Close()
			stitch.Infof("Closed Badger DB @ %s\n", db.directory)
		}
		db.bdp = nil
		db.options = nil
	}
}

func (db *BadgerStore) put(key, value []byte) error {
	if db == nil || db.bdp == nil {
		return fmt.Errorf("can't call Put on closed or nil BadgerStore")
	}
	serialized, err := stitch.SerializeData(value, stitch.Snappy, stitch.CRC32)
	if err != nil {
		return err
	}
	return db.bdp.Update(func(txn *badger.Txn) error {
		return txn.Set(key, serialized)
	})
}

func (db *BadgerStore) get(key []byte) ([]byte, error) {
	if db == nil || db.bdp == nil {
		return nil, fmt.Errorf("can't call Get on closed or nil BadgerStore")
	}
	var serialized []byte
	err := db.bdp.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err == badger.ErrKeyNotFound {
			return ErrBlockNotFound
		}
		if err != nil {
			return err
		}
		serialized, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	value, _, err := stitch.DeserializeData(serialized, true)
	return value, err
}

// PutLabelBlock stores a label volume at the given global box.
func (db *BadgerStore) PutLabelBlock(box stitch.Box3d, vol *labels.Volume) error {
	if vol.Size != box.Size() {
		return fmt.Errorf("label block of size %s doesn't fit box %s", vol.Size, box)
	}
	data, err := vol.MarshalBinary()
	if err != nil {
		return err
	}
	return db.put(blockKey(keyLabelBlock, box), data)
}

// GetLabelBlock retrieves the label volume stored at the given global box.
func (db *BadgerStore) GetLabelBlock(box stitch.Box3d) (*labels.Volume, error) {
	data, err := db.get(blockKey(keyLabelBlock, box))
	if err != nil {
		return nil, err
	}
	vol := new(labels.Volume)
	if err := vol.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return vol, nil
}

// PutGrayBlock stores raw grayscale data at the given global box.
func (db *BadgerStore) PutGrayBlock(box stitch.Box3d, data []byte) error {
	if int64(len(data)) != box.NumVoxels() {
		return fmt.Errorf("gray block of %d bytes doesn't fit box %s with %d voxels",
			len(data), box, box.NumVoxels())
	}
	return db.put(blockKey(keyGrayBlock, box), data)
}

// GetGrayBlock retrieves the grayscale data stored at the given global box.
func (db *BadgerStore) GetGrayBlock(box stitch.Box3d) ([]byte, error) {
	return db.get(blockKey(keyGrayBlock, box))
}

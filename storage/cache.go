package storage

import (
	"sync/atomic"

	"github.com/janelia-flyem/stitch/labels"
	"github.com/janelia-flyem/stitch/stitch"

	"github.com/coocood/freecache"
)

// CachedStore is a read-through cache over any BlockStore.  Writes go
// through to the backing store and refresh the cached copy.
type CachedStore struct {
	store BlockStore
	cache *freecache.Cache

	attempts uint64
	hits     uint64
}

// NewCachedStore wraps a BlockStore with an in-memory cache of roughly
// the given number of megabytes.
func NewCachedStore(store BlockStore, cacheMB int) *CachedStore {
	numBytes := cacheMB << 20
	stitch.Infof("Created freecache of ~ %d MB for block store.\n", cacheMB)
	return &CachedStore{
		store: store,
		cache: freecache.NewCache(numBytes),
	}
}

// Stats returns the number of cache lookups and how many of them hit.
func (cs *CachedStore) Stats() (attempts, hits uint64) {
	return atomic.LoadUint64(&cs.attempts), atomic.LoadUint64(&cs.hits)
}

func (cs *CachedStore) cached(key []byte) []byte {
	atomic.AddUint64(&cs.attempts, 1)
	data, err := cs.cache.Get(key)
	if err != nil && err != freecache.ErrNotFound {
		stitch.Errorf("unable to get cached block: %v\n", err)
		return nil
	}
	if data != nil {
		atomic.AddUint64(&cs.hits, 1)
	}
	return data
}

func (cs *CachedStore) refresh(key, data []byte) {
	if err := cs.cache.Set(key, data, 0); err != nil {
		stitch.Errorf("unable to set block cache: %v\n", err)
	}
}

// PutLabelBlock stores a label volume and refreshes the cached copy.
func (cs *CachedStore) PutLabelBlock(box stitch.Box3d, vol *labels.Volume) error {
	if err := cs.store.PutLabelBlock(box, vol); err != nil {
		return err
	}
	data, err := vol.MarshalBinary()
	if err != nil {
		return err
	}
	cs.refresh(blockKey(keyLabelBlock, box), data)
	return nil
}

// GetLabelBlock retrieves a label volume, consulting the cache first.
func (cs *CachedStore) GetLabelBlock(box stitch.Box3d) (*labels.Volume, error) {
	key := blockKey(keyLabelBlock, box)
	if data := cs.cached(key); data != nil {
		vol := new(labels.Volume)
		if err := vol.UnmarshalBinary(data); err != nil {
			return nil, err
		}
		return vol, nil
	}
	vol, err := cs.store.GetLabelBlock(box)
	if err != nil {
		return nil, err
	}
	if data, err := vol.MarshalBinary(); err != nil {
		stitch.Errorf("unable to marshal label block for caching: %v\n", err)
	} else {
		cs.refresh(key, data)
	}
	return vol, nil
}

// PutGrayBlock stores grayscale data and refreshes the cached copy.
func (cs *CachedStore) PutGrayBlock(box stitch.Box3d, data []byte) error {
	if err := cs.store.PutGrayBlock(box, data); err != nil {
		return err
	}
	cs.refresh(blockKey(keyGrayBlock, box), data)
	return nil
}

// GetGrayBlock retrieves grayscale data, consulting the cache first.
func (cs *CachedStore) GetGrayBlock(box stitch.Box3d) ([]byte, error) {
	key := blockKey(keyGrayBlock, box)
	if data := cs.cached(key); data != nil {
		return data, nil
	}
	data, err := cs.store.GetGrayBlock(box)
	if err != nil {
		return nil, err
	}
	cs.refresh(key, data)
	return data, nil
}

// Close closes the backing store and drops the cache.
func (cs *CachedStore) Close() {
	cs.cache.Clear()
	cs.store.Close()
}

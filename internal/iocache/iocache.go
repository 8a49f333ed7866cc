// Package iocache persists load profiles and run history in SQL stores.
package iocache

import (
	"sync"

	"github.com/huangsam/sensorlabel/internal/contract"
)

// CacheStoreManager manages the load profile cache and the run history store.
type CacheStoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	load         contract.CacheStore
	runs         contract.RunStore
}

var _ contract.CacheManager = &CacheStoreManager{} // Compile-time check

// NewCacheStoreManager wraps already opened stores. Either may be nil.
func NewCacheStoreManager(load contract.CacheStore, runs contract.RunStore) *CacheStoreManager {
	return &CacheStoreManager{load: load, runs: runs}
}

// GetLoadStore returns the load profile CacheStore.
func (mgr *CacheStoreManager) GetLoadStore() contract.CacheStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.load
}

// GetRunStore returns the run history RunStore.
func (mgr *CacheStoreManager) GetRunStore() contract.RunStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.runs
}

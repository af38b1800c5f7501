// Package iocache is for persisting run metadata across invocations.
package iocache

import (
	"sync"

	"github.com/qpsplot/qpsplot/internal/contract"
)

// StoreManagerImpl manages the persistence stores of a process.
type StoreManagerImpl struct {
	sync.RWMutex // Protects the store pointers during initialization
	analysis     contract.AnalysisStore
}

var _ contract.StoreManager = &StoreManagerImpl{} // Compile-time check

// GetAnalysisStore returns the AnalysisStore, or nil when run tracking is disabled.
func (mgr *StoreManagerImpl) GetAnalysisStore() contract.AnalysisStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.analysis
}

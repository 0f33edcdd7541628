// Package history records classification runs in a SQL database so that past
// runs can be listed, exported and cleared.
package history

import (
	"sync"

	"github.com/huangsam/phenomask/internal/contract"
)

// StoreManager owns the process-wide RunStore.
type StoreManager struct {
	sync.RWMutex // Protects the store pointer during initialization
	runs         contract.RunStore
}

var _ contract.HistoryManager = &StoreManager{} // Compile-time check

// GetRunStore returns the RunStore, or nil before InitHistory.
func (mgr *StoreManager) GetRunStore() contract.RunStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.runs
}

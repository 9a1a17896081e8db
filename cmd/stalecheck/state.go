package main

import (
	"fmt"
	"io"
	"log"

	"github.com/Resinat/stalecheck/internal/store"
)

// agentState is where the fingerprint and update history live. history is
// nil in ephemeral mode.
type agentState struct {
	kv      store.KV
	history *store.HistoryRepo
	closer  io.Closer
}

// openState bootstraps the state database under stateDir. An empty stateDir
// selects ephemeral mode: the fingerprint is kept in memory and no history
// is recorded, so a restart re-records the initial fingerprint.
func openState(stateDir string) (*agentState, error) {
	if stateDir == "" {
		log.Println("Persistence disabled, fingerprint kept in memory")
		return &agentState{kv: store.NewMemoryKV()}, nil
	}
	kv, history, closer, err := store.Bootstrap(stateDir)
	if err != nil {
		return nil, fmt.Errorf("persistence bootstrap: %w", err)
	}
	log.Println("Persistence bootstrap complete")
	return &agentState{kv: kv, history: history, closer: closer}, nil
}

func (s *agentState) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

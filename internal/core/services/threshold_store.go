package services

import (
	"sync"

	"telequal/internal/core/domain"
)

// ThresholdStore holds the process-wide quality thresholds. Readers get
// a value copy so scoring always observes a consistent snapshot; Set
// swaps the whole struct, fields are never updated in place.
type ThresholdStore struct {
	mu         sync.RWMutex
	thresholds domain.QualityThresholds
}

func NewThresholdStore(initial domain.QualityThresholds) *ThresholdStore {
	return &ThresholdStore{thresholds: initial}
}

func (s *ThresholdStore) Get() domain.QualityThresholds {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.thresholds
}

func (s *ThresholdStore) Set(t domain.QualityThresholds) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.thresholds = t
}

package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/velvetcart/secauth"
	"github.com/velvetcart/secauth/privacy"
)

// Memory is an in-process IdentityStore. Safe for concurrent use.
type Memory struct {
	codec *privacy.Codec

	mu          sync.RWMutex
	byID        map[string]*secauth.IdentityRecord
	byEmailHash map[string]string
	byResetHash map[string]string
}

// NewMemory creates an empty Memory store. Records are held with
// email and name encrypted by the codec.
func NewMemory(codec *privacy.Codec) *Memory {
	return &Memory{
		codec:       codec,
		byID:        make(map[string]*secauth.IdentityRecord),
		byEmailHash: make(map[string]string),
		byResetHash: make(map[string]string),
	}
}

// Create implements secauth.IdentityStore. The email hash is
// recomputed from the record's email on every write so the index can
// never drift from the stored value.
func (m *Memory) Create(ctx context.Context, record *secauth.IdentityRecord) error {
	sealed, err := m.seal(record)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byEmailHash[sealed.EmailHash]; exists {
		return secauth.ErrIdentityExists
	}
	if _, exists := m.byID[sealed.ID]; exists {
		return secauth.ErrIdentityExists
	}

	m.byID[sealed.ID] = sealed
	m.byEmailHash[sealed.EmailHash] = sealed.ID
	if sealed.ResetTokenHash != "" {
		m.byResetHash[sealed.ResetTokenHash] = sealed.ID
	}
	return nil
}

// FindByEmailHash implements secauth.IdentityStore.
func (m *Memory) FindByEmailHash(ctx context.Context, emailHash string) (*secauth.IdentityRecord, error) {
	m.mu.RLock()
	id, ok := m.byEmailHash[emailHash]
	m.mu.RUnlock()
	if !ok {
		return nil, secauth.ErrIdentityNotFound
	}
	return m.FindByID(ctx, id)
}

// FindByID implements secauth.IdentityStore.
func (m *Memory) FindByID(_ context.Context, id string) (*secauth.IdentityRecord, error) {
	m.mu.RLock()
	sealed, ok := m.byID[id]
	m.mu.RUnlock()
	if !ok {
		return nil, secauth.ErrIdentityNotFound
	}
	return m.open(sealed)
}

// FindByResetTokenHash implements secauth.IdentityStore.
func (m *Memory) FindByResetTokenHash(ctx context.Context, tokenHash string) (*secauth.IdentityRecord, error) {
	if tokenHash == "" {
		return nil, secauth.ErrIdentityNotFound
	}
	m.mu.RLock()
	id, ok := m.byResetHash[tokenHash]
	m.mu.RUnlock()
	if !ok {
		return nil, secauth.ErrIdentityNotFound
	}
	return m.FindByID(ctx, id)
}

// AtomicUpdate implements secauth.IdentityStore. The write lock is
// held across the read, the mutate callback, and the write, so
// concurrent updates to one identity serialize instead of overwriting
// each other.
func (m *Memory) AtomicUpdate(_ context.Context, id string, mutate func(*secauth.IdentityRecord) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev, ok := m.byID[id]
	if !ok {
		return secauth.ErrIdentityNotFound
	}

	record, err := m.open(prev)
	if err != nil {
		return err
	}
	if err := mutate(record); err != nil {
		return err
	}
	record.ID = id

	sealed, err := m.seal(record)
	if err != nil {
		return err
	}

	if prev.EmailHash != sealed.EmailHash {
		if _, taken := m.byEmailHash[sealed.EmailHash]; taken {
			return secauth.ErrIdentityExists
		}
		delete(m.byEmailHash, prev.EmailHash)
		m.byEmailHash[sealed.EmailHash] = sealed.ID
	}
	if prev.ResetTokenHash != sealed.ResetTokenHash {
		if prev.ResetTokenHash != "" {
			delete(m.byResetHash, prev.ResetTokenHash)
		}
		if sealed.ResetTokenHash != "" {
			m.byResetHash[sealed.ResetTokenHash] = sealed.ID
		}
	}

	m.byID[id] = sealed
	return nil
}

// seal returns an encrypted copy ready for storage.
func (m *Memory) seal(record *secauth.IdentityRecord) (*secauth.IdentityRecord, error) {
	sealed := record.Clone()

	email, err := m.codec.Encode(record.Email)
	if err != nil {
		return nil, fmt.Errorf("store: encode email: %w", err)
	}
	name, err := m.codec.Encode(record.Name)
	if err != nil {
		return nil, fmt.Errorf("store: encode name: %w", err)
	}

	sealed.Email = email
	sealed.Name = name
	sealed.EmailHash = privacy.Hash(record.Email)
	return sealed, nil
}

// open returns a decrypted copy safe for the caller to mutate.
func (m *Memory) open(sealed *secauth.IdentityRecord) (*secauth.IdentityRecord, error) {
	record := sealed.Clone()

	email, err := m.codec.Decode(sealed.Email)
	if err != nil {
		return nil, fmt.Errorf("store: decode email: %w", err)
	}
	name, err := m.codec.Decode(sealed.Name)
	if err != nil {
		return nil, fmt.Errorf("store: decode name: %w", err)
	}

	record.Email = email
	record.Name = name
	return record, nil
}

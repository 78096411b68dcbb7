package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrEthical07/credauth"
)

// Memory is an in-memory credauth.Store and NoteStore used by tests and the
// httpapi test suite. It mirrors the conditional-update semantics of the
// Postgres implementation, including the single-statement used guards.
type Memory struct {
	mu sync.Mutex

	accounts        map[string]*credauth.AccountRecord
	emailChallenges map[string]*credauth.EmailChallengeRecord
	resetChallenges []*credauth.ResetChallengeRecord
	resetTokens     []*credauth.ResetTokenRecord
	notes           map[string]*Note

	seq int
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		accounts:        map[string]*credauth.AccountRecord{},
		emailChallenges: map[string]*credauth.EmailChallengeRecord{},
		notes:           map[string]*Note{},
	}
}

func (m *Memory) nextCreatedAt() time.Time {
	// Strictly increasing so "latest" ordering is deterministic even when the
	// wall clock does not move between inserts.
	m.seq++
	return time.Now().Add(time.Duration(m.seq) * time.Microsecond)
}

// CreateAccount implements credauth.AccountStore.
func (m *Memory) CreateAccount(ctx context.Context, account *credauth.AccountRecord) (*credauth.AccountRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.accounts {
		if existing.Email == account.Email {
			return nil, credauth.ErrDuplicateEmail
		}
	}

	clone := *account
	clone.CreatedAt = m.nextCreatedAt()
	clone.UpdatedAt = clone.CreatedAt
	m.accounts[clone.ID] = &clone

	out := clone
	return &out, nil
}

// GetAccountByID implements credauth.AccountStore.
func (m *Memory) GetAccountByID(ctx context.Context, id string) (*credauth.AccountRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	account, ok := m.accounts[id]
	if !ok {
		return nil, credauth.ErrRecordNotFound
	}
	out := *account
	return &out, nil
}

// GetAccountByEmail implements credauth.AccountStore.
func (m *Memory) GetAccountByEmail(ctx context.Context, email string) (*credauth.AccountRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, account := range m.accounts {
		if account.Email == email {
			out := *account
			return &out, nil
		}
	}
	return nil, credauth.ErrRecordNotFound
}

// UpdateSession implements credauth.AccountStore.
func (m *Memory) UpdateSession(ctx context.Context, email, token string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, account := range m.accounts {
		if account.Email == email {
			account.SessionToken = token
			account.SessionExpiresAt = expiresAt
			account.UpdatedAt = m.nextCreatedAt()
			return nil
		}
	}
	return credauth.ErrRecordNotFound
}

// MarkVerified implements credauth.AccountStore.
func (m *Memory) MarkVerified(ctx context.Context, id, token string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	account, ok := m.accounts[id]
	if !ok {
		return credauth.ErrRecordNotFound
	}
	account.Verified = true
	account.SessionToken = token
	account.SessionExpiresAt = expiresAt
	account.UpdatedAt = m.nextCreatedAt()
	return nil
}

// UpsertEmailChallenge implements credauth.ChallengeLedger.
func (m *Memory) UpsertEmailChallenge(ctx context.Context, email, otp string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.emailChallenges[email] = &credauth.EmailChallengeRecord{
		Email:     email,
		OTP:       otp,
		ExpiresAt: expiresAt,
	}
	return nil
}

// GetEmailChallenge implements credauth.ChallengeLedger.
func (m *Memory) GetEmailChallenge(ctx context.Context, email string) (*credauth.EmailChallengeRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	challenge, ok := m.emailChallenges[email]
	if !ok {
		return nil, credauth.ErrRecordNotFound
	}
	out := *challenge
	return &out, nil
}

// ConsumeEmailChallenge implements credauth.ChallengeLedger.
func (m *Memory) ConsumeEmailChallenge(ctx context.Context, email, otp string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	challenge, ok := m.emailChallenges[email]
	if !ok || challenge.Used || challenge.OTP != otp || !challenge.ExpiresAt.After(now) {
		return credauth.ErrChallengeConsumed
	}
	challenge.Used = true
	return nil
}

// CreateResetChallenge implements credauth.ChallengeLedger.
func (m *Memory) CreateResetChallenge(ctx context.Context, email, otp string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.resetChallenges = append(m.resetChallenges, &credauth.ResetChallengeRecord{
		ID:        uuid.New().String(),
		Email:     email,
		OTP:       otp,
		ExpiresAt: expiresAt,
		CreatedAt: m.nextCreatedAt(),
	})
	return nil
}

// LatestResetChallenge implements credauth.ChallengeLedger.
func (m *Memory) LatestResetChallenge(ctx context.Context, email string) (*credauth.ResetChallengeRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var latest *credauth.ResetChallengeRecord
	for _, challenge := range m.resetChallenges {
		if challenge.Email != email || challenge.Used {
			continue
		}
		if latest == nil || challenge.CreatedAt.After(latest.CreatedAt) {
			latest = challenge
		}
	}
	if latest == nil {
		return nil, credauth.ErrRecordNotFound
	}
	out := *latest
	return &out, nil
}

// ConsumeResetChallenge implements credauth.ChallengeLedger.
func (m *Memory) ConsumeResetChallenge(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, challenge := range m.resetChallenges {
		if challenge.ID == id && !challenge.Used {
			challenge.Used = true
			return nil
		}
	}
	return credauth.ErrChallengeConsumed
}

// CreateResetToken implements credauth.ChallengeLedger.
func (m *Memory) CreateResetToken(ctx context.Context, email, tokenHash string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.resetTokens = append(m.resetTokens, &credauth.ResetTokenRecord{
		ID:        uuid.New().String(),
		Email:     email,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
		CreatedAt: m.nextCreatedAt(),
	})
	return nil
}

// LatestResetToken implements credauth.ChallengeLedger.
func (m *Memory) LatestResetToken(ctx context.Context, email string) (*credauth.ResetTokenRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var latest *credauth.ResetTokenRecord
	for _, token := range m.resetTokens {
		if token.Email != email || token.Used {
			continue
		}
		if latest == nil || token.CreatedAt.After(latest.CreatedAt) {
			latest = token
		}
	}
	if latest == nil {
		return nil, credauth.ErrRecordNotFound
	}
	out := *latest
	return &out, nil
}

// ResetPassword implements credauth.PasswordResetter. Both mutations happen
// under one lock so the transition is atomic, matching the Postgres
// transaction.
func (m *Memory) ResetPassword(ctx context.Context, params credauth.ResetPasswordParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var account *credauth.AccountRecord
	for _, candidate := range m.accounts {
		if candidate.Email == params.Email {
			account = candidate
			break
		}
	}
	if account == nil {
		return credauth.ErrRecordNotFound
	}

	var token *credauth.ResetTokenRecord
	for _, candidate := range m.resetTokens {
		if candidate.ID == params.ResetTokenID && !candidate.Used {
			token = candidate
			break
		}
	}
	if token == nil {
		return credauth.ErrChallengeConsumed
	}

	account.PasswordHash = params.PasswordHash
	account.SessionToken = params.SessionToken
	account.SessionExpiresAt = params.SessionExpiresAt
	account.UpdatedAt = m.nextCreatedAt()
	token.Used = true
	return nil
}

// CreateNote implements NoteStore.
func (m *Memory) CreateNote(ctx context.Context, note *Note) (*Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	clone := *note
	clone.CreatedAt = m.nextCreatedAt()
	clone.UpdatedAt = clone.CreatedAt
	m.notes[clone.ID] = &clone

	out := clone
	return &out, nil
}

// GetNote implements NoteStore.
func (m *Memory) GetNote(ctx context.Context, accountID, id string) (*Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	note, ok := m.notes[id]
	if !ok || note.AccountID != accountID {
		return nil, credauth.ErrRecordNotFound
	}
	out := *note
	return &out, nil
}

// ListNotes implements NoteStore.
func (m *Memory) ListNotes(ctx context.Context, accountID string, limit, offset int) ([]*Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	owned := []*Note{}
	for _, note := range m.notes {
		if note.AccountID == accountID {
			out := *note
			owned = append(owned, &out)
		}
	}
	sort.Slice(owned, func(i, j int) bool {
		return owned[i].CreatedAt.After(owned[j].CreatedAt)
	})

	if offset >= len(owned) {
		return []*Note{}, nil
	}
	owned = owned[offset:]
	if limit < len(owned) {
		owned = owned[:limit]
	}
	return owned, nil
}

// UpdateNote implements NoteStore.
func (m *Memory) UpdateNote(ctx context.Context, note *Note) (*Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.notes[note.ID]
	if !ok || existing.AccountID != note.AccountID {
		return nil, credauth.ErrRecordNotFound
	}
	existing.Title = note.Title
	existing.Content = note.Content
	existing.UpdatedAt = m.nextCreatedAt()

	out := *existing
	return &out, nil
}

// DeleteNote implements NoteStore.
func (m *Memory) DeleteNote(ctx context.Context, accountID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	note, ok := m.notes[id]
	if !ok || note.AccountID != accountID {
		return credauth.ErrRecordNotFound
	}
	delete(m.notes, id)
	return nil
}

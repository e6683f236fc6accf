// Package goals is the peripheral store for savings goals and tax entries.
// Unlike the ledger there is no local fallback tier: these records live on
// the hosted backend only, so every operation needs a session.
package goals

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/HelioWoi/liveplan3/pkg/ledger"
	"github.com/HelioWoi/liveplan3/pkg/models"
	"github.com/HelioWoi/liveplan3/pkg/remote"
)

var (
	ErrNotFound            = errors.New("goal not found")
	ErrInvalidContribution = errors.New("contribution must be positive")
)

type Store struct {
	mu      sync.RWMutex
	logger  *log.Logger
	goals   *remote.GoalService
	tax     *remote.TaxService
	ledger  *ledger.Store
	session *remote.Session
}

func New(client *remote.Client, ledgerStore *ledger.Store, logger *log.Logger) *Store {
	return &Store{
		logger: logger,
		goals:  client.Goals(),
		tax:    client.TaxEntries(),
		ledger: ledgerStore,
	}
}

// SetSession installs (or clears, with nil) the authenticated session.
func (s *Store) SetSession(session *remote.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = session
}

func (s *Store) currentSession() *remote.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

func (s *Store) List(ctx context.Context) ([]models.Goal, error) {
	return s.goals.List(ctx, s.currentSession())
}

func (s *Store) Create(ctx context.Context, goal models.Goal) (models.Goal, error) {
	session := s.currentSession()
	if !session.Authenticated() {
		return models.Goal{}, remote.ErrNotAuthenticated
	}
	goal.ID = uuid.NewString()
	goal.Owner = session.Owner
	goal.CurrentAmount = 0
	goal.CreatedAt = time.Now().UTC()
	if err := s.goals.Create(ctx, session, goal); err != nil {
		return models.Goal{}, err
	}
	return goal, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	return s.goals.Delete(ctx, s.currentSession(), id)
}

// Contribute increases a goal's current amount. The increase is monotonic:
// non-positive amounts are rejected. A mirroring Contribution transaction is
// appended to the ledger so the cash effect shows up in the weekly view.
func (s *Store) Contribute(ctx context.Context, id string, amount float64) (models.Goal, error) {
	if amount <= 0 {
		return models.Goal{}, ErrInvalidContribution
	}
	session := s.currentSession()
	if !session.Authenticated() {
		return models.Goal{}, remote.ErrNotAuthenticated
	}

	all, err := s.goals.List(ctx, session)
	if err != nil {
		return models.Goal{}, err
	}
	var goal models.Goal
	found := false
	for _, g := range all {
		if g.ID == id {
			goal = g
			found = true
			break
		}
	}
	if !found {
		return models.Goal{}, ErrNotFound
	}

	goal.CurrentAmount += amount
	if err := s.goals.Update(ctx, session, goal); err != nil {
		return models.Goal{}, err
	}

	draft := models.TransactionDraft{
		Origin:      fmt.Sprintf("Goal: %s", goal.Title),
		Description: goal.Title,
		Amount:      amount,
		Category:    models.CategoryContribution,
		Type:        models.TypeExpense,
		Date:        time.Now().UTC(),
	}
	if _, _, err := s.ledger.Create(ctx, draft); err != nil {
		// The goal update already landed; the mirror is best-effort.
		s.logger.Warn("contribution mirror transaction failed", "goal_id", id, "err", err)
	}
	return goal, nil
}

// TaxEntries lists the owner's tax estimation records.
func (s *Store) TaxEntries(ctx context.Context) ([]models.TaxEntry, error) {
	return s.tax.List(ctx, s.currentSession())
}

// AddTaxEntry stores one tax estimation record.
func (s *Store) AddTaxEntry(ctx context.Context, entry models.TaxEntry) (models.TaxEntry, error) {
	session := s.currentSession()
	if !session.Authenticated() {
		return models.TaxEntry{}, remote.ErrNotAuthenticated
	}
	entry.ID = uuid.NewString()
	entry.Owner = session.Owner
	if err := s.tax.Create(ctx, session, entry); err != nil {
		return models.TaxEntry{}, err
	}
	return entry, nil
}

// DeleteTaxEntry removes one tax estimation record.
func (s *Store) DeleteTaxEntry(ctx context.Context, id string) error {
	return s.tax.Delete(ctx, s.currentSession(), id)
}

package remote

import (
	"context"
	"net/http"

	"github.com/HelioWoi/liveplan3/pkg/models"
)

const (
	goalsTable      = "goals"
	taxEntriesTable = "tax_entries"
)

// GoalService exposes row CRUD over the goals table.
type GoalService struct {
	client *Client
}

func (c *Client) Goals() *GoalService {
	return &GoalService{client: c}
}

func (gs *GoalService) List(ctx context.Context, session *Session) ([]models.Goal, error) {
	var rows []models.Goal
	if err := gs.client.do(ctx, session, http.MethodGet, goalsTable, ownerFilter(session), nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (gs *GoalService) Create(ctx context.Context, session *Session, goal models.Goal) error {
	return gs.client.do(ctx, session, http.MethodPost, goalsTable, "", goal, nil)
}

func (gs *GoalService) Update(ctx context.Context, session *Session, goal models.Goal) error {
	return gs.client.do(ctx, session, http.MethodPatch, goalsTable, idFilter(goal.ID), goal, nil)
}

func (gs *GoalService) Delete(ctx context.Context, session *Session, id string) error {
	return gs.client.do(ctx, session, http.MethodDelete, goalsTable, idFilter(id), nil, nil)
}

// TaxService exposes row CRUD over the tax_entries table.
type TaxService struct {
	client *Client
}

func (c *Client) TaxEntries() *TaxService {
	return &TaxService{client: c}
}

func (ts *TaxService) List(ctx context.Context, session *Session) ([]models.TaxEntry, error) {
	var rows []models.TaxEntry
	if err := ts.client.do(ctx, session, http.MethodGet, taxEntriesTable, ownerFilter(session), nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (ts *TaxService) Create(ctx context.Context, session *Session, entry models.TaxEntry) error {
	return ts.client.do(ctx, session, http.MethodPost, taxEntriesTable, "", entry, nil)
}

func (ts *TaxService) Delete(ctx context.Context, session *Session, id string) error {
	return ts.client.do(ctx, session, http.MethodDelete, taxEntriesTable, idFilter(id), nil, nil)
}

package remote

import (
	"context"
	"net/http"

	"github.com/HelioWoi/liveplan3/pkg/models"
)

const transactionsTable = "transactions"

// TransactionService exposes row CRUD over the transactions table.
type TransactionService struct {
	client *Client
}

func (c *Client) Transactions() *TransactionService {
	return &TransactionService{client: c}
}

// List returns the owner's transactions.
func (ts *TransactionService) List(ctx context.Context, session *Session) ([]models.Transaction, error) {
	var rows []models.Transaction
	err := ts.client.do(ctx, session, http.MethodGet, transactionsTable, ownerFilter(session), nil, &rows)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Create inserts one transaction row.
func (ts *TransactionService) Create(ctx context.Context, session *Session, tx models.Transaction) error {
	return ts.client.do(ctx, session, http.MethodPost, transactionsTable, "", tx, nil)
}

// Update patches the row with the given id.
func (ts *TransactionService) Update(ctx context.Context, session *Session, id string, patch models.TransactionPatch) error {
	return ts.client.do(ctx, session, http.MethodPatch, transactionsTable, idFilter(id), patch, nil)
}

// Delete removes the row with the given id.
func (ts *TransactionService) Delete(ctx context.Context, session *Session, id string) error {
	return ts.client.do(ctx, session, http.MethodDelete, transactionsTable, idFilter(id), nil, nil)
}

// DeleteAll removes every row belonging to the session owner. Used before a
// bulk import.
func (ts *TransactionService) DeleteAll(ctx context.Context, session *Session) error {
	return ts.client.do(ctx, session, http.MethodDelete, transactionsTable, ownerFilter(session), nil, nil)
}

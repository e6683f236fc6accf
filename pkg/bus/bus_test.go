package bus

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/HelioWoi/liveplan3/pkg/models"
)

func TestDeliveryInSubscriptionOrder(t *testing.T) {
	b := New(log.New(io.Discard))
	var order []string
	b.OnEntryDeleted(func(string) { order = append(order, "first") })
	b.OnEntryDeleted(func(string) { order = append(order, "second") })

	b.PublishEntryDeleted("entry-1")

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("unexpected delivery order: %v", order)
	}
}

func TestPanickingListenerDoesNotBlockOthers(t *testing.T) {
	b := New(log.New(io.Discard))
	delivered := false
	b.OnIncomeCreated(func(models.Transaction) { panic("boom") })
	b.OnIncomeCreated(func(models.Transaction) { delivered = true })

	b.PublishIncomeCreated(models.Transaction{ID: "tx-1"})

	if !delivered {
		t.Error("second listener should still receive the event")
	}
}

func TestPublishWithoutListenersIsSafe(t *testing.T) {
	b := New(log.New(io.Discard))
	b.PublishLedgerChanged()
	b.PublishEntryAdded(models.WeeklyBudgetEntry{})
	b.PublishEntryUpdated("id", models.EntryPatch{})
}

// Package worker mirrors saved contributions to the backup spreadsheet. It
// consumes sync messages published by the web process and looks each
// contribution up in the database, so the sheet always gets the stored row.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"harambee/internal/amqp"
	"harambee/internal/repo"
	"harambee/internal/sheets"
)

type SyncWorker struct {
	ledger repo.Ledger
	writer sheets.ContributionWriter
}

func NewSyncWorker(ledger repo.Ledger, writer sheets.ContributionWriter) *SyncWorker {
	return &SyncWorker{
		ledger: ledger,
		writer: writer,
	}
}

// HandleSyncMessage processes one contribution sync message. A contribution
// that was deleted before the worker got to it is dropped, not retried.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.ContributionSyncMessage) error {
	contribution, err := w.ledger.GetContribution(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("get contribution from storage: %w", err)
	}
	if contribution == nil {
		slog.WarnContext(ctx, "Contribution no longer exists, skipping sync", "id", msg.ID)
		return nil
	}

	rowRef, err := w.writer.Append(ctx, *contribution)
	if err != nil {
		return fmt.Errorf("append to sheets: %w", err)
	}

	slog.InfoContext(ctx, "Successfully synced contribution",
		"id", contribution.ID,
		"name", contribution.Name,
		"amount", contribution.Amount,
		"sheets_ref", rowRef)
	return nil
}

// Run consumes sync messages until ctx is cancelled.
func (w *SyncWorker) Run(ctx context.Context, client *amqp.Client) error {
	return client.ConsumeContributionSync(ctx, func(msg *amqp.ContributionSyncMessage) error {
		return w.HandleSyncMessage(ctx, msg)
	})
}

// Package services orchestrates writes that touch more than one adapter.
package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"harambee/internal/core"
	"harambee/internal/repo"
)

// SyncPublisher is the AMQP side of the spreadsheet backup. A nil publisher
// disables the backup without changing the write path.
type SyncPublisher interface {
	PublishContributionSync(ctx context.Context, id string) error
	Close() error
}

// ContributionService saves contributions locally first and then publishes a
// sync message. The local save is the source of truth; a failed publish is
// logged and the request still succeeds.
type ContributionService struct {
	ledger    repo.Ledger
	publisher SyncPublisher
}

func NewContributionService(ledger repo.Ledger, publisher SyncPublisher) *ContributionService {
	return &ContributionService{
		ledger:    ledger,
		publisher: publisher,
	}
}

func (s *ContributionService) CreateContribution(ctx context.Context, in repo.CreateContribution) (core.Contribution, error) {
	c, err := s.ledger.CreateContribution(ctx, in)
	if err != nil {
		return core.Contribution{}, fmt.Errorf("save contribution: %w", err)
	}

	if s.publisher == nil {
		return c, nil
	}
	if err := s.publisher.PublishContributionSync(ctx, c.ID); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"id", c.ID,
			"error", err)
	}
	return c, nil
}

// Close closes the publisher and the ledger backend when it holds resources.
func (s *ContributionService) Close() error {
	var errs []error
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	if closer, ok := s.ledger.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("ledger: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close contribution service: %v", errs)
	}
	return nil
}

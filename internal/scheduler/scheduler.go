// Package scheduler pulls the Plaid transactions change feed for every
// linked item and reconciles it into local state, on a cron schedule or on
// demand.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	apperrors "goze/internal/errors"
	"goze/internal/logger"
	"goze/internal/models"
	"goze/internal/plaid"
	"goze/internal/services"
)

// DefaultSchedule runs the batch sync once a day at midnight.
const DefaultSchedule = "0 0 * * *"

// DefaultMaxPages bounds the pages pulled for one item in one run.
const DefaultMaxPages = 50

// SyncClient is the provider operation the scheduler needs.
type SyncClient interface {
	SyncTransactions(ctx context.Context, accessToken, cursor string, count int) (*plaid.SyncResponse, error)
}

// Config tunes a Scheduler.
type Config struct {
	// MaxPages caps the has_more loop per item; the saved cursor resumes
	// the rest on the next run.
	MaxPages int
	// PageSize is the count sent to /transactions/sync; zero uses Plaid's default.
	PageSize int
}

// ItemResult is the outcome of syncing one linked item.
type ItemResult struct {
	ItemID  string `json:"item_id"`
	Pages   int    `json:"pages"`
	Added   int    `json:"added"`
	Updated int    `json:"updated"`
	Removed int    `json:"removed"`
	Skipped int    `json:"skipped"`
	// NoAccounts is set when the item had changes but no local accounts.
	NoAccounts bool `json:"no_accounts,omitempty"`
}

func (r *ItemResult) add(rr *services.ReconcileResult) {
	r.Added += rr.Added
	r.Updated += rr.Updated
	r.Removed += rr.Removed
	r.Skipped += rr.Skipped
}

// ItemError records why one item failed during a run.
type ItemError struct {
	ItemID string `json:"item_id"`
	UserID string `json:"user_id"`
	Error  string `json:"error"`
}

// RunResult aggregates a run over many items.
type RunResult struct {
	Items     int           `json:"items"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Added     int           `json:"added"`
	Updated   int           `json:"updated"`
	Removed   int           `json:"removed"`
	Skipped   int           `json:"skipped"`
	Duration  time.Duration `json:"duration"`
	Errors    []ItemError   `json:"errors,omitempty"`
}

func (r *RunResult) record(item *models.LinkedItem, ir *ItemResult, err error) {
	r.Items++
	if ir != nil {
		r.Added += ir.Added
		r.Updated += ir.Updated
		r.Removed += ir.Removed
		r.Skipped += ir.Skipped
	}
	if err != nil {
		r.Failed++
		r.Errors = append(r.Errors, ItemError{ItemID: item.ID, UserID: item.UserID, Error: err.Error()})
		return
	}
	r.Succeeded++
}

// Scheduler syncs linked items. RunAll never overlaps itself.
type Scheduler struct {
	client       SyncClient
	items        services.ItemServicer
	accounts     services.AccountServicer
	transactions services.TransactionServicer
	cfg          Config
	log          *zap.SugaredLogger

	running atomic.Bool

	mu   sync.Mutex
	cron *cron.Cron
}

// New creates a Scheduler.
func New(client SyncClient, items services.ItemServicer, accounts services.AccountServicer, transactions services.TransactionServicer, cfg Config) *Scheduler {
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = DefaultMaxPages
	}
	return &Scheduler{
		client:       client,
		items:        items,
		accounts:     accounts,
		transactions: transactions,
		cfg:          cfg,
		log:          logger.Named("scheduler"),
	}
}

// RunAll syncs every active item. One item failing does not stop the others;
// only failing to list the items is returned as an error. A second call
// while a run is in progress gets SYNC_IN_PROGRESS.
func (s *Scheduler) RunAll(ctx context.Context) (*RunResult, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, apperrors.ErrSyncInProgress
	}
	defer s.running.Store(false)

	start := time.Now()
	items, err := s.items.ListActiveItems()
	if err != nil {
		s.log.Errorw("listing active items failed", "error", err)
		return nil, err
	}

	s.log.Infow("sync run started", "items", len(items))
	result := s.syncItems(ctx, items)
	result.Duration = time.Since(start)

	s.log.Infow("sync run complete",
		"items", result.Items,
		"success", result.Succeeded,
		"errors", result.Failed,
		"added", result.Added,
		"updated", result.Updated,
		"removed", result.Removed,
		"skipped", result.Skipped,
		"duration", result.Duration,
	)
	return result, nil
}

// SyncUser syncs the active items of one user. Unlike RunAll the item
// failures are also returned, joined.
func (s *Scheduler) SyncUser(ctx context.Context, userID string) (*RunResult, error) {
	start := time.Now()
	items, err := s.items.ListActiveItemsForUser(userID)
	if err != nil {
		return nil, err
	}

	result := s.syncItems(ctx, items)
	result.Duration = time.Since(start)

	var errs []error
	for _, e := range result.Errors {
		errs = append(errs, fmt.Errorf("item %s: %s", e.ItemID, e.Error))
	}
	if len(errs) > 0 {
		return result, apperrors.Wrap(apperrors.ErrProvider, errors.Join(errs...))
	}
	return result, nil
}

// SyncItem syncs one active item and returns its failure, if any.
func (s *Scheduler) SyncItem(ctx context.Context, itemID string) (*ItemResult, error) {
	item, err := s.items.GetItemByID(itemID)
	if err != nil {
		return nil, err
	}
	if !item.IsActive {
		return nil, apperrors.ErrItemInactive
	}
	res, err := s.syncItemSafely(ctx, item)
	if err != nil {
		var appErr *apperrors.AppError
		if !errors.As(err, &appErr) {
			err = apperrors.Wrap(apperrors.ErrProvider, err)
		}
		return res, err
	}
	return res, nil
}

func (s *Scheduler) syncItems(ctx context.Context, items []models.LinkedItem) *RunResult {
	result := &RunResult{}
	for i := range items {
		item := &items[i]
		ir, err := s.syncItemSafely(ctx, item)
		if err != nil {
			s.log.Errorw("item sync failed", "item_id", item.ID, "user_id", item.UserID, "error", err)
		}
		result.record(item, ir, err)
	}
	return result
}

// syncItemSafely runs syncItem, reporting a panic as that item's error so
// the remaining items still sync.
func (s *Scheduler) syncItemSafely(ctx context.Context, item *models.LinkedItem) (res *ItemResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Errorw("item sync panicked", "item_id", item.ID, "user_id", item.UserID, "panic", r, "stack", string(debug.Stack()))
			if res == nil {
				res = &ItemResult{ItemID: item.ID}
			}
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return s.syncItem(ctx, item)
}

// syncItem pulls pages from the item's cursor until has_more is false or
// MaxPages is reached. Every page with changes is reconciled into each of the
// item's accounts, and the next cursor is persisted after every page.
func (s *Scheduler) syncItem(ctx context.Context, item *models.LinkedItem) (*ItemResult, error) {
	res := &ItemResult{ItemID: item.ID}
	log := s.log.With("item_id", item.ID, "user_id", item.UserID)

	cursor := ""
	if item.Cursor != nil {
		cursor = *item.Cursor
	}

	for res.Pages < s.cfg.MaxPages {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		page, err := s.client.SyncTransactions(ctx, item.AccessToken, cursor, s.cfg.PageSize)
		if err != nil {
			if plaid.IsItemLoginRequired(err) {
				log.Warnw("item requires re-authentication, deactivating")
				if derr := s.items.Deactivate(item.ID); derr != nil {
					log.Errorw("deactivating item failed", "error", derr)
				}
			}
			return res, fmt.Errorf("fetching transactions: %w", err)
		}
		res.Pages++

		if page.HasChanges() {
			accounts, err := s.accounts.GetAccountsForItem(item.ID)
			if err != nil {
				return res, err
			}
			if len(accounts) == 0 {
				log.Warnw("item has changes but no accounts, skipping",
					"added", len(page.Added), "modified", len(page.Modified), "removed", len(page.Removed))
				res.NoAccounts = true
				return res, nil
			}
			// The page is not account-scoped; dedup on provider id keeps
			// the repeated application harmless.
			for _, account := range accounts {
				rr, err := s.transactions.Reconcile(item.UserID, account.ID, page)
				if err != nil {
					return res, fmt.Errorf("reconciling account %s: %w", account.ID, err)
				}
				res.add(rr)
			}
		}

		if page.NextCursor != "" {
			if err := s.items.UpdateCursor(item.ID, page.NextCursor); err != nil {
				return res, err
			}
			cursor = page.NextCursor
		}

		if !page.HasMore {
			return res, nil
		}
	}

	log.Infow("page limit reached, resuming next run", "pages", res.Pages)
	return res, nil
}

// Start runs RunAll on the cron spec until Stop. A tick that fires while the
// previous run is still going is skipped.
func (s *Scheduler) Start(spec string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return errors.New("scheduler: already started")
	}
	if spec == "" {
		spec = DefaultSchedule
	}

	cl := cronLogger{log: s.log}
	c := cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)))
	if _, err := c.AddFunc(spec, func() {
		if _, err := s.RunAll(context.Background()); err != nil {
			s.log.Errorw("scheduled sync failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("scheduler: invalid schedule %q: %w", spec, err)
	}

	c.Start()
	s.cron = c
	s.log.Infow("sync scheduler started", "schedule", spec)
	return nil
}

// Stop halts the schedule and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()

	if c == nil {
		return
	}
	<-c.Stop().Done()
	s.log.Info("sync scheduler stopped")
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}

// Package pipeline runs the listing submission flow: synchronous
// validation plus metadata upload, then a bounded background queue
// whose workers re-validate, transition the listing record, and
// conditionally mint. Delivery is at-least-once and jobs are safe to
// re-run; the mint step is guarded by the recorded token id, so
// re-delivery never double-mints.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"groundtruth/internal/collab"
	"groundtruth/internal/decision"
	"groundtruth/internal/journal"
	"groundtruth/internal/types"
)

const (
	DefaultWorkers   = 2
	DefaultQueueSize = 64

	// approvedConfidence is recorded when background validation
	// approves a listing.
	approvedConfidence = 0.8
)

// ErrQueueFull rejects a submission when the background queue is at
// capacity; the caller may retry the whole submission later.
var ErrQueueFull = errors.New("submission queue full")

// ErrStopped rejects submissions after Stop has begun.
var ErrStopped = errors.New("pipeline stopped")

// Options configure a coordinator.
type Options struct {
	Service  *decision.Service
	Storage  collab.Storage
	Minter   collab.Minter
	Registry *collab.Registry
	Recorder decision.Recorder
	Workers  int
	Queue    int
	Logger   *zap.Logger
}

type job struct {
	RequestID string
	Listing   types.Listing
	User      types.User
}

// Coordinator owns the submission queue and its workers. Start it once,
// Submit from any goroutine, Stop to drain and shut down.
type Coordinator struct {
	service  *decision.Service
	storage  collab.Storage
	minter   collab.Minter
	registry *collab.Registry
	recorder decision.Recorder
	logger   *zap.Logger
	workers  int

	queue chan job
	group *errgroup.Group

	mu        sync.Mutex
	started   bool
	stopped   bool
	processed int
	minted    int
	rejected  int
	failures  int
}

// NewCoordinator builds a coordinator. Zero worker or queue sizes select
// the defaults.
func NewCoordinator(opts Options) *Coordinator {
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	queueSize := opts.Queue
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		service:  opts.Service,
		storage:  opts.Storage,
		minter:   opts.Minter,
		registry: opts.Registry,
		recorder: opts.Recorder,
		logger:   logger,
		workers:  workers,
		queue:    make(chan job, queueSize),
	}
}

// Start launches the background workers. Jobs submitted before Start
// wait in the queue.
func (c *Coordinator) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return
	}
	c.started = true

	g, ctx := errgroup.WithContext(ctx)
	c.group = g
	for i := 0; i < c.workers; i++ {
		g.Go(func() error { return c.run(ctx) })
	}
	c.logger.Info("submission pipeline started", zap.Int("workers", c.workers), zap.Int("queue", cap(c.queue)))
}

// Stop drains the queue and waits for the workers to finish. Further
// submissions are rejected with ErrStopped.
func (c *Coordinator) Stop() error {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return nil
	}
	c.stopped = true
	close(c.queue)
	started := c.started
	g := c.group
	c.mu.Unlock()

	if !started {
		return nil
	}
	return g.Wait()
}

func (c *Coordinator) run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case j, ok := <-c.queue:
			if !ok {
				return nil
			}
			c.process(ctx, j)
		}
	}
}

// SubmitRequest carries one listing submission.
type SubmitRequest struct {
	Listing types.Listing `json:"listing_data"`
	User    types.User    `json:"user_data"`
}

// Submit validates the listing synchronously, uploads its metadata, and
// queues the post-submission job. The reply reports the under-review
// state; the background workers transition the record afterwards.
func (c *Coordinator) Submit(ctx context.Context, req SubmitRequest) types.SubmissionEnvelope {
	if req.Listing.ID == "" {
		return types.SubmissionEnvelope{Error: (&types.RequestError{Missing: "listing_data.id"}).Error()}
	}
	if req.User.ID == "" {
		return types.SubmissionEnvelope{Error: (&types.RequestError{Missing: "user_data.id"}).Error()}
	}

	requestID := uuid.NewString()
	start := time.Now()

	venv := c.service.Validate(ctx, decision.ValidateRequest{Listing: req.Listing, User: req.User})
	if !venv.Success {
		return types.SubmissionEnvelope{Error: venv.Error}
	}
	result := venv.Result
	if result.Status != types.StatusApproved {
		return types.SubmissionEnvelope{
			Error:            "Listing validation failed: " + strings.Join(result.Reasons, ", "),
			ValidationErrors: result.Reasons,
			Validation:       &result,
		}
	}

	payload, err := json.Marshal(req.Listing)
	if err != nil {
		return types.SubmissionEnvelope{Error: "encode metadata: " + err.Error()}
	}
	cid, err := c.storage.Upload(ctx, payload)
	if err != nil {
		c.logger.Warn("metadata upload failed",
			zap.String("request_id", requestID),
			zap.String("listing_id", req.Listing.ID),
			zap.Error(err))
		return types.SubmissionEnvelope{Error: "metadata upload failed: " + err.Error()}
	}
	storedCID := strings.TrimPrefix(cid, "ipfs://")

	// Re-submission keeps previously minted artifacts on the record.
	if _, ok := c.registry.Update(req.Listing.ID, func(rec *collab.Record) {
		rec.OwnerID = req.User.ID
		rec.Status = collab.RecordSubmitted
		rec.ValidationState = collab.ValidationPending
		rec.MetadataCID = storedCID
	}); !ok {
		c.registry.Put(collab.Record{
			ListingID:       req.Listing.ID,
			OwnerID:         req.User.ID,
			Status:          collab.RecordSubmitted,
			ValidationState: collab.ValidationPending,
			MetadataCID:     storedCID,
		})
	}

	if err := c.enqueue(job{RequestID: requestID, Listing: req.Listing, User: req.User}); err != nil {
		c.logger.Warn("post-submission enqueue failed",
			zap.String("request_id", requestID),
			zap.String("listing_id", req.Listing.ID),
			zap.Error(err))
		return types.SubmissionEnvelope{Error: err.Error()}
	}

	c.record(journal.Entry{
		RequestID: requestID,
		Kind:      journal.KindSubmission,
		SubjectID: req.Listing.ID,
		UserID:    req.User.ID,
		Strategy:  c.service.StrategyName(),
		Status:    collab.RecordSubmitted,
		Elapsed:   time.Since(start),
		Detail:    map[string]interface{}{"metadata_cid": storedCID},
	})
	c.logger.Info("listing submitted",
		zap.String("request_id", requestID),
		zap.String("listing_id", req.Listing.ID),
		zap.String("metadata_cid", storedCID))

	return types.SubmissionEnvelope{
		Success:     true,
		Status:      collab.RecordSubmitted,
		MetadataCID: cid,
		Message:     "Your property is under review.",
	}
}

func (c *Coordinator) enqueue(j job) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return ErrStopped
	}
	select {
	case c.queue <- j:
		return nil
	default:
		return ErrQueueFull
	}
}

// process runs one post-submission job: re-validate, transition the
// record, and mint when the owner has a wallet and no token exists yet.
func (c *Coordinator) process(ctx context.Context, j job) {
	start := time.Now()
	listingID := j.Listing.ID

	env := c.service.Validate(ctx, decision.ValidateRequest{Listing: j.Listing, User: j.User})
	if !env.Success {
		c.logger.Error("background validation failed",
			zap.String("request_id", j.RequestID),
			zap.String("listing_id", listingID),
			zap.String("error", env.Error))
		c.bump(&c.failures)
		return
	}

	if env.Result.Status != types.StatusApproved {
		c.registry.Update(listingID, func(rec *collab.Record) {
			rec.Status = collab.RecordRejected
			rec.ValidationState = collab.ValidationRejected
		})
		c.bump(&c.processed)
		c.bump(&c.rejected)
		c.record(journal.Entry{
			RequestID: j.RequestID,
			Kind:      journal.KindSubmission,
			SubjectID: listingID,
			UserID:    j.User.ID,
			Strategy:  c.service.StrategyName(),
			Status:    collab.RecordRejected,
			Elapsed:   time.Since(start),
			Detail:    map[string]interface{}{"reasons": len(env.Result.Reasons)},
		})
		return
	}

	rec, ok := c.registry.Update(listingID, func(rec *collab.Record) {
		rec.Status = collab.RecordAvailable
		rec.ValidationState = collab.ValidationApproved
		rec.Confidence = approvedConfidence
	})
	if !ok {
		c.logger.Error("listing record missing during post-submission",
			zap.String("request_id", j.RequestID),
			zap.String("listing_id", listingID))
		c.bump(&c.failures)
		return
	}

	if j.User.WalletAddress != "" && rec.MetadataCID != "" && rec.TokenID == "" {
		receipt, err := c.minter.Mint(ctx, j.User.WalletAddress, "ipfs://"+rec.MetadataCID)
		if err != nil {
			// Listing stays available; the next delivery retries the mint.
			c.logger.Error("auto-mint failed",
				zap.String("request_id", j.RequestID),
				zap.String("listing_id", listingID),
				zap.Error(err))
		} else {
			c.registry.Update(listingID, func(rec *collab.Record) {
				rec.TokenID = strconv.FormatInt(receipt.TokenID, 10)
				rec.ContractAddress = receipt.ContractAddress
			})
			c.bump(&c.minted)
			c.logger.Info("listing minted",
				zap.String("request_id", j.RequestID),
				zap.String("listing_id", listingID),
				zap.Int64("token_id", receipt.TokenID))
		}
	}

	c.bump(&c.processed)
	c.record(journal.Entry{
		RequestID: j.RequestID,
		Kind:      journal.KindSubmission,
		SubjectID: listingID,
		UserID:    j.User.ID,
		Strategy:  c.service.StrategyName(),
		Status:    collab.RecordAvailable,
		Elapsed:   time.Since(start),
	})
}

func (c *Coordinator) record(e journal.Entry) {
	if c.recorder == nil {
		return
	}
	if err := c.recorder.Record(e); err != nil {
		c.logger.Warn("journal record failed",
			zap.String("request_id", e.RequestID),
			zap.String("kind", e.Kind),
			zap.Error(err))
	}
}

func (c *Coordinator) bump(counter *int) {
	c.mu.Lock()
	*counter++
	c.mu.Unlock()
}

// Processed reports completed background jobs.
func (c *Coordinator) Processed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.processed
}

// Minted reports successful auto-mints.
func (c *Coordinator) Minted() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.minted
}

// Rejected reports background validations that rejected the listing.
func (c *Coordinator) Rejected() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rejected
}

// Failures reports jobs that could not complete.
func (c *Coordinator) Failures() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failures
}

package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fjod/go_cart/storefront/internal/api"
	"github.com/fjod/go_cart/storefront/internal/events"
)

var (
	ErrNoReference         = errors.New("no payment reference to verify")
	ErrVerificationRunning = errors.New("payment verification is already running")
	ErrVerificationFailed  = errors.New("payment could not be verified")
)

type VerifyAPI interface {
	VerifyPayment(ctx context.Context, reference string) (*api.Response[api.VerificationResult], error)
}

type Cart interface {
	CompleteOrder(ctx context.Context)
}

type Attribution interface {
	ClearAffiliateCode(ctx context.Context) error
}

type State string

const (
	StateIdle      State = "idle"
	StateVerifying State = "verifying"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// Action is a next step offered after a terminal failure.
type Action struct {
	Kind  string `json:"kind"`
	Label string `json:"label"`
	Href  string `json:"href,omitempty"`
}

var (
	ActionRetry        = Action{Kind: "retry_verification", Label: "Retry Verification"}
	ActionOrderHistory = Action{Kind: "order_history", Label: "View order history", Href: "/account/orders"}
)

type Outcome struct {
	State         State    `json:"state"`
	Reference     string   `json:"reference,omitempty"`
	Attempt       int      `json:"attempt"`
	MaxAttempts   int      `json:"max_attempts"`
	OrderID       string   `json:"order_id,omitempty"`
	InvoiceNumber string   `json:"invoice_number,omitempty"`
	Message       string   `json:"message,omitempty"`
	Actions       []Action `json:"actions,omitempty"`
}

type Options struct {
	MaxAttempts int
	Backoff     time.Duration
}

// Verifier confirms a payment after the shopper returns from the provider.
// Transient failures are retried with a fixed backoff up to MaxAttempts.
// One chain runs per reference; Retry starts a new one.
type Verifier struct {
	api         VerifyAPI
	pending     *PendingStore
	cart        Cart
	attribution Attribution
	bus         *events.Bus
	maxAttempts int
	backoff     time.Duration
	sleep       func(ctx context.Context, d time.Duration) error

	running atomic.Bool

	mu      sync.Mutex
	outcome Outcome
}

func NewVerifier(verifyAPI VerifyAPI, pending *PendingStore, cart Cart, attribution Attribution, bus *events.Bus, opts Options) *Verifier {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 3
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 2 * time.Second
	}
	return &Verifier{
		api:         verifyAPI,
		pending:     pending,
		cart:        cart,
		attribution: attribution,
		bus:         bus,
		maxAttempts: opts.MaxAttempts,
		backoff:     opts.Backoff,
		sleep:       sleepContext,
		outcome:     Outcome{State: StateIdle, MaxAttempts: opts.MaxAttempts},
	}
}

// WithSleep replaces the backoff wait.
func (v *Verifier) WithSleep(sleep func(ctx context.Context, d time.Duration) error) *Verifier {
	v.sleep = sleep
	return v
}

func (v *Verifier) Outcome() Outcome {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.outcome
}

// Verify runs the verification chain for the reference from the return URL,
// falling back to the pending reference. A succeeded chain for the same
// reference is not run again; its outcome is returned. A failed one is run
// afresh, as a reload of the verification page would.
func (v *Verifier) Verify(ctx context.Context, urlReference string) (Outcome, error) {
	if !v.running.CompareAndSwap(false, true) {
		return v.Outcome(), ErrVerificationRunning
	}
	defer v.running.Store(false)

	ref, err := v.resolve(ctx, urlReference)
	if err != nil {
		return v.Outcome(), err
	}

	v.mu.Lock()
	done := v.outcome.Reference == ref && v.outcome.State == StateSucceeded
	current := v.outcome
	v.mu.Unlock()
	if done {
		return current, outcomeErr(current)
	}
	return v.run(ctx, ref)
}

// Retry is the manual retry action: it resets the attempt counter and runs a
// fresh chain for the last reference.
func (v *Verifier) Retry(ctx context.Context) (Outcome, error) {
	if !v.running.CompareAndSwap(false, true) {
		return v.Outcome(), ErrVerificationRunning
	}
	defer v.running.Store(false)

	v.mu.Lock()
	ref := v.outcome.Reference
	v.mu.Unlock()
	if ref == "" {
		var err error
		if ref, err = v.resolve(ctx, ""); err != nil {
			return v.Outcome(), err
		}
	}
	return v.run(ctx, ref)
}

func (v *Verifier) resolve(ctx context.Context, urlReference string) (string, error) {
	if ref := strings.TrimSpace(urlReference); ref != "" {
		return ref, nil
	}
	pending, found, err := v.pending.Load(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to read pending payment", "error", err)
	}
	if found {
		return pending.Reference, nil
	}

	v.setOutcome(Outcome{
		State:       StateFailed,
		MaxAttempts: v.maxAttempts,
		Message:     "We couldn't find a payment to verify.",
		Actions:     []Action{ActionOrderHistory},
	})
	return "", ErrNoReference
}

func (v *Verifier) run(ctx context.Context, ref string) (Outcome, error) {
	for attempt := 1; ; attempt++ {
		progress := "Verifying your payment"
		if attempt > 1 {
			progress = fmt.Sprintf("Retry attempt %d of %d", attempt, v.maxAttempts)
		}
		v.setOutcome(Outcome{
			State:       StateVerifying,
			Reference:   ref,
			Attempt:     attempt,
			MaxAttempts: v.maxAttempts,
			Message:     progress,
		})
		v.bus.Publish(events.VerificationProgress{
			Reference:   ref,
			Attempt:     attempt,
			MaxAttempts: v.maxAttempts,
			Message:     progress,
		})

		resp, err := v.api.VerifyPayment(ctx, ref)
		if err == nil && resp.Success {
			return v.succeed(ctx, ref, attempt, resp.Data), nil
		}

		var env *api.Envelope
		if resp != nil {
			env = resp.Envelope
		}
		transient := api.IsTransient(env, err)
		slog.WarnContext(ctx, "payment verification attempt failed",
			"reference", ref, "attempt", attempt, "transient", transient, "error", err)

		if !transient {
			return v.fail(ctx, ref, attempt, messageOf(env, "We couldn't confirm your payment."))
		}
		if attempt >= v.maxAttempts {
			return v.fail(ctx, ref, attempt, "We couldn't reach the payment service to confirm your payment.")
		}
		if err := v.sleep(ctx, v.backoff); err != nil {
			return v.fail(ctx, ref, attempt, "Payment verification was interrupted.")
		}
	}
}

func (v *Verifier) succeed(ctx context.Context, ref string, attempt int, res api.VerificationResult) Outcome {
	pending, _, _ := v.pending.Load(ctx)

	v.cart.CompleteOrder(ctx)
	if err := v.pending.Clear(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to clear pending payment", "error", err)
	}
	if err := v.attribution.ClearAffiliateCode(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to clear affiliate code", "error", err)
	}

	out := Outcome{
		State:         StateSucceeded,
		Reference:     ref,
		Attempt:       attempt,
		MaxAttempts:   v.maxAttempts,
		OrderID:       res.OrderID,
		InvoiceNumber: res.InvoiceNumber,
		Message:       "Payment confirmed",
	}
	v.setOutcome(out)
	slog.InfoContext(ctx, "payment verified", "reference", ref, "invoice_number", res.InvoiceNumber, "attempts", attempt)

	v.bus.Publish(events.OrderPlaced{
		Reference:     ref,
		OrderID:       res.OrderID,
		InvoiceNumber: res.InvoiceNumber,
		Method:        string(pending.Method),
	})
	return out
}

func (v *Verifier) fail(ctx context.Context, ref string, attempt int, msg string) (Outcome, error) {
	out := Outcome{
		State:       StateFailed,
		Reference:   ref,
		Attempt:     attempt,
		MaxAttempts: v.maxAttempts,
		Message:     msg,
		Actions:     []Action{ActionRetry, ActionOrderHistory},
	}
	v.setOutcome(out)
	slog.ErrorContext(ctx, "payment verification failed", "reference", ref, "attempts", attempt, "message", msg)
	v.bus.Publish(events.Error(msg))
	return out, ErrVerificationFailed
}

func (v *Verifier) setOutcome(o Outcome) {
	v.mu.Lock()
	v.outcome = o
	v.mu.Unlock()
}

func outcomeErr(o Outcome) error {
	if o.State == StateFailed {
		return ErrVerificationFailed
	}
	return nil
}

func messageOf(env *api.Envelope, fallback string) string {
	if env != nil && env.Message != "" {
		return env.Message
	}
	return fallback
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

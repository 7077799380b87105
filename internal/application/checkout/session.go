package checkout

import (
	"context"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"

	cartapp "github.com/storefront/backend/internal/application/cart"
	"github.com/storefront/backend/internal/application/hooks"
	"github.com/storefront/backend/internal/domain/checkout"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/cache"
)

// Form-level message keys resolved to localized text at the HTTP layer.
const (
	MsgCheckoutNotReady = "checkoutNotReady"
	MsgSubmitInProgress = "submitInProgress"
	MsgFillRequired     = "fillRequiredFields"
	MsgPaymentFailed    = "paymentFailed"
	MsgSessionExpired   = "sessionExpired"
)

// Config carries the collaborators and tunables shared by all sessions.
type Config struct {
	Gateway         checkout.PaymentGateway
	Invalidator     cache.TagInvalidator
	StoreID         string
	RetryPolicy     shared.RetryPolicy
	BillingDebounce time.Duration
	SuccessURL      string
	Logger          *zap.Logger

	// Hooks receives the agent-facing capabilities while a checkout session
	// is open for a visitor. Optional.
	Hooks *hooks.Registry
	// Carts backs the bulk-add capability registered during checkout. Optional.
	Carts *cartapp.Service
}

// Session coordinates one checkout form: the lifecycle of its three embedded
// widgets, autofill injection with bounded retries, billing-address capture
// with debounced persistence, and the final submission against the payment
// gateway. All state is mutex-guarded; timer callbacks take the same lock.
type Session struct {
	ID     string
	CartID string

	// visitorID keys the agent-capability registration for this session
	visitorID string

	mu sync.Mutex

	elements   map[checkout.ElementKind]*checkout.Element
	generation int

	// Client handles reported by the page once the payment library and its
	// rendering context are up.
	paymentHandle bool
	contextHandle bool

	// Autofill retry state
	pendingAutofill *checkout.AutofillPayload
	autofillAttempt int
	autofillTimer   *time.Timer

	shipping       checkout.Address
	billing        checkout.Address
	sameAsShipping bool
	email          string

	shippingRate       string
	shippingRateSaving bool

	billingDebounce *shared.Debouncer

	intent  *checkout.PaymentIntent
	loading bool
	closed  bool

	lastActive time.Time

	cfg Config
}

// newSession builds a session around an already-created payment intent.
func newSession(id, visitorID, cartID string, intent *checkout.PaymentIntent, cfg Config) *Session {
	s := &Session{
		ID:        id,
		visitorID: visitorID,
		CartID:    cartID,
		elements: map[checkout.ElementKind]*checkout.Element{
			checkout.ElementAuth:    {Kind: checkout.ElementAuth, State: checkout.ElementUnmounted},
			checkout.ElementAddress: {Kind: checkout.ElementAddress, State: checkout.ElementUnmounted},
			checkout.ElementPayment: {Kind: checkout.ElementPayment, State: checkout.ElementUnmounted},
		},
		sameAsShipping:  true,
		billingDebounce: shared.NewDebouncer(cfg.BillingDebounce),
		intent:          intent,
		lastActive:      time.Now(),
		cfg:             cfg,
	}
	return s
}

// touchLocked records activity for idle expiry.
func (s *Session) touchLocked() {
	s.lastActive = time.Now()
}

// LastActive returns the time of the last operation on the session.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// SetClientHandles records whether the payment library handle and its
// rendering context are available on the page.
func (s *Session) SetClientHandles(payment, context bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paymentHandle = payment
	s.contextHandle = context
	s.touchLocked()
}

// ElementMounting reports a widget entering its mounting phase. Signals for
// a stale generation are dropped.
func (s *Session) ElementMounting(kind checkout.ElementKind, generation int) bool {
	if !kind.Valid() {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	return s.elements[kind].Mounting(generation)
}

// ElementReady reports a widget becoming ready. When a pending autofill
// payload exists and both gated widgets are ready, the payload is applied
// and remaining retries are cancelled.
func (s *Session) ElementReady(kind checkout.ElementKind, generation int) bool {
	if !kind.Valid() {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	if !s.elements[kind].MarkReady(generation) {
		return false
	}

	if s.pendingAutofill != nil && s.gatedReadyLocked() {
		s.applyAutofillLocked()
	}
	return true
}

// Generation returns the current mount generation (the remount key).
func (s *Session) Generation() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// ReadyToRender reports whether the form can be interacted with: all three
// widgets ready plus both client handles.
func (s *Session) ReadyToRender() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readyToRenderLocked()
}

func (s *Session) readyToRenderLocked() bool {
	return s.allReadyLocked() && s.paymentHandle && s.contextHandle
}

func (s *Session) allReadyLocked() bool {
	return s.elements[checkout.ElementAuth].IsReady() &&
		s.elements[checkout.ElementAddress].IsReady() &&
		s.elements[checkout.ElementPayment].IsReady()
}

// gatedReadyLocked reports whether the two autofill-gated widgets are ready.
func (s *Session) gatedReadyLocked() bool {
	return s.elements[checkout.ElementAuth].IsReady() &&
		s.elements[checkout.ElementAddress].IsReady()
}

// RequestAutofill stores the payload, forces the gated widgets through a
// remount, and schedules bounded retries. Empty payloads are ignored.
func (s *Session) RequestAutofill(payload checkout.AutofillPayload) {
	if payload.Empty() {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.touchLocked()

	s.stopAutofillTimerLocked()
	s.pendingAutofill = &payload
	s.autofillAttempt = 0
	s.remountGatedLocked()
	s.scheduleAutofillRetryLocked()
}

// remountGatedLocked bumps the remount key and resets the auth and address
// widgets under the new generation.
func (s *Session) remountGatedLocked() {
	s.generation++
	s.elements[checkout.ElementAuth].Remount(s.generation)
	s.elements[checkout.ElementAddress].Remount(s.generation)
}

func (s *Session) scheduleAutofillRetryLocked() {
	next := s.autofillAttempt + 1
	if next > s.cfg.RetryPolicy.MaxAttempts() {
		s.cfg.Logger.Warn("Autofill gave up, widgets never became ready",
			zap.String("session_id", s.ID),
			zap.Int("attempts", s.autofillAttempt))
		s.pendingAutofill = nil
		return
	}
	s.autofillAttempt = next

	s.autofillTimer = time.AfterFunc(s.cfg.RetryPolicy.Delay(next), func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed || s.pendingAutofill == nil {
			return
		}
		if s.gatedReadyLocked() {
			s.applyAutofillLocked()
			return
		}
		// Not ready yet: force another remount and try again
		s.remountGatedLocked()
		s.scheduleAutofillRetryLocked()
	})
}

// applyAutofillLocked seeds the form from the pending payload exactly once.
func (s *Session) applyAutofillLocked() {
	payload := *s.pendingAutofill
	s.pendingAutofill = nil
	s.stopAutofillTimerLocked()

	s.shipping = payload.ShippingDefaults()
	if payload.Email != "" {
		s.email = payload.Email
	}
	if s.sameAsShipping {
		s.billing = s.shipping
	}

	s.cfg.Logger.Debug("Autofill applied",
		zap.String("session_id", s.ID),
		zap.Int("generation", s.generation))
}

func (s *Session) stopAutofillTimerLocked() {
	if s.autofillTimer != nil {
		s.autofillTimer.Stop()
		s.autofillTimer = nil
	}
}

// ShippingChanged records a change event from the address widget. While the
// billing address is aliased to shipping, the change is mirrored into
// billing as well.
func (s *Session) ShippingChanged(addr checkout.Address) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	s.shipping = addr
	if addr.Email != "" {
		s.email = addr.Email
	}
	if s.sameAsShipping {
		s.billing = addr
	}
}

// BillingChanged records an edit to the separate billing form. Edits are
// ignored while billing is aliased to shipping. Persistence is debounced so
// a burst of keystrokes produces one gateway update.
func (s *Session) BillingChanged(addr checkout.Address) {
	s.mu.Lock()
	if s.sameAsShipping || s.closed {
		s.mu.Unlock()
		return
	}
	s.touchLocked()
	s.billing = addr
	s.mu.Unlock()

	s.billingDebounce.Trigger(s.persistBilling)
}

// persistBilling pushes the current billing address to the payment gateway
// so totals (tax) are refreshed, then invalidates the cached cart view.
func (s *Session) persistBilling() {
	s.mu.Lock()
	if s.closed || s.intent == nil {
		s.mu.Unlock()
		return
	}
	billing := s.billing
	email := s.email
	intentID := s.intent.ID
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	updated, err := s.cfg.Gateway.UpdateIntent(ctx, checkout.UpdateIntentInput{
		IntentID:       intentID,
		BillingAddress: &billing,
		Email:          email,
	})
	if err != nil {
		s.cfg.Logger.Warn("Billing persistence failed",
			zap.String("session_id", s.ID),
			zap.Error(err))
		return
	}

	s.mu.Lock()
	s.intent = updated
	s.mu.Unlock()

	if err := s.cfg.Invalidator.Invalidate(ctx, cache.CartTag(s.CartID)); err != nil {
		s.cfg.Logger.Warn("Cache invalidation failed after billing update",
			zap.String("session_id", s.ID),
			zap.Error(err))
	}
}

// SetSameAsShipping toggles billing aliasing. Turning it back on restores
// the mirrored shipping values into billing.
func (s *Session) SetSameAsShipping(same bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	s.sameAsShipping = same
	if same {
		s.billing = s.shipping
	}
}

// SetShippingRate records the selected shipping rate and persists it so the
// intent totals pick up the new shipping cost. Submission is blocked while
// the save is in flight.
func (s *Session) SetShippingRate(ctx context.Context, rateID string) error {
	if rateID == "" {
		return shared.ErrInvalidInput
	}

	s.mu.Lock()
	if s.closed || s.intent == nil {
		s.mu.Unlock()
		return shared.ErrInvalidState
	}
	s.touchLocked()
	s.shippingRate = rateID
	s.shippingRateSaving = true
	intentID := s.intent.ID
	s.mu.Unlock()

	updated, err := s.cfg.Gateway.UpdateIntent(ctx, checkout.UpdateIntentInput{
		IntentID:       intentID,
		ShippingRateID: rateID,
	})

	s.mu.Lock()
	s.shippingRateSaving = false
	if err == nil {
		s.intent = updated
	}
	s.mu.Unlock()

	if err != nil {
		s.cfg.Logger.Warn("Shipping rate persistence failed",
			zap.String("session_id", s.ID),
			zap.String("shipping_rate_id", rateID),
			zap.Error(err))
		return err
	}

	if err := s.cfg.Invalidator.Invalidate(ctx, cache.CartTag(s.CartID)); err != nil {
		s.cfg.Logger.Warn("Cache invalidation failed after shipping rate update",
			zap.String("session_id", s.ID),
			zap.Error(err))
	}
	return nil
}

// SubmitInput carries the submission request.
type SubmitInput struct {
	PaymentMethodID string
	TaxID           string
}

// SubmitResult is the structured outcome of a submission attempt. ErrorKey
// is empty on success; FieldErrors is populated only when the separate
// billing form is visible.
type SubmitResult struct {
	ErrorKey        string
	FieldErrors     checkout.FieldErrors
	RedirectURL     string
	ClearCartCookie bool
}

// Submit runs the submission protocol: snapshot and validate both addresses,
// persist the optional tax ID, confirm the payment intent, and hand back the
// redirect target. The loading flag stays set after a successful confirm so
// the form remains locked through the redirect.
func (s *Session) Submit(ctx context.Context, input SubmitInput) (*SubmitResult, error) {
	s.mu.Lock()
	s.touchLocked()

	if s.loading {
		s.mu.Unlock()
		return &SubmitResult{ErrorKey: MsgSubmitInProgress}, nil
	}
	// An in-flight shipping-rate save means the totals are stale
	if !s.readyToRenderLocked() || s.shippingRateSaving {
		s.mu.Unlock()
		return &SubmitResult{ErrorKey: MsgCheckoutNotReady}, nil
	}

	shipping := s.shipping
	billing := s.billing
	if s.sameAsShipping {
		billing = shipping
	}
	billingVisible := !s.sameAsShipping
	intentID := ""
	if s.intent != nil {
		intentID = s.intent.ID
	}
	email := s.email

	if errs := shipping.Validate(); len(errs) > 0 {
		s.mu.Unlock()
		return &SubmitResult{ErrorKey: MsgFillRequired}, nil
	}
	if errs := billing.Validate(); len(errs) > 0 {
		result := &SubmitResult{ErrorKey: MsgFillRequired}
		if billingVisible {
			result.FieldErrors = errs
		}
		s.mu.Unlock()
		return result, nil
	}

	s.loading = true
	s.mu.Unlock()

	// Attach the tax ID before confirming so it lands on the receipt
	taxID := input.TaxID
	if taxID == "" {
		taxID = billing.TaxID
	}
	if taxID != "" {
		err := s.cfg.Gateway.SaveTaxID(ctx, checkout.SaveTaxIDInput{
			IntentID: intentID,
			TaxID:    taxID,
			Country:  billing.Country,
		})
		if err != nil {
			s.cfg.Logger.Warn("Tax ID persistence failed",
				zap.String("session_id", s.ID),
				zap.Error(err))
		}
	}

	if _, err := s.cfg.Gateway.UpdateIntent(ctx, checkout.UpdateIntentInput{
		IntentID:       intentID,
		BillingAddress: &billing,
		Email:          email,
	}); err != nil {
		s.unlockForm()
		s.cfg.Logger.Error("Billing update before confirm failed",
			zap.String("session_id", s.ID),
			zap.Error(err))
		return &SubmitResult{ErrorKey: MsgPaymentFailed}, nil
	}

	confirmed, err := s.cfg.Gateway.ConfirmIntent(ctx, checkout.ConfirmIntentInput{
		IntentID:        intentID,
		PaymentMethodID: input.PaymentMethodID,
		ReturnURL:       s.cfg.SuccessURL,
	})
	if err != nil {
		s.unlockForm()
		s.cfg.Logger.Error("Payment confirmation failed",
			zap.String("session_id", s.ID),
			zap.Error(err))
		return &SubmitResult{ErrorKey: MsgPaymentFailed}, nil
	}

	s.mu.Lock()
	s.intent = confirmed
	// loading intentionally stays true: the form remains locked while the
	// client follows the redirect
	s.mu.Unlock()

	if err := s.cfg.Invalidator.Invalidate(ctx, cache.CartTag(s.CartID), cache.AdminOrdersTag(s.cfg.StoreID)); err != nil {
		s.cfg.Logger.Warn("Cache invalidation failed after confirm",
			zap.String("session_id", s.ID),
			zap.Error(err))
	}

	redirect, _ := url.Parse(s.cfg.SuccessURL)
	q := redirect.Query()
	q.Set("payment_intent", confirmed.ID)
	q.Set("payment_intent_client_secret", confirmed.ClientSecret)
	redirect.RawQuery = q.Encode()

	return &SubmitResult{
		RedirectURL:     redirect.String(),
		ClearCartCookie: true,
	}, nil
}

func (s *Session) unlockForm() {
	s.mu.Lock()
	s.loading = false
	s.mu.Unlock()
}

// Snapshot is a read-only view of the session state for the state endpoint.
type Snapshot struct {
	ID             string                                        `json:"id"`
	CartID         string                                        `json:"cartId"`
	Generation     int                                           `json:"generation"`
	Elements       map[checkout.ElementKind]checkout.ElementState `json:"elements"`
	ReadyToRender  bool                                          `json:"readyToRender"`
	Loading        bool                                          `json:"loading"`
	SameAsShipping bool                                          `json:"sameAsShipping"`
	Email          string                                        `json:"email,omitempty"`
	ClientSecret   string                                        `json:"clientSecret,omitempty"`
	AutofillActive bool                                          `json:"autofillActive"`

	ShippingRate       string `json:"shippingRate,omitempty"`
	ShippingRateSaving bool   `json:"shippingRateSaving"`
}

// Snapshot returns the current state of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:             s.ID,
		CartID:         s.CartID,
		Generation:     s.generation,
		Elements:       make(map[checkout.ElementKind]checkout.ElementState, len(s.elements)),
		ReadyToRender:  s.readyToRenderLocked(),
		Loading:        s.loading,
		SameAsShipping: s.sameAsShipping,
		Email:          s.email,
		AutofillActive: s.pendingAutofill != nil,

		ShippingRate:       s.shippingRate,
		ShippingRateSaving: s.shippingRateSaving,
	}
	for kind, el := range s.elements {
		snap.Elements[kind] = el.State
	}
	if s.intent != nil {
		snap.ClientSecret = s.intent.ClientSecret
	}
	return snap
}

// Close stops all timers. The session drops any pending autofill or billing
// flush.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.stopAutofillTimerLocked()
	s.pendingAutofill = nil
	s.mu.Unlock()

	s.billingDebounce.Stop()
}

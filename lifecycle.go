package users

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// AccountStatus is the derived lifecycle state of an account.
type AccountStatus = string

const (
	// AccountStatusPending means the account was created but never
	// activated.
	AccountStatusPending AccountStatus = "pending"
	// AccountStatusActive means the account is activated and enabled.
	AccountStatusActive AccountStatus = "active"
	// AccountStatusDisabled means an administrator has blocked the
	// account; activation state is unaffected.
	AccountStatusDisabled AccountStatus = "disabled"
)

// TransitionContext is passed into hooks for additional processing.
type TransitionContext struct {
	Actor   ActorRef
	Account *Account
	From    AccountStatus
	To      AccountStatus
	Reason  string
	Meta    map[string]any
}

// TransitionHook is executed before or after a transition.
type TransitionHook func(ctx context.Context, tc TransitionContext) error

// TransitionHookPhase identifies whether a hook ran before or after persistence.
type TransitionHookPhase string

const (
	HookPhaseBefore TransitionHookPhase = "before_transition"
	HookPhaseAfter  TransitionHookPhase = "after_transition"
)

// HookErrorHandler handles errors surfaced by transition hooks.
type HookErrorHandler func(ctx context.Context, phase TransitionHookPhase, err error, tc TransitionContext) error

// TransitionOption customizes a single transition.
type TransitionOption func(*transitionOptions)

type transitionOptions struct {
	reason      string
	metadata    map[string]any
	beforeHooks []TransitionHook
	afterHooks  []TransitionHook
}

// WithTransitionReason sets the human-readable reason for the transition.
func WithTransitionReason(reason string) TransitionOption {
	return func(opts *transitionOptions) {
		opts.reason = reason
	}
}

// WithTransitionMetadata merges metadata into the transition context.
func WithTransitionMetadata(metadata map[string]any) TransitionOption {
	return func(opts *transitionOptions) {
		if len(metadata) == 0 {
			return
		}
		if opts.metadata == nil {
			opts.metadata = make(map[string]any, len(metadata))
		}
		for k, v := range metadata {
			opts.metadata[k] = v
		}
	}
}

// WithBeforeTransitionHook adds a hook executed before the status update.
func WithBeforeTransitionHook(h TransitionHook) TransitionOption {
	return func(opts *transitionOptions) {
		if h != nil {
			opts.beforeHooks = append(opts.beforeHooks, h)
		}
	}
}

// WithAfterTransitionHook adds a hook executed after the status update succeeds.
func WithAfterTransitionHook(h TransitionHook) TransitionOption {
	return func(opts *transitionOptions) {
		if h != nil {
			opts.afterHooks = append(opts.afterHooks, h)
		}
	}
}

// LifecycleOption customizes lifecycle construction.
type LifecycleOption func(*Lifecycle)

// WithLifecycleClock injects a custom clock (useful for tests).
func WithLifecycleClock(clock func() time.Time) LifecycleOption {
	return func(l *Lifecycle) {
		if clock != nil {
			l.now = clock
		}
	}
}

// WithLifecycleActivitySink sets the ActivitySink used to publish lifecycle events.
func WithLifecycleActivitySink(sink ActivitySink) LifecycleOption {
	return func(l *Lifecycle) {
		l.activitySink = normalizeActivitySink(sink)
	}
}

// WithLifecycleLogger overrides the logger used for sink failures.
func WithLifecycleLogger(logger Logger) LifecycleOption {
	return func(l *Lifecycle) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithLifecycleHookErrorHandler overrides how hook failures are propagated.
func WithLifecycleHookErrorHandler(handler HookErrorHandler) LifecycleOption {
	return func(l *Lifecycle) {
		if handler != nil {
			l.hookErrorHandler = handler
		}
	}
}

// Lifecycle is the administrative surface for the enabled gate: it
// centralizes Enable/Disable transitions, actor attribution, hooks, and
// audit events. Activation is not a lifecycle transition; the
// ActivationManager owns it.
type Lifecycle struct {
	store            Store
	now              func() time.Time
	activitySink     ActivitySink
	logger           Logger
	hookErrorHandler HookErrorHandler
}

// NewLifecycle returns the default implementation backed by the provided store.
func NewLifecycle(store Store, opts ...LifecycleOption) *Lifecycle {
	l := &Lifecycle{
		store:        store,
		now:          time.Now,
		activitySink: noopActivitySink{},
		logger:       defLogger{},
		hookErrorHandler: func(ctx context.Context, phase TransitionHookPhase, err error, tc TransitionContext) error {
			return goerrors.Wrap(err, goerrors.CategoryOperation, "lifecycle "+string(phase)+" hook failed")
		},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}

	return l
}

// Disable blocks the account. Already-disabled accounts are a no-op.
func (l *Lifecycle) Disable(ctx context.Context, actor ActorRef, account *Account, opts ...TransitionOption) (*Account, error) {
	return l.setEnabled(ctx, actor, account, false, opts...)
}

// Enable lifts an administrative block. Already-enabled accounts are a
// no-op.
func (l *Lifecycle) Enable(ctx context.Context, actor ActorRef, account *Account, opts ...TransitionOption) (*Account, error) {
	return l.setEnabled(ctx, actor, account, true, opts...)
}

// CurrentStatus derives the lifecycle state from the account fields.
func (l *Lifecycle) CurrentStatus(account *Account) AccountStatus {
	if account == nil {
		return ""
	}
	if !account.IsActivated() {
		return AccountStatusPending
	}
	if !account.Enabled {
		return AccountStatusDisabled
	}
	return AccountStatusActive
}

func (l *Lifecycle) setEnabled(ctx context.Context, actor ActorRef, account *Account, enabled bool, opts ...TransitionOption) (*Account, error) {
	if account == nil {
		return nil, goerrors.New("account must not be nil", goerrors.CategoryBadInput)
	}

	if account.Enabled == enabled {
		return account, nil
	}

	options := &transitionOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}

	from := l.CurrentStatus(account)
	account.Enabled = enabled
	to := l.CurrentStatus(account)

	tc := TransitionContext{
		Actor:   actor,
		Account: account,
		From:    from,
		To:      to,
		Reason:  options.reason,
		Meta:    options.metadata,
	}

	if err := l.runHooks(ctx, options.beforeHooks, tc, HookPhaseBefore); err != nil {
		account.Enabled = !enabled
		return nil, err
	}

	if err := l.store.Save(ctx, account); err != nil {
		account.Enabled = !enabled
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist account status")
	}

	if err := l.runHooks(ctx, options.afterHooks, tc, HookPhaseAfter); err != nil {
		return nil, err
	}

	l.recordActivity(ctx, tc)

	return account, nil
}

func (l *Lifecycle) runHooks(ctx context.Context, hooks []TransitionHook, tc TransitionContext, phase TransitionHookPhase) error {
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		if err := hook(ctx, tc); err != nil {
			if l.hookErrorHandler == nil {
				return err
			}
			return l.hookErrorHandler(ctx, phase, err, tc)
		}
	}
	return nil
}

func (l *Lifecycle) recordActivity(ctx context.Context, tc TransitionContext) {
	actor := tc.Actor
	if actor == (ActorRef{}) {
		actor = ActorRef{Type: "system"}
	}

	metadata := map[string]any{
		"from": tc.From,
		"to":   tc.To,
	}
	if tc.Reason != "" {
		metadata["reason"] = tc.Reason
	}
	for k, v := range tc.Meta {
		metadata[k] = v
	}

	event := ActivityEvent{
		EventType:  ActivityEventAccountStatusChanged,
		Actor:      actor,
		AccountID:  tc.Account.ID.String(),
		Metadata:   metadata,
		OccurredAt: l.now(),
	}

	if err := normalizeActivitySink(l.activitySink).Record(ctx, event); err != nil {
		l.logger.Warn("lifecycle activity sink error: %v", err)
	}
}

package passhash

import (
	"errors"
	"log/slog"
	"time"

	"vettid/mobile-core/internal/platform/metrics"
	"vettid/mobile-core/internal/platform/privacylog"
	"vettid/mobile-core/internal/platform/ratelimiter"
)

// ErrTooManyAttempts reports client-side throttling. It is a UX guard, not
// a security boundary; the vault rate-limits on its own.
var ErrTooManyAttempts = errors.New("too many verification attempts")

// VerifierConfig wires the attempt-throttled verifier. All fields are
// optional; a nil limiter disables throttling.
type VerifierConfig struct {
	Hasher  *Hasher
	Limiter *ratelimiter.AttemptLimiter
	Logger  *slog.Logger
	Metrics *metrics.Recorder
}

// Verifier wraps PHC verification with a per-subject attempt throttle.
type Verifier struct {
	hasher  *Hasher
	limiter *ratelimiter.AttemptLimiter
	log     *slog.Logger
	metrics *metrics.Recorder
	now     func() time.Time
}

func NewVerifier(cfg VerifierConfig) *Verifier {
	return newVerifierWithClock(cfg, time.Now)
}

func newVerifierWithClock(cfg VerifierConfig, now func() time.Time) *Verifier {
	if cfg.Hasher == nil {
		cfg.Hasher = New()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	// Subjects are connection ids; the sanitizer fingerprints them.
	return &Verifier{
		hasher:  cfg.Hasher,
		limiter: cfg.Limiter,
		log:     slog.New(privacylog.WrapHandler(cfg.Logger.Handler())),
		metrics: cfg.Metrics,
		now:     now,
	}
}

// Verify checks password against the stored PHC string for subject. Denied
// attempts return ErrTooManyAttempts without touching the hash; a
// successful verification clears the subject's backoff.
func (v *Verifier) Verify(subject string, password []byte, phc string) (ok bool, err error) {
	start := v.now()
	defer func() { v.metrics.Observe("password_verify", start, err) }()

	if !v.limiter.Allow(subject, v.now()) {
		v.log.Warn("password verification throttled", "subject", subject)
		return false, ErrTooManyAttempts
	}
	ok, err = v.hasher.VerifyPHC(password, phc)
	if err != nil {
		return false, err
	}
	if ok {
		v.limiter.Reset(subject)
	}
	return ok, nil
}

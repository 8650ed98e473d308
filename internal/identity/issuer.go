// Package identity issues and verifies the anonymous reporter's proof of
// control over a case: a case number plus a six-digit PIN.
//
// Only a bcrypt hash of the PIN is ever stored. The plaintext is returned once
// from Issue and there is no recovery path.
package identity

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"regexp"
	"sync"

	"safedesk/pkg/requestcontext"
	"safedesk/pkg/secrets"
)

const (
	pinMin   = 100000
	pinRange = 900000

	defaultPrefix = "SD"
	defaultCost   = 12
)

var pinPattern = regexp.MustCompile(`^\d{6}$`)

// Sequencer hands out per-year case sequence numbers. Next must be an atomic
// increment-and-read: two callers never observe the same value for a year.
type Sequencer interface {
	Next(ctx context.Context, year int) (int64, error)
}

// Issued is the result of minting a new case identity. PIN is plaintext and
// must only be shown to the reporter in the creation response.
type Issued struct {
	CaseNumber CaseNumber
	PIN        string
	PINHash    string
}

type Issuer struct {
	seq    Sequencer
	prefix string
	cost   int
	random io.Reader

	dummyOnce sync.Once
	dummyHash string
}

type Option func(*Issuer)

func WithPrefix(prefix string) Option {
	return func(i *Issuer) {
		if prefix != "" {
			i.prefix = prefix
		}
	}
}

// WithHashCost sets the bcrypt cost for PIN hashes.
func WithHashCost(cost int) Option {
	return func(i *Issuer) {
		if cost > 0 {
			i.cost = cost
		}
	}
}

// WithRandom replaces crypto/rand as the PIN entropy source.
func WithRandom(r io.Reader) Option {
	return func(i *Issuer) {
		i.random = r
	}
}

func NewIssuer(seq Sequencer, opts ...Option) *Issuer {
	i := &Issuer{
		seq:    seq,
		prefix: defaultPrefix,
		cost:   defaultCost,
		random: rand.Reader,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Issue mints a case number for the current year, a fresh PIN and its hash.
func (i *Issuer) Issue(ctx context.Context) (*Issued, error) {
	year := requestcontext.Now(ctx).Year()
	seq, err := i.seq.Next(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("next case sequence: %w", err)
	}

	pin, err := i.generatePIN()
	if err != nil {
		return nil, err
	}
	hash, err := secrets.Hash(pin, i.cost)
	if err != nil {
		return nil, fmt.Errorf("hash pin: %w", err)
	}

	return &Issued{
		CaseNumber: FormatCaseNumber(i.prefix, year, seq),
		PIN:        pin,
		PINHash:    hash,
	}, nil
}

// Verify reports whether candidate is the PIN behind pinHash. Malformed
// candidates still cost one bcrypt comparison.
func (i *Issuer) Verify(pinHash, candidate string) bool {
	if !pinPattern.MatchString(candidate) {
		i.VerifyAbsent(candidate)
		return false
	}
	return secrets.Matches(candidate, pinHash)
}

// VerifyAbsent burns one comparison against a fixed hash. Callers use it
// when the case does not exist so a miss takes as long as a wrong PIN.
func (i *Issuer) VerifyAbsent(candidate string) {
	i.dummyOnce.Do(func() {
		i.dummyHash, _ = secrets.Hash("000000", i.cost)
	})
	_ = secrets.Matches(candidate, i.dummyHash)
}

func (i *Issuer) generatePIN() (string, error) {
	n, err := rand.Int(i.random, big.NewInt(pinRange))
	if err != nil {
		return "", fmt.Errorf("generate pin: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+pinMin), nil
}

// ValidPIN reports whether s has the shape of an issued PIN.
func ValidPIN(s string) bool {
	return pinPattern.MatchString(s)
}

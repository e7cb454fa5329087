package utils

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"time"
)

const (
	certificatePrefix = "ZXC"
	certificateMinSeq = 100000
	certificateMaxSeq = 999999
)

var certificateNumberPattern = regexp.MustCompile(`^ZXC\d{4}\d{6}$`)

// RandomSource hands out integers drawn uniformly from [min, max].
type RandomSource interface {
	UniformInt(min, max int) int
}

type Clock interface {
	Now() time.Time
}

type processRandom struct{}

func (processRandom) UniformInt(min, max int) int {
	return min + rand.IntN(max-min+1)
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// ProcessRandom is backed by the process-wide math/rand source.
var ProcessRandom RandomSource = processRandom{}

var SystemClock Clock = systemClock{}

// CertificateNumberGenerator produces ZXC<year><6 digits> codes. It does not
// check for collisions; the certificate store rejects duplicates.
type CertificateNumberGenerator struct {
	rand  RandomSource
	clock Clock
}

func NewCertificateNumberGenerator(r RandomSource, c Clock) *CertificateNumberGenerator {
	if r == nil {
		r = ProcessRandom
	}
	if c == nil {
		c = SystemClock
	}
	return &CertificateNumberGenerator{rand: r, clock: c}
}

func (g *CertificateNumberGenerator) Generate() string {
	year := g.clock.Now().Year()
	seq := g.rand.UniformInt(certificateMinSeq, certificateMaxSeq)
	return fmt.Sprintf("%s%04d%06d", certificatePrefix, year, seq)
}

// IsCertificateNumber reports whether s has the shape of a certificate number.
func IsCertificateNumber(s string) bool {
	return certificateNumberPattern.MatchString(s)
}

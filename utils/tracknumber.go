package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
)

// trackAlphabet leaves out 0/O and 1/I so numbers read well over the phone.
const trackAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

const trackSuffixLen = 5

// NewTrackNumber returns a ticket code such as "SRV-251015-7KQ2M".
// Uniqueness is guaranteed by the unique index on service_requests; callers
// retry on a duplicate key.
func NewTrackNumber(now time.Time) (string, error) {
	suffix := make([]byte, trackSuffixLen)
	base := big.NewInt(int64(len(trackAlphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, base)
		if err != nil {
			return "", fmt.Errorf("track number: %w", err)
		}
		suffix[i] = trackAlphabet[n.Int64()]
	}
	return fmt.Sprintf("SRV-%s-%s", now.Format("060102"), suffix), nil
}

// NewPublicToken returns an unguessable token for a public view link.
func NewPublicToken() string {
	return strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
}

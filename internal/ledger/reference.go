package ledger

import (
	"encoding/hex"
	"strings"

	"github.com/gofrs/uuid/v5"
)

// Suffixes distinguishing the two legs of a transfer. Both legs share the
// reference stem, so each leg's reference stays globally unique while the
// pair remains linkable.
const (
	transferDebitSuffix  = "-D"
	transferCreditSuffix = "-C"
)

// ReferenceGenerator issues externally displayable transaction references.
// References are derived from random UUIDs, so generation needs no
// coordination between concurrent operations and collisions are negligible
// at expected volumes. The store's unique index is the final backstop.
type ReferenceGenerator struct{}

// NewReference returns a reference for a single-account transaction.
func (ReferenceGenerator) NewReference() (string, error) {
	return newReference("TXN-")
}

// NewTransferReference returns the shared stem for a transfer's two legs.
func (ReferenceGenerator) NewTransferReference() (string, error) {
	return newReference("TRF-")
}

func newReference(prefix string) (string, error) {
	u, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	return prefix + strings.ToUpper(hex.EncodeToString(u.Bytes())), nil
}

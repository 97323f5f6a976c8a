package migrate

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrChecksumMismatch marks an already-applied migration whose SQL no
// longer matches the checksum recorded in the ledger.
var ErrChecksumMismatch = errors.New("migration checksum mismatch")

func checksumMismatch(m Migration, stored string) error {
	return fmt.Errorf("%w: %s (ledger=%s current=%s)",
		ErrChecksumMismatch, m.ID(), stored, m.Checksum())
}

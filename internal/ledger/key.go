package ledger

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/xelth-com/receivinggo/internal/models"
)

// InvalidLineIndex is returned by ParseLineIndex for values that are not whole numbers.
// No real row carries it, so keys built from it never match.
const InvalidLineIndex = -1

// Key identifies one ledger row
type Key struct {
	PONumber      string
	SIDocNumber   string
	LineItemIndex int
}

// NewKey canonicalizes the parts of a key
func NewKey(po, siDoc string, lineItemIndex int) Key {
	return Key{
		PONumber:      strings.TrimSpace(po),
		SIDocNumber:   strings.TrimSpace(siDoc),
		LineItemIndex: lineItemIndex,
	}
}

// KeyOf returns the canonical key of a record
func KeyOf(r models.LineItemRecord) Key {
	return NewKey(r.PONumber, r.SIDocNumber, r.LineItemIndex)
}

// String renders the key as po|siDoc|index
func (k Key) String() string {
	return fmt.Sprintf("%s|%s|%d", k.PONumber, k.SIDocNumber, k.LineItemIndex)
}

// ParseLineIndex coerces a stored index ("3", " 3 ", "3.0") to an int
func ParseLineIndex(raw string) int {
	s := strings.TrimSpace(raw)
	if s == "" {
		return InvalidLineIndex
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return InvalidLineIndex
	}
	return int(f)
}

// SamePO compares PO numbers the way the ledger does (trimmed, exact)
func SamePO(a, b string) bool {
	return strings.TrimSpace(a) == strings.TrimSpace(b)
}

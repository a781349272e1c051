package song

import (
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Collator compares display strings using Spanish collation rules. A
// Collator is not safe for concurrent use; create one per sort.
type Collator struct {
	c *collate.Collator
}

// NewCollator returns a Spanish collator.
func NewCollator() *Collator {
	return &Collator{c: collate.New(language.Spanish)}
}

// Compare returns -1, 0 or 1.
func (c *Collator) Compare(a, b string) int {
	return c.c.CompareString(a, b)
}

package cache

// Tier identifies one of the two storage layers of a Manager.
type Tier string

const (
	TierFast    Tier = "fast"
	TierDurable Tier = "durable"
)

// Observer receives cache events. Implementations must be safe for
// concurrent use and must not block.
type Observer interface {
	// Hit is called when Get is served by the given tier.
	Hit(tier Tier)

	// Miss is called when Get finds no live entry in any tier.
	Miss()

	// Expired is called when a stale entry is found and purged on access.
	Expired(tier Tier)

	// DurableError is called when a durable-tier operation fails.
	DurableError(op string)

	// Preloaded is called when a background preload finishes; err is nil on success.
	Preloaded(err error)

	// Swept is called after every cleanup pass with the number of removed entries.
	Swept(removed int)
}

type nopObserver struct{}

func (nopObserver) Hit(Tier)            {}
func (nopObserver) Miss()               {}
func (nopObserver) Expired(Tier)        {}
func (nopObserver) DurableError(string) {}
func (nopObserver) Preloaded(error)     {}
func (nopObserver) Swept(int)           {}

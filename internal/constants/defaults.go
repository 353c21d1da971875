package constants

import "time"

// DefaultPreviewCount is the number of fire times printed by `repeatq next`.
const DefaultPreviewCount = 5

// MaxPreviewCount caps --count of `repeatq next`.
const MaxPreviewCount = 1000

// DefaultCommandTimeout bounds a single CLI command against Redis.
const DefaultCommandTimeout = 30 * time.Second

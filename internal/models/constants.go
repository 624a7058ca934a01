package models

// Remote API paths.
const (
	LoginPath    = "/auth/login"
	RegisterPath = "/auth/register"
	BookingsPath = "/holidaze/bookings"
	VenuesPath   = "/holidaze/venues"
	ProfilesPath = "/holidaze/profiles"

	// APIKeyHeader carries the application key on every request.
	APIKeyHeader = "X-Noroff-API-Key"
	// IdempotencyHeader carries the booking review token.
	IdempotencyHeader = "Idempotency-Key"
)

// Venue list sort options as offered by the listing UI.
const (
	SortNewest    = "newest"
	SortNameAsc   = "name-asc"
	SortNameDesc  = "name-desc"
	SortPriceAsc  = "price-asc"
	SortPriceDesc = "price-desc"
	SortStarsAsc  = "stars-asc"
	SortStarsDesc = "stars-desc"
)

const (
	SessionStoreSQLite   = "sqlite"
	SessionStoreRedis    = "redis"
	SessionStoreMemory   = "memory"
	SessionStoreFailover = "failover"

	// SessionKey is the storage key of the persisted auth session.
	SessionKey = "auth"
)

const (
	// DefaultPage and DefaultPageLimit are the venue listing defaults.
	DefaultPage      = 1
	DefaultPageLimit = 40

	DefaultAPITimeoutSeconds = 10

	// EmailDomain is the only accepted account email suffix.
	EmailDomain = "@stud.noroff.no"

	// DefaultAvatarURL is sent when registration has no avatar.
	DefaultAvatarURL = "https://upload.wikimedia.org/wikipedia/commons/4/4a/Manila_dwarf_coconut_palm.jpg"
	DefaultAvatarAlt = "default profile picture"

	// ManagerDashboardPathFormat is the venue-manager dashboard link for a user name.
	ManagerDashboardPathFormat = "/profile/%s/venue-manager"

	// WorkerQueueSize размер очереди воркера событий
	WorkerQueueSize = 1000

	// DateLayout is the calendar day format used in exports and JSON day lists.
	DateLayout = "2006-01-02"
)

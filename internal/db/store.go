package db

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"aqve/internal/entities"
)

const (
	DefaultCurrency  = "GEL"
	DefaultPageLimit = 20
	otpTTL           = 10 * time.Minute
	resetTTL         = time.Hour
)

// Store is the in-memory database behind the development backend. All
// methods are safe for concurrent use; failures are *errors.APIError values
// ready to be written to the client.
type Store struct {
	mu  sync.RWMutex
	now func() time.Time

	users  map[string]*UserRecord
	emails map[string]string

	lots  map[string]entities.ParkingLot
	order []string
	slots map[string][]entities.ParkingSlot

	bookings      map[string]entities.Booking
	methods       map[string][]entities.PaymentMethod
	wallets       map[string]*wallet
	transactions  map[string][]entities.Transaction
	vehicles      map[string][]entities.Vehicle
	favorites     map[string][]entities.FavoriteLocation
	notifications map[string][]entities.Notification
	prefs         map[string]entities.NotificationPreferences
	otps          map[string]otpRecord
	resets        map[string]resetRecord

	entropy *ulid.MonotonicEntropy
}

func NewStore() *Store {
	return &Store{
		now:           time.Now,
		users:         map[string]*UserRecord{},
		emails:        map[string]string{},
		lots:          map[string]entities.ParkingLot{},
		slots:         map[string][]entities.ParkingSlot{},
		bookings:      map[string]entities.Booking{},
		methods:       map[string][]entities.PaymentMethod{},
		wallets:       map[string]*wallet{},
		transactions:  map[string][]entities.Transaction{},
		vehicles:      map[string][]entities.Vehicle{},
		favorites:     map[string][]entities.FavoriteLocation{},
		notifications: map[string][]entities.Notification{},
		prefs:         map[string]entities.NotificationPreferences{},
		otps:          map[string]otpRecord{},
		resets:        map[string]resetRecord{},
		entropy:       ulid.Monotonic(rand.Reader, 0),
	}
}

// SetClock replaces the time source. Used by tests.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

// newID must be called with s.mu held.
func (s *Store) newID() string {
	return ulid.MustNew(ulid.Timestamp(s.now()), s.entropy).String()
}

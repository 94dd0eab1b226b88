package domain

const (
	RoleUser   = "user"
	RoleHelper = "helper"
	RoleNGO    = "ngo"
	RoleAdmin  = "admin"
)

// Place types a Location can be tagged with.
const (
	PlaceHome     = "home"
	PlaceWork     = "work"
	PlaceHospital = "hospital"
	PlacePublic   = "public"
	PlaceOther    = "other"
	PlaceUnknown  = "unknown"
	PlaceCurrent  = "current"
)

var PlaceTypes = []string{PlaceHome, PlaceWork, PlaceHospital, PlacePublic, PlaceOther, PlaceUnknown, PlaceCurrent}

const (
	ProviderGPS     = "gps"
	ProviderNetwork = "network"
	ProviderManual  = "manual"
	ProviderWiFi    = "wifi"
	ProviderUnknown = "unknown"
)

var Providers = []string{ProviderGPS, ProviderNetwork, ProviderManual, ProviderWiFi, ProviderUnknown}

const (
	SourceApp        = "app"
	SourceSOS        = "sos"
	SourceBackground = "background"
	SourceManual     = "manual"
)

var Sources = []string{SourceApp, SourceSOS, SourceBackground, SourceManual}

// Notification channels. Delivery is handled outside this service; rows
// stay PENDING until an external dispatcher updates them.
const (
	ChannelPush  = "push"
	ChannelSMS   = "sms"
	ChannelEmail = "email"
)

const (
	ChannelStatusPending   = "pending"
	ChannelStatusSent      = "sent"
	ChannelStatusDelivered = "delivered"
	ChannelStatusFailed    = "failed"
)

const (
	NotificationSOSAlert      = "SOS_ALERT"
	NotificationSOSDispatched = "SOS_DISPATCHED"
)

const (
	PriorityNormal = "normal"
	PriorityHigh   = "high"
)

// Location defaults.
const (
	DefaultStaleMinutes       = 5
	DefaultNearbyRadiusMeters = 5000.0
	MaxNearbyRadiusMeters     = 100000.0
	MaxAccuracyMeters         = 10000.0
)

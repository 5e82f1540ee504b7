/*
Package errs provides custom error types and application-level error code constants.

These error codes identify specific business or system errors both internally
within the server and in communication with clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request header Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body JSON format is incorrect (e.g., syntax error).
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates that the request body contained extra content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1005
)

// 2xxx: Room and Purchase Business Logic Errors
const (
	// ErrRoomNotFound indicates that the requested room id does not exist on the grid.
	ErrRoomNotFound = 2101

	// ErrRoomAlreadyOwned indicates that the room has already been purchased by another user.
	ErrRoomAlreadyOwned = 2102

	// ErrInsufficientCoupons indicates that the buyer's coupon balance is below the room price.
	ErrInsufficientCoupons = 2103
)

// 3xxx: User and Identity Errors
const (
	// ErrUserNotFound indicates that the referenced user id is unknown to the user store.
	ErrUserNotFound = 3001

	// ErrNicknameTooShort indicates that the trimmed nickname is shorter than the required minimum.
	ErrNicknameTooShort = 3002

	// ErrInvalidCouponAmount indicates that a coupon grant amount was zero or negative.
	ErrInvalidCouponAmount = 3003
)

// 4xxx: Payment Widget Errors
const (
	// ErrPaymentRejected indicates that the external payment provider declined the confirmation.
	ErrPaymentRejected = 4001

	// ErrPaymentUnreachable indicates that the external payment provider could not be contacted.
	ErrPaymentUnreachable = 4002

	// ErrInvalidPaymentAmount indicates that the confirmation request carried a non-numeric or non-positive amount.
	ErrInvalidPaymentAmount = 4003
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000

	// ErrStorageFailed indicates that reading or writing a persisted resource failed.
	ErrStorageFailed = 5001
)

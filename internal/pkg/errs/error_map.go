/*
Package errs provides custom error types and application-level error code constants.

This file defines the map from error codes to the CustomError struct, used to
standardize HTTP responses and internal error handling.
*/
package errs

import "net/http"

// errorMap stores the detailed CustomError struct corresponding to every application
// error code. The key is the error code (int), and the value contains the user
// message and HTTP status code.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:        {Code: ErrInvalidParams, Message: "Invalid request parameters.", Status: http.StatusBadRequest},
	ErrUnsupportedMediaType: {Code: ErrUnsupportedMediaType, Message: "Unsupported request format.", Status: http.StatusUnsupportedMediaType},
	ErrInvalidJSONFormat:    {Code: ErrInvalidJSONFormat, Message: "Unsupported request format.", Status: http.StatusBadRequest},
	ErrExtraContentInBody:   {Code: ErrExtraContentInBody, Message: "Request contains unexpected data.", Status: http.StatusBadRequest},
	ErrRateLimitExceeded:    {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	// 2xxx: Room and Purchase Business Logic Errors
	ErrRoomNotFound:        {Code: ErrRoomNotFound, Message: "Room not found.", Status: http.StatusNotFound},
	ErrRoomAlreadyOwned:    {Code: ErrRoomAlreadyOwned, Message: "This room has already been purchased.", Status: http.StatusConflict},
	ErrInsufficientCoupons: {Code: ErrInsufficientCoupons, Message: "Not enough coupons to purchase this room.", Status: http.StatusConflict},

	// 3xxx: User and Identity Errors
	ErrUserNotFound:        {Code: ErrUserNotFound, Message: "User not found.", Status: http.StatusNotFound},
	ErrNicknameTooShort:    {Code: ErrNicknameTooShort, Message: "Nickname must be at least %d characters long.", Status: http.StatusBadRequest},
	ErrInvalidCouponAmount: {Code: ErrInvalidCouponAmount, Message: "Coupon amount must be positive.", Status: http.StatusBadRequest},

	// 4xxx: Payment Widget Errors
	ErrPaymentRejected:      {Code: ErrPaymentRejected, Message: "The payment was declined by the provider.", Status: http.StatusBadGateway},
	ErrPaymentUnreachable:   {Code: ErrPaymentUnreachable, Message: "Payment service is temporarily unavailable. Please try again later.", Status: http.StatusBadGateway},
	ErrInvalidPaymentAmount: {Code: ErrInvalidPaymentAmount, Message: "Invalid payment amount.", Status: http.StatusBadRequest},

	// 5xxx: Internal System Errors
	ErrUnknown:       {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
	ErrStorageFailed: {Code: ErrStorageFailed, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
}

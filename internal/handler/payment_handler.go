/*
Package handler provides the HTTP handler for the payment-widget checkout flow.

The confirmation endpoint forwards the widget's paymentKey/orderId/amount
triple to the external provider and relays the provider's status code and
body back to the browser. On approval the paid amount is converted to coupons
and credited to the visiting user.
*/
package handler

import (
	"encoding/json"
	"net/http"

	"marsgrid/internal/app/payment"
	"marsgrid/internal/pkg/errs"
	"marsgrid/internal/pkg/logx"
	"marsgrid/internal/pkg/req"
	"marsgrid/internal/pkg/resp"
)

// confirmResponse relays the provider verdict together with the coupon
// conversion of the paid amount. ProviderResponse is the provider's body,
// untouched.
type confirmResponse struct {
	Approved         bool            `json:"approved"`
	CouponValue      int             `json:"couponValue"`
	Coupons          int             `json:"coupons"`
	ProviderStatus   int             `json:"providerStatus"`
	ProviderResponse json.RawMessage `json:"providerResponse"`
}

// HandleConfirmPayment processes the checkout confirmation callback.
func HandleConfirmPayment(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r)
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		var input payment.ConfirmRequest
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if input.PaymentKey == "" || input.OrderID == "" || input.Amount == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		couponValue, err := payment.CouponValue(input.Amount)
		if err != nil {
			logx.Warn("Rejected payment confirmation with bad amount.", "amount", input.Amount)
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidPaymentAmount))
			return
		}

		result, err := deps.Payment.Confirm(r.Context(), input)
		if err != nil {
			logx.Error(err, "Payment confirmation failed.", "order_id", input.OrderID)
			resp.RespondError(w, r, errs.NewError(errs.ErrPaymentUnreachable))
			return
		}

		balance := user.Coupons
		if result.Approved && couponValue > 0 {
			credited, grantErr := deps.Users.AddCoupons(user.ID, couponValue)
			if grantErr != nil {
				// The provider already took the money; surface the failure
				// loudly instead of quietly swallowing the grant.
				logx.Error(grantErr, "Approved payment but coupon grant failed.", "user_id", user.ID, "order_id", input.OrderID)
				resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
				return
			}
			balance = credited.Coupons
			deps.Metrics.CouponsGranted.Add(float64(couponValue))
		}

		// The provider's status code is passed through so the widget's
		// success/fail pages behave exactly as against the provider itself.
		resp.RespondJSON(w, r, result.StatusCode, confirmResponse{
			Approved:         result.Approved,
			CouponValue:      couponValue,
			Coupons:          balance,
			ProviderStatus:   result.StatusCode,
			ProviderResponse: result.Body,
		})
	}
}

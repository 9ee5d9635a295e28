package usecase

// Problem user-facing reason a step was not accepted. The conversation stays
// in its stage unless the flow says otherwise.
type Problem int

const (
	ProblemNone Problem = iota
	ProblemUnexpected
	ProblemEmptyText
	ProblemInvalidPrice
	ProblemInvalidLink
	ProblemUnknownCategory
	ProblemUnknownDelivery
	ProblemExpectedPhoto
	ProblemRateMissing
	ProblemFeeMissing
	ProblemQuoteChanged
	ProblemEmptyCart
	ProblemNoActiveOrder
	ProblemInvalidName
	ProblemInvalidPhone
	ProblemPhoneTaken
	ProblemInvalidAddress
	ProblemOrderNotFound
	ProblemUserNotFound
	ProblemUnknownStatus
	ProblemIllegalTransition
	ProblemStatusConflict
	ProblemInvalidTelegramID
	ProblemInvalidTracking
)

func (p Problem) String() string {
	switch p {
	case ProblemNone:
		return "none"
	case ProblemUnexpected:
		return "unexpected"
	case ProblemEmptyText:
		return "empty_text"
	case ProblemInvalidPrice:
		return "invalid_price"
	case ProblemInvalidLink:
		return "invalid_link"
	case ProblemUnknownCategory:
		return "unknown_category"
	case ProblemUnknownDelivery:
		return "unknown_delivery"
	case ProblemExpectedPhoto:
		return "expected_photo"
	case ProblemRateMissing:
		return "rate_missing"
	case ProblemFeeMissing:
		return "fee_missing"
	case ProblemQuoteChanged:
		return "quote_changed"
	case ProblemEmptyCart:
		return "empty_cart"
	case ProblemNoActiveOrder:
		return "no_active_order"
	case ProblemInvalidName:
		return "invalid_name"
	case ProblemInvalidPhone:
		return "invalid_phone"
	case ProblemPhoneTaken:
		return "phone_taken"
	case ProblemInvalidAddress:
		return "invalid_address"
	case ProblemOrderNotFound:
		return "order_not_found"
	case ProblemUserNotFound:
		return "user_not_found"
	case ProblemUnknownStatus:
		return "unknown_status"
	case ProblemIllegalTransition:
		return "illegal_transition"
	case ProblemStatusConflict:
		return "status_conflict"
	case ProblemInvalidTelegramID:
		return "invalid_telegram_id"
	case ProblemInvalidTracking:
		return "invalid_tracking"
	}
	return "unknown"
}

package domain

// Status values cover both order variants. A shop order only ever holds a
// shop status and a kiosk order a kiosk status; the transition tables below
// are the single authority on which changes are legal.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
	StatusRefunded   Status = "refunded"

	StatusApproved  Status = "approved"
	StatusCompleted Status = "completed"
	StatusRejected  Status = "rejected"
)

type Variant string

const (
	VariantShop  Variant = "shop"
	VariantKiosk Variant = "kiosk"
)

var shopNext = map[Status]map[Status]bool{
	StatusPending:    {StatusConfirmed: true, StatusCancelled: true, StatusRefunded: true},
	StatusConfirmed:  {StatusProcessing: true, StatusCancelled: true, StatusRefunded: true},
	StatusProcessing: {StatusShipped: true, StatusRefunded: true},
	StatusShipped:    {StatusDelivered: true, StatusRefunded: true},
	StatusDelivered:  {},
	StatusCancelled:  {},
	StatusRefunded:   {},
}

var kioskNext = map[Status]map[Status]bool{
	StatusPending:   {StatusApproved: true, StatusRejected: true},
	StatusApproved:  {StatusCompleted: true},
	StatusCompleted: {},
	StatusRejected:  {},
}

func transitions(v Variant) map[Status]map[Status]bool {
	if v == VariantKiosk {
		return kioskNext
	}
	return shopNext
}

func CanTransition(v Variant, from, to Status) bool {
	return transitions(v)[from][to]
}

// IsValidStatus reports whether s belongs to the variant's status set.
func IsValidStatus(v Variant, s Status) bool {
	_, ok := transitions(v)[s]
	return ok
}

// IsTerminal reports whether no transition leads out of s.
func IsTerminal(v Variant, s Status) bool {
	next, ok := transitions(v)[s]
	return ok && len(next) == 0
}

package models

import "fmt"

type RFQStatus string

const (
	RFQPending  RFQStatus = "pending"
	RFQQuoted   RFQStatus = "quoted"
	RFQAccepted RFQStatus = "accepted"
	RFQRejected RFQStatus = "rejected"
)

type OrderStatus string

const (
	OrderPendingPayment OrderStatus = "pending_payment"
	OrderProcessing     OrderStatus = "processing"
	OrderShipped        OrderStatus = "shipped"
	OrderDelivered      OrderStatus = "delivered"
	OrderCancelled      OrderStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// TransitionError reports a status change outside the allowed set.
type TransitionError struct {
	Kind     string
	From, To string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s status cannot change from %q to %q", e.Kind, e.From, e.To)
}

var rfqTransitions = map[RFQStatus][]RFQStatus{
	RFQPending: {RFQQuoted, RFQRejected},
	// quoted -> quoted is a re-quote
	RFQQuoted:   {RFQQuoted, RFQAccepted, RFQRejected},
	RFQAccepted: nil,
	RFQRejected: nil,
}

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPendingPayment: {OrderProcessing, OrderCancelled},
	OrderProcessing:     {OrderShipped, OrderCancelled},
	OrderShipped:        {OrderDelivered},
	OrderDelivered:      nil,
	OrderCancelled:      nil,
}

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending:  {PaymentPaid, PaymentFailed},
	PaymentFailed:   {PaymentPending},
	PaymentPaid:     {PaymentRefunded},
	PaymentRefunded: nil,
}

func (s RFQStatus) Valid() bool {
	_, ok := rfqTransitions[s]
	return ok
}

func (s RFQStatus) CanTransitionTo(next RFQStatus) error {
	return checkTransition("rfq", rfqTransitions, s, next)
}

func (s OrderStatus) Valid() bool {
	_, ok := orderTransitions[s]
	return ok
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) error {
	return checkTransition("order", orderTransitions, s, next)
}

func (s PaymentStatus) Valid() bool {
	_, ok := paymentTransitions[s]
	return ok
}

func (s PaymentStatus) CanTransitionTo(next PaymentStatus) error {
	return checkTransition("payment", paymentTransitions, s, next)
}

func checkTransition[S ~string](kind string, table map[S][]S, from, to S) error {
	allowed, known := table[from]
	if _, ok := table[to]; !known || !ok {
		return &TransitionError{Kind: kind, From: string(from), To: string(to)}
	}
	for _, s := range allowed {
		if s == to {
			return nil
		}
	}
	return &TransitionError{Kind: kind, From: string(from), To: string(to)}
}

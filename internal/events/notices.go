package events

import (
	"fmt"

	"github.com/google/uuid"
)

type notice struct {
	customerID uuid.UUID
	subject    string
	body       string
}

const dateLayout = "Mon, 02 Jan 2006 15:04"

func bookingNotice(eventType string, evt BookingEvent) *notice {
	car := evt.CarName
	if car == "" {
		car = "your car"
	}
	dates := fmt.Sprintf("%s to %s", evt.PickupDate.Format(dateLayout), evt.ReturnDate.Format(dateLayout))

	n := &notice{customerID: evt.CustomerID}
	switch eventType {
	case BookingCreated:
		n.subject = fmt.Sprintf("Booking %s received", evt.BookingNumber)
		n.body = fmt.Sprintf("We have reserved %s for %s. The total is %s. Please complete payment to confirm the booking.",
			car, dates, FormatMoney(evt.TotalCostCents, evt.Currency))
	case BookingPaid:
		n.subject = fmt.Sprintf("Booking %s confirmed", evt.BookingNumber)
		n.body = fmt.Sprintf("Your payment was received and booking %s for %s is confirmed.", evt.BookingNumber, dates)
	case BookingPayAtDeskChosen:
		n.subject = fmt.Sprintf("Booking %s: pay at the desk", evt.BookingNumber)
		n.body = fmt.Sprintf("Please pay %s at the rental desk before pickup on %s.",
			FormatMoney(evt.TotalCostCents, evt.Currency), evt.PickupDate.Format(dateLayout))
	case BookingCancellationRequested:
		n.subject = fmt.Sprintf("Cancellation request for %s", evt.BookingNumber)
		n.body = fmt.Sprintf("We received your request to cancel booking %s. An administrator will review it and process any refund.", evt.BookingNumber)
	case BookingCancelled:
		n.subject = fmt.Sprintf("Booking %s cancelled", evt.BookingNumber)
		n.body = fmt.Sprintf("Booking %s for %s has been cancelled.", evt.BookingNumber, dates)
	}
	return n
}

func paymentNotice(eventType string, evt PaymentEvent) *notice {
	n := &notice{customerID: evt.CustomerID}
	switch eventType {
	case PaymentRecorded:
		n.subject = fmt.Sprintf("Payment receipt for %s", evt.BookingNumber)
		n.body = fmt.Sprintf("We received %s for booking %s. Transaction ID: %s.",
			FormatMoney(evt.AmountCents, evt.Currency), evt.BookingNumber, evt.TransactionID)
	case PaymentRefunded:
		n.subject = fmt.Sprintf("Refund for %s", evt.BookingNumber)
		n.body = fmt.Sprintf("A refund of %s for booking %s has been issued. Transaction ID: %s.",
			FormatMoney(-evt.AmountCents, evt.Currency), evt.BookingNumber, evt.TransactionID)
	}
	return n
}

// FormatMoney renders cents as "LKR 1,234.50".
func FormatMoney(cents int64, currency string) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	whole := fmt.Sprintf("%d", cents/100)
	for i := len(whole) - 3; i > 0; i -= 3 {
		whole = whole[:i] + "," + whole[i:]
	}
	return fmt.Sprintf("%s %s%s.%02d", currency, sign, whole, cents%100)
}

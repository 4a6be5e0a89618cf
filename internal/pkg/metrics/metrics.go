// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "village_sabha"

// Metrics groups the business counters
type Metrics struct {
	PaymentsRecorded     *prometheus.CounterVec
	PaymentAmount        *prometheus.CounterVec
	PaymentVerifyFailed  *prometheus.CounterVec
	OTPIssued            *prometheus.CounterVec
	OTPVerified          *prometheus.CounterVec
	MembershipTransition *prometheus.CounterVec
	SabhasadRetries      prometheus.Counter
}

// New creates the collectors and registers them with reg.
// A nil reg leaves them unregistered, which tests rely on.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		PaymentsRecorded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_recorded_total",
			Help:      "Total number of verified payments recorded, by purpose",
		}, []string{"purpose"}),

		PaymentAmount: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_amount_total",
			Help:      "Sum of recorded payment amounts in major units, by purpose",
		}, []string{"purpose"}),

		PaymentVerifyFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_verification_failures_total",
			Help:      "Total number of rejected payment verifications, by reason",
		}, []string{"reason"}),

		OTPIssued: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "otp_issued_total",
			Help:      "Total number of OTPs issued, by delivery result",
		}, []string{"delivery"}),

		OTPVerified: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "otp_verifications_total",
			Help:      "Total number of OTP verifications, by outcome",
		}, []string{"outcome"}),

		MembershipTransition: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "membership_transitions_total",
			Help:      "Total number of membership status changes, by target status",
		}, []string{"to"}),

		SabhasadRetries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sabhasad_allocation_retries_total",
			Help:      "Total number of sabhasad ID allocations retried after a collision",
		}),
	}
}

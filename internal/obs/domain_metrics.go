package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// CartMutationTotal counts cart mutation attempts by operation and outcome.
	CartMutationTotal *prometheus.CounterVec
	// PromotionAppliedTotal counts promotions selected during pricing by type.
	PromotionAppliedTotal *prometheus.CounterVec
	// PromoCodeActivationTotal counts promo code activation attempts by outcome.
	PromoCodeActivationTotal *prometheus.CounterVec
	// PricingComputeDuration records pricing computation latency in milliseconds.
	PricingComputeDuration prometheus.Histogram
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		CartMutationTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_mutation_total",
			Help:      "Count of cart mutation outcomes by operation.",
		}, []string{"op", "result"})
		PromotionAppliedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "promotion_applied_total",
			Help:      "Count of promotions selected for cart lines by promotion type.",
		}, []string{"type"})
		PromoCodeActivationTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "promo_code_activation_total",
			Help:      "Count of promo code activation attempts by outcome.",
		}, []string{"result"})
		PricingComputeDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pricing_compute_duration_ms",
			Help:      "Latency of cart pricing computation in milliseconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50},
		})
		reg.MustRegister(CartMutationTotal, PromotionAppliedTotal, PromoCodeActivationTotal, PricingComputeDuration)
	})
}

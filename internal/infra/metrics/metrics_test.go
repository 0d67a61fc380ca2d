//go:build !integration

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	t.Run("should normalize label values", func(t *testing.T) {
		before := testutil.ToFloat64(adminCommandTotal.WithLabelValues("/users", "authorized"))
		IncAdminCommand(" /USERS ", "Authorized")
		after := testutil.ToFloat64(adminCommandTotal.WithLabelValues("/users", "authorized"))
		if after-before != 1 {
			t.Errorf("expected one increment, got %v", after-before)
		}
	})

	t.Run("should split broadcast outcomes", func(t *testing.T) {
		sent := testutil.ToFloat64(broadcastDeliveriesTotal.WithLabelValues("photo", "sent"))
		failed := testutil.ToFloat64(broadcastDeliveriesTotal.WithLabelValues("photo", "failed"))
		IncBroadcastDelivery("photo", true)
		IncBroadcastDelivery("photo", false)
		IncBroadcastDelivery("photo", false)
		if got := testutil.ToFloat64(broadcastDeliveriesTotal.WithLabelValues("photo", "sent")) - sent; got != 1 {
			t.Errorf("expected 1 sent, got %v", got)
		}
		if got := testutil.ToFloat64(broadcastDeliveriesTotal.WithLabelValues("photo", "failed")) - failed; got != 2 {
			t.Errorf("expected 2 failed, got %v", got)
		}
	})

	t.Run("should register every collector once", func(t *testing.T) {
		MustRegister()
		MustRegister()
	})
}

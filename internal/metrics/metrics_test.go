// Rolekeeper - Reaction Roles and Persisted Roles for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rolekeeper

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordStoreWrite(t *testing.T) {
	beforeWritten := testutil.ToFloat64(StoreWrites.WithLabelValues("metrics-test"))
	beforeSuppressed := testutil.ToFloat64(StoreWritesSuppressed.WithLabelValues("metrics-test"))

	RecordStoreWrite("metrics-test", true)
	RecordStoreWrite("metrics-test", false)
	RecordStoreWrite("metrics-test", false)

	if got := testutil.ToFloat64(StoreWrites.WithLabelValues("metrics-test")) - beforeWritten; got != 1 {
		t.Errorf("expected 1 write, got %v", got)
	}
	if got := testutil.ToFloat64(StoreWritesSuppressed.WithLabelValues("metrics-test")) - beforeSuppressed; got != 2 {
		t.Errorf("expected 2 suppressed writes, got %v", got)
	}
}

func TestRecordRoleMutation(t *testing.T) {
	ok := RoleMutations.WithLabelValues("grant", "selector", "ok")
	failed := RoleMutations.WithLabelValues("grant", "selector", "error")
	beforeOK := testutil.ToFloat64(ok)
	beforeFailed := testutil.ToFloat64(failed)

	RecordRoleMutation("grant", "selector", nil)
	RecordRoleMutation("grant", "selector", errors.New("missing access"))

	if got := testutil.ToFloat64(ok) - beforeOK; got != 1 {
		t.Errorf("expected 1 ok grant, got %v", got)
	}
	if got := testutil.ToFloat64(failed) - beforeFailed; got != 1 {
		t.Errorf("expected 1 failed grant, got %v", got)
	}
}

func TestRecordRestoreAttempt(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		willRetry bool
		label     string
	}{
		{"success", nil, false, "ok"},
		{"retryable failure", errors.New("unknown member"), true, "retry"},
		{"final failure", errors.New("forbidden"), false, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counter := RestoreAttempts.WithLabelValues(tt.label)
			before := testutil.ToFloat64(counter)
			RecordRestoreAttempt(tt.err, tt.willRetry)
			if got := testutil.ToFloat64(counter) - before; got != 1 {
				t.Errorf("expected %s counter to increase by 1, got %v", tt.label, got)
			}
		})
	}
}

func TestGauges(t *testing.T) {
	SetGatewayConnected(true)
	if got := testutil.ToFloat64(GatewayConnected); got != 1 {
		t.Errorf("expected gateway gauge 1, got %v", got)
	}
	SetGatewayConnected(false)
	if got := testutil.ToFloat64(GatewayConnected); got != 0 {
		t.Errorf("expected gateway gauge 0, got %v", got)
	}

	SetBreakerState("discord", 2)
	if got := testutil.ToFloat64(PlatformBreakerState.WithLabelValues("discord")); got != 2 {
		t.Errorf("expected breaker gauge 2, got %v", got)
	}
}

func TestRecordMemberScan(t *testing.T) {
	RecordMemberScan(250 * time.Millisecond)
	if count := testutil.CollectAndCount(MemberScanDuration); count != 1 {
		t.Errorf("expected histogram to be collected once, got %d", count)
	}
}

func TestRecordCommandAndHTTP(t *testing.T) {
	failed := Commands.WithLabelValues("metrics_test", "error")
	before := testutil.ToFloat64(failed)
	RecordCommand("metrics_test", errors.New("not allowed"))
	if got := testutil.ToFloat64(failed) - before; got != 1 {
		t.Errorf("expected 1 failed command, got %v", got)
	}

	served := HTTPRequests.WithLabelValues("/metrics-test", "503")
	before = testutil.ToFloat64(served)
	RecordHTTPRequest("/metrics-test", 503, 10*time.Millisecond)
	if got := testutil.ToFloat64(served) - before; got != 1 {
		t.Errorf("expected 1 request, got %v", got)
	}
}

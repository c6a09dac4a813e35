package jquants

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/takumi-oka/market-log/internal/contracts"
	"github.com/takumi-oka/market-log/pkg/config"
	"github.com/takumi-oka/market-log/pkg/logger"
)

func newTestClient(serverURL string) *Client {
	cfg := &config.Config{
		JQuants: config.JQuantsConfig{
			APIKey:  "test-key",
			BaseURL: serverURL,
			Timeout: 5 * time.Second,
		},
	}
	return NewClient(cfg, logger.NewNop())
}

func TestFetchStatusTaxonomy(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind contracts.ErrorKind // "" means success
		wantLen  int
	}{
		{
			name:    "200 with records",
			status:  http.StatusOK,
			body:    `{"daily_quotes":[{"Date":"2025-05-01","Close":105},{"Date":"2025-05-02","Close":106}]}`,
			wantLen: 2,
		},
		{
			name:     "200 with empty array is NoData",
			status:   http.StatusOK,
			body:     `{"daily_quotes":[]}`,
			wantKind: contracts.KindNoData,
		},
		{
			name:     "429 is RateLimited",
			status:   http.StatusTooManyRequests,
			body:     `{"message":"slow down"}`,
			wantKind: contracts.KindRateLimited,
		},
		{
			name:     "other non-200 is ApiError",
			status:   http.StatusForbidden,
			body:     `{"message":"bad key"}`,
			wantKind: contracts.KindAPIError,
		},
		{
			name:     "200 with unknown envelope is UnrecognizedSchema",
			status:   http.StatusOK,
			body:     `{"unexpected_key":[{"Date":"2025-05-01"}]}`,
			wantKind: contracts.KindUnrecognizedSchema,
		},
		{
			name:     "200 with broken JSON is TransportError",
			status:   http.StatusOK,
			body:     `{"daily_quotes":[`,
			wantKind: contracts.KindTransportError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := newTestClient(server.URL)
			from := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
			to := time.Date(2025, 5, 30, 0, 0, 0, 0, time.UTC)

			records, err := client.PriceBars(context.Background(), "80580", from, to)

			if tt.wantKind == "" {
				if err != nil {
					t.Fatalf("PriceBars() failed: %v", err)
				}
				if len(records) != tt.wantLen {
					t.Errorf("PriceBars() returned %d records, want %d", len(records), tt.wantLen)
				}
				return
			}

			if err == nil {
				t.Fatal("Expected error")
			}
			if got := contracts.KindOf(err); got != tt.wantKind {
				t.Errorf("KindOf(err) = %v, want %v", got, tt.wantKind)
			}
		})
	}
}

func TestFetchEnvelopeProbePriority(t *testing.T) {
	// Both candidate keys present: the first in priority order wins
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"Date":"x"}],"daily_quotes":[{"Date":"a"},{"Date":"b"}]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	records, err := client.DailySnapshot(context.Background(), time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("DailySnapshot() failed: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("Expected daily_quotes envelope (2 records), got %d", len(records))
	}
}

func TestFetchSendsCredentialAndParams(t *testing.T) {
	var gotPath, gotKey, gotCode, gotFrom string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-api-key")
		gotCode = r.URL.Query().Get("code")
		gotFrom = r.URL.Query().Get("from")
		w.Write([]byte(`{"statements":[{"DisclosedDate":"2025-05-09"}]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	from := time.Date(2021, 5, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	if _, err := client.Financials(context.Background(), "80580", from, to); err != nil {
		t.Fatalf("Financials() failed: %v", err)
	}

	if gotPath != "/fins/summary" {
		t.Errorf("path = %s, want /fins/summary", gotPath)
	}
	if gotKey != "test-key" {
		t.Errorf("x-api-key = %s, want test-key", gotKey)
	}
	if gotCode != "80580" {
		t.Errorf("code = %s, want 80580", gotCode)
	}
	if gotFrom != "20210501" {
		t.Errorf("from = %s, want 20210501", gotFrom)
	}
}

func TestMockSourceShape(t *testing.T) {
	src := NewMockSource()
	ctx := context.Background()

	master, err := src.Master(ctx)
	if err != nil {
		t.Fatalf("Master() failed: %v", err)
	}
	if len(master) <= 100 {
		t.Errorf("fixture master has %d records, need >100 for the trading-day filter", len(master))
	}

	// Weekday snapshot clears the threshold, weekend yields NoData
	monday := time.Date(2025, 5, 12, 0, 0, 0, 0, time.UTC)
	snapshot, err := src.DailySnapshot(ctx, monday)
	if err != nil {
		t.Fatalf("DailySnapshot(monday) failed: %v", err)
	}
	if len(snapshot) <= 100 {
		t.Errorf("weekday snapshot has %d records, want >100", len(snapshot))
	}

	saturday := time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)
	if _, err := src.DailySnapshot(ctx, saturday); !contracts.IsNoData(err) {
		t.Errorf("DailySnapshot(saturday) = %v, want NoData", err)
	}

	// Two calls for the same day agree
	again, _ := src.DailySnapshot(ctx, monday)
	if snapshot[0]["Close"] != again[0]["Close"] {
		t.Error("fixture snapshot is not deterministic")
	}
}

package freelancer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateProjectData(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		valid bool
	}{
		{"complete", `{"id": 1, "title": "T", "budget": {"minimum": 250}, "bid_stats": {"bid_count": 3}}`, true},
		{"missing id", `{"title": "T", "budget": {"minimum": 250}, "bid_stats": {}}`, false},
		{"missing title", `{"id": 1, "budget": {"minimum": 250}, "bid_stats": {}}`, false},
		{"missing budget", `{"id": 1, "title": "T", "bid_stats": {}}`, false},
		{"missing bid_stats", `{"id": 1, "title": "T", "budget": {}}`, false},
		{"null budget", `{"id": 1, "title": "T", "budget": null, "bid_stats": {}}`, false},
		{"wrong type", `{"id": "abc", "title": "T", "budget": {}, "bid_stats": {}}`, false},
		{"not an object", `[1, 2, 3]`, false},
		{"garbage", `{{{`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ValidateProjectData([]byte(tt.raw))
			if tt.valid {
				require.NotNil(t, p)
			} else {
				assert.Nil(t, p)
			}
		})
	}
}

func TestValidateProjectData_Defaults(t *testing.T) {
	p := ValidateProjectData([]byte(`{"id": 7, "title": "Hourly", "type": "hourly",
		"budget": {"minimum": "15.5", "maximum": 30}, "bid_stats": {"bid_count": 0}}`))
	require.NotNil(t, p)

	assert.Equal(t, "hourly", p.Budget.Type)
	assert.True(t, p.IsHourly())
	assert.Equal(t, "USD", p.CurrencyCode())
	assert.True(t, p.Budget.Minimum.Equal(decimal.NewFromFloat(15.5)))
}

func TestProject_IsElite(t *testing.T) {
	p := Project{}
	assert.False(t, p.IsElite())

	p.Upgrades.Urgent = true
	assert.False(t, p.IsElite())

	p.Upgrades.NDA = true
	assert.True(t, p.IsElite())
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL, "test-token", 42, 0)
	c.BatchDelay = 0
	return c
}

func TestClient_ErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{"unauthorized", 401, `{}`, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, ErrInvalidToken)
		}},
		{"rate limited", 429, `{}`, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, ErrRateLimited)
			assert.True(t, IsTransient(err))
		}},
		{"not found", 404, `{}`, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, ErrNotFound)
		}},
		{"server error", 500, `{"status": "error", "message": "boom", "error_code": "X"}`, func(t *testing.T, err error) {
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, 500, apiErr.StatusCode)
			assert.Equal(t, "boom", apiErr.Message)
			assert.True(t, IsTransient(err))
		}},
		{"error status in 200", 200, `{"status": "error", "message": "nope"}`, func(t *testing.T, err error) {
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, "nope", apiErr.Message)
			assert.False(t, IsTransient(err))
		}},
		{"bad json", 200, `not json`, func(t *testing.T, err error) {
			assert.Error(t, err)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			_, err := c.ActiveProjects(context.Background(), ActiveQuery{})
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestClient_ActiveProjects(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/projects/0.1/projects/active", r.URL.Path)
		assert.Equal(t, "test-token", r.Header.Get("Freelancer-OAuth-V1"))
		assert.Equal(t, "python", r.URL.Query().Get("query"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))

		w.Write([]byte(`{"status": "success", "result": {
			"projects": [
				{"id": 1, "owner_id": 9, "title": "Scraper", "budget": {"minimum": 300}, "bid_stats": {"bid_count": 4},
				 "currency": {"code": "USD"}, "jobs": [{"id": 13, "name": "Python"}]},
				{"id": 2, "title": "broken"}
			],
			"users": {"9": {"id": 9, "username": "client9",
				"reputation": {"entire_history": {"overall": 4.9, "reviews": 12}},
				"status": {"payment_verified": true}}}
		}}`))
	})

	projects, err := c.ActiveProjects(context.Background(), ActiveQuery{Query: "python", Limit: 10})
	require.NoError(t, err)
	require.Len(t, projects, 1)

	p := projects[0]
	assert.Equal(t, int64(1), p.ID)
	assert.Equal(t, []string{"Python"}, p.SkillNames())
	assert.Equal(t, "client9", p.Owner.Username)
	assert.True(t, p.Owner.Status.PaymentVerified)
	assert.Equal(t, 12, p.Owner.Reputation.EntireHistory.Reviews)
}

func TestClient_FetchBySkills(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		switch r.URL.Query().Get("query") {
		case "fail":
			w.WriteHeader(500)
			return
		case "go":
			w.Write([]byte(`{"status": "success", "result": {"projects": [
				{"id": 1, "title": "A", "budget": {"minimum": 300}, "bid_stats": {}},
				{"id": 2, "title": "B", "budget": {"minimum": 300}, "bid_stats": {}}]}}`))
		default:
			w.Write([]byte(`{"status": "success", "result": {"projects": [
				{"id": 2, "title": "B", "budget": {"minimum": 300}, "bid_stats": {}},
				{"id": 3, "title": "C", "budget": {"minimum": 300}, "bid_stats": {}}]}}`))
		}
	})
	c.BatchSize = 2

	projects, err := c.FetchBySkills(context.Background(), []string{"go", "fail", "rust"}, 20)
	require.NoError(t, err)
	assert.Len(t, projects, 3)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_FetchBySkills_InvalidTokenAborts(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(401)
	})

	_, err := c.FetchBySkills(context.Background(), []string{"go", "rust"}, 20)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestClient_PlaceBid(t *testing.T) {
	var got BidRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/projects/0.1/bids/", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"status": "success", "result": {"id": 555}}`))
	})

	resp, err := c.PlaceBid(context.Background(), BidRequest{
		ProjectID: 1, BidderID: 42, Amount: 250, Period: 7, MilestonePercentage: 100, Description: "hi",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(555), resp.ID)
	assert.NotEmpty(t, resp.Raw)
	assert.Equal(t, 250.0, got.Amount)
	assert.Equal(t, 100, got.MilestonePercentage)
}

func TestClient_PlaceBidFailureKeepsBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(400)
		w.Write([]byte(`{"status": "error", "message": "You have already bid", "error_code": "DUPLICATE"}`))
	})

	resp, err := c.PlaceBid(context.Background(), BidRequest{ProjectID: 1})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Contains(t, string(resp.Raw), "already bid")
	assert.Contains(t, err.Error(), "already bid")
}

func TestClient_Bids(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "42", r.URL.Query().Get("bidders[]"))
		w.Write([]byte(`{"status": "success", "result": {"bids": [
			{"id": 1, "project_id": 10, "awarded": true},
			{"id": 2, "project_id": 11, "award_status": "awarded"},
			{"id": 3, "project_id": 12}]}}`))
	})

	bids, err := c.Bids(context.Background(), 42, 0)
	require.NoError(t, err)
	require.Len(t, bids, 3)
	assert.True(t, bids[0].IsAwarded())
	assert.True(t, bids[1].IsAwarded())
	assert.False(t, bids[2].IsAwarded())
}

func TestClient_Currencies(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "success", "result": {"currencies": [
			{"id": 1, "code": "USD", "exchange_rate": 1},
			{"id": 11, "code": "INR", "exchange_rate": 83.1}]}}`))
	})

	currencies, err := c.Currencies(context.Background())
	require.NoError(t, err)
	require.Len(t, currencies, 2)
	assert.Equal(t, "INR", currencies[1].Code)
	assert.Equal(t, 83.1, currencies[1].ExchangeRate)
}

func TestClient_SignAgreements(t *testing.T) {
	var paths []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		w.Write([]byte(`{"status": "success", "result": {"required": true, "signed": false}}`))
	})

	nda, err := c.NDA(context.Background(), 5)
	require.NoError(t, err)
	assert.True(t, nda.Required)
	require.NoError(t, c.SignNDA(context.Background(), 5))
	require.NoError(t, c.SignIPContract(context.Background(), 5))

	assert.Equal(t, []string{
		"GET /projects/0.1/projects/5/nda",
		"POST /projects/0.1/projects/5/nda/sign",
		"POST /projects/0.1/projects/5/ip_contract/sign",
	}, paths)
}

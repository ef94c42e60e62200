package freelancer

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
)

// BidRequest is the POST /projects/0.1/bids/ payload
type BidRequest struct {
	ProjectID           int64   `json:"project_id"`
	BidderID            int64   `json:"bidder_id"`
	Amount              float64 `json:"amount"`
	Period              int     `json:"period"`
	MilestonePercentage int     `json:"milestone_percentage"`
	Description         string  `json:"description"`
}

// BidResponse carries the created bid ID and the raw body for auditing
type BidResponse struct {
	ID  int64
	Raw json.RawMessage
}

// PlaceBid submits a bid. On API errors the raw response body is still
// returned so the caller can record it.
func (c *Client) PlaceBid(ctx context.Context, req BidRequest) (*BidResponse, error) {
	var result struct {
		ID int64 `json:"id"`
	}
	raw, err := c.do(ctx, "POST", "/projects/0.1/bids/", nil, req, &result)
	resp := &BidResponse{ID: result.ID}
	if json.Valid(raw) {
		resp.Raw = raw
	}
	if err != nil {
		return resp, err
	}
	return resp, nil
}

// BidInfo is a bid as listed by GET /projects/0.1/bids/
type BidInfo struct {
	ID          int64   `json:"id"`
	ProjectID   int64   `json:"project_id"`
	BidderID    int64   `json:"bidder_id"`
	Amount      float64 `json:"amount"`
	Period      int     `json:"period"`
	Awarded     bool    `json:"awarded"`
	AwardStatus string  `json:"award_status"`
	TimeAwarded int64   `json:"time_awarded"`
}

// IsAwarded reports whether the bid won the project
func (b BidInfo) IsAwarded() bool {
	return b.Awarded || b.AwardStatus == "awarded"
}

// Bids lists bids placed by bidderID
func (c *Client) Bids(ctx context.Context, bidderID int64, limit int) ([]BidInfo, error) {
	if limit <= 0 {
		limit = 100
	}
	params := url.Values{
		"bidders[]": {strconv.FormatInt(bidderID, 10)},
		"limit":     {strconv.Itoa(limit)},
		"compact":   {"false"},
	}

	var result struct {
		Bids []BidInfo `json:"bids"`
	}
	if _, err := c.do(ctx, "GET", "/projects/0.1/bids/", params, nil, &result); err != nil {
		return nil, err
	}
	return result.Bids, nil
}

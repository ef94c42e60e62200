package freelancer

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// User is a marketplace account
type User struct {
	ID          int64       `json:"id"`
	Username    string      `json:"username"`
	DisplayName string      `json:"display_name"`
	Role        string      `json:"role"`
	Reputation  Reputation  `json:"reputation"`
	Status      OwnerStatus `json:"status"`
}

// User fetches a user profile, including reputation and verification status
func (c *Client) User(ctx context.Context, id int64) (*User, error) {
	params := url.Values{
		"reputation": {"true"},
		"status":     {"true"},
	}
	var user User
	if _, err := c.do(ctx, "GET", fmt.Sprintf("/users/0.1/users/%d", id), params, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// VerifyToken checks the token by loading the configured user's profile
func (c *Client) VerifyToken(ctx context.Context) (*User, error) {
	return c.User(ctx, c.userID)
}

// SendMessage posts a message to a project thread
func (c *Client) SendMessage(ctx context.Context, projectID, toUserID int64, message string) error {
	body := map[string]any{
		"project_id": projectID,
		"message":    message,
		"to_users":   []int64{toUserID},
	}
	_, err := c.do(ctx, "POST", "/messages/0.1/messages", nil, body, nil)
	return err
}

// Currencies lists marketplace currencies with their USD exchange rates
func (c *Client) Currencies(ctx context.Context) ([]Currency, error) {
	var result struct {
		Currencies []Currency `json:"currencies"`
	}
	if _, err := c.do(ctx, "GET", "/projects/0.1/currencies", nil, nil, &result); err != nil {
		return nil, err
	}
	return result.Currencies, nil
}

// Agreement is the NDA or IP-contract state for a project
type Agreement struct {
	Required bool `json:"required"`
	Signed   bool `json:"signed"`
}

// NDA returns the NDA state of a project
func (c *Client) NDA(ctx context.Context, projectID int64) (*Agreement, error) {
	return c.agreement(ctx, projectID, "nda")
}

// SignNDA signs a project's NDA as the configured user
func (c *Client) SignNDA(ctx context.Context, projectID int64) error {
	return c.signAgreement(ctx, projectID, "nda")
}

// IPContract returns the IP-contract state of a project
func (c *Client) IPContract(ctx context.Context, projectID int64) (*Agreement, error) {
	return c.agreement(ctx, projectID, "ip_contract")
}

// SignIPContract signs a project's IP agreement as the configured user
func (c *Client) SignIPContract(ctx context.Context, projectID int64) error {
	return c.signAgreement(ctx, projectID, "ip_contract")
}

func (c *Client) agreement(ctx context.Context, projectID int64, kind string) (*Agreement, error) {
	var a Agreement
	path := fmt.Sprintf("/projects/0.1/projects/%d/%s", projectID, kind)
	if _, err := c.do(ctx, "GET", path, nil, nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *Client) signAgreement(ctx context.Context, projectID int64, kind string) error {
	path := fmt.Sprintf("/projects/0.1/projects/%d/%s/sign", projectID, kind)
	body := map[string]string{"user_id": strconv.FormatInt(c.userID, 10)}
	_, err := c.do(ctx, "POST", path, nil, body, nil)
	return err
}

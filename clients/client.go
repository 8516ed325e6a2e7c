// Package clients calls the peer service over HTTP.
package clients

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/yeremiapane/practice-app/apperror"
	"github.com/yeremiapane/practice-app/models"
	"github.com/yeremiapane/practice-app/utils"
)

const (
	apiPrefix       = "/api/v1"
	serviceUserID   = 1
	serviceTokenTTL = 5 * time.Minute
)

func newRestyClient(baseURL string, timeout time.Duration) *resty.Client {
	return resty.New().
		SetBaseURL(baseURL+apiPrefix).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")
}

// authorized returns a request carrying a short-lived service token.
func authorized(client *resty.Client) (*resty.Request, error) {
	token, err := utils.GenerateToken(serviceUserID, models.RoleService, serviceTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("sign service token: %w", err)
	}
	return client.R().SetAuthToken(token), nil
}

// checkResponse turns transport errors and non-2xx answers into errors of kind
// ExternalService, except 404 which stays NotFound and 409 which stays Conflict.
func checkResponse(service string, resp *resty.Response, err error) error {
	if err != nil {
		return apperror.External(service, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return apperror.NotFound("%s: %s not found", service, resp.Request.URL)
	}
	if resp.StatusCode() == http.StatusConflict {
		return apperror.Conflict("%s: %s", service, peerMessage(resp))
	}
	if resp.IsError() || resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return apperror.External(service, fmt.Errorf("unexpected status %d: %s", resp.StatusCode(), truncate(resp.String(), 256)))
	}
	return nil
}

// peerMessage reads the message field of the peer's error envelope.
func peerMessage(resp *resty.Response) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err != nil || body.Message == "" {
		return truncate(resp.String(), 256)
	}
	return body.Message
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

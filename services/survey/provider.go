package survey

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"earnplay-backend/pkg/config"
	"earnplay-backend/pkg/errutil"

	"go.uber.org/zap"
)

// Client talks to the affiliate survey partner. Calls are authenticated with
// the app token and scoped to one partner user id; callback signatures are
// verified against the server-to-server secret.
type Client interface {
	ListSurveys(ctx context.Context, partnerUserID string) ([]Survey, error)
	MintStartURL(ctx context.Context, partnerUserID, surveyID, clickID string) (string, error)
	VerifySignature(payload []byte, signature string) bool
}

type providerClient struct {
	baseURL   string
	appToken  string
	s2sSecret string
	http      *http.Client
}

func NewClient(cfg *config.Config) Client {
	return &providerClient{
		baseURL:   cfg.SurveyProvider.BaseURL,
		appToken:  cfg.SurveyProvider.AppToken,
		s2sSecret: cfg.SurveyProvider.S2SSecret,
		http:      &http.Client{Timeout: cfg.SurveyProvider.Timeout},
	}
}

type listSurveysResponse struct {
	Data struct {
		Surveys []Survey `json:"surveys"`
	} `json:"data"`
}

func (c *providerClient) ListSurveys(ctx context.Context, partnerUserID string) ([]Survey, error) {
	endpoint := fmt.Sprintf("%s/v2/client/surveys?%s", c.baseURL, url.Values{
		"platform": {"MOBILE"},
		"os":       {"ANDROID"},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errutil.Internal("failed to build survey list request", err)
	}
	c.setHeaders(req, partnerUserID)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errutil.ServiceUnavailable("survey provider unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		zap.L().Warn("survey provider returned error status",
			zap.Int("status", resp.StatusCode),
			zap.String("endpoint", "/v2/client/surveys"),
		)
		return nil, errutil.ServiceUnavailable(fmt.Sprintf("survey provider returned status %d", resp.StatusCode), nil)
	}

	var out listSurveysResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, errutil.ServiceUnavailable("survey provider returned malformed response", err)
	}
	return out.Data.Surveys, nil
}

func (c *providerClient) MintStartURL(ctx context.Context, partnerUserID, surveyID, clickID string) (string, error) {
	body, err := json.Marshal(map[string]string{
		"survey_id": surveyID,
		"click_id":  clickID,
	})
	if err != nil {
		return "", errutil.Internal("failed to encode survey start request", err)
	}

	endpoint := c.baseURL + "/v2/client/surveys/start"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", errutil.Internal("failed to build survey start request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setHeaders(req, partnerUserID)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", errutil.ServiceUnavailable("survey provider unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		zap.L().Warn("survey provider refused start request",
			zap.Int("status", resp.StatusCode),
			zap.String("survey_id", surveyID),
		)
		return "", errutil.ServiceUnavailable(fmt.Sprintf("survey provider returned status %d", resp.StatusCode), nil)
	}

	var out struct {
		Link string `json:"link"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", errutil.ServiceUnavailable("survey provider returned malformed response", err)
	}
	if out.Link == "" {
		return "", errutil.ServiceUnavailable("survey provider returned no link", nil)
	}
	return out.Link, nil
}

// VerifySignature checks an HMAC-SHA256 hex digest of the raw callback body.
func (c *providerClient) VerifySignature(payload []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(c.s2sSecret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (c *providerClient) setHeaders(req *http.Request, partnerUserID string) {
	req.Header.Set("X-Api-Token", c.appToken)
	req.Header.Set("X-User-Id", partnerUserID)
}

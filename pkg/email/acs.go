package email

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const acsAPIVersion = "2023-03-31"

// Operation states reported by the ACS email API.
const (
	acsStatusNotStarted = "NotStarted"
	acsStatusRunning    = "Running"
	acsStatusSucceeded  = "Succeeded"
	acsStatusFailed     = "Failed"
	acsStatusCanceled   = "Canceled"
)

// ACSClient sends mail through the Azure Communication Services Email REST API
// and polls the returned operation until it reaches a terminal state.
type ACSClient struct {
	endpoint     string
	accessKey    []byte
	httpClient   *http.Client
	pollInterval time.Duration
	now          func() time.Time
}

type acsAddress struct {
	Address string `json:"address"`
}

type acsSendRequest struct {
	SenderAddress string `json:"senderAddress"`
	Content       struct {
		Subject string `json:"subject"`
		HTML    string `json:"html"`
	} `json:"content"`
	Recipients struct {
		To []acsAddress `json:"to"`
	} `json:"recipients"`
	ReplyTo []acsAddress `json:"replyTo,omitempty"`
}

type acsErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type acsOperation struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Error  *acsErrorDetail `json:"error,omitempty"`
}

type acsErrorResponse struct {
	Error acsErrorDetail `json:"error"`
}

// ParseACSConnectionString reads "endpoint=https://...;accesskey=...".
func ParseACSConnectionString(connStr string) (endpoint string, accessKey []byte, err error) {
	var rawKey string
	for _, part := range strings.Split(connStr, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			return "", nil, fmt.Errorf("acs: malformed connection string segment %q", part)
		}
		switch strings.ToLower(strings.TrimSpace(kv[0])) {
		case "endpoint":
			endpoint = strings.TrimRight(strings.TrimSpace(kv[1]), "/")
		case "accesskey":
			rawKey = strings.TrimSpace(kv[1])
		}
	}

	if endpoint == "" || rawKey == "" {
		return "", nil, errors.New("acs: connection string needs endpoint and accesskey")
	}
	if u, perr := url.Parse(endpoint); perr != nil || u.Host == "" {
		return "", nil, fmt.Errorf("acs: invalid endpoint %q", endpoint)
	}
	accessKey, err = base64.StdEncoding.DecodeString(rawKey)
	if err != nil {
		return "", nil, fmt.Errorf("acs: access key is not base64: %w", err)
	}
	return endpoint, accessKey, nil
}

// NewACSClient builds a client from an ACS connection string.
func NewACSClient(connStr string, pollInterval time.Duration) (*ACSClient, error) {
	endpoint, key, err := ParseACSConnectionString(connStr)
	if err != nil {
		return nil, err
	}
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &ACSClient{
		endpoint:     endpoint,
		accessKey:    key,
		httpClient:   &http.Client{Timeout: 15 * time.Second},
		pollInterval: pollInterval,
		now:          time.Now,
	}, nil
}

// Send starts the send operation and blocks until it succeeds, fails or ctx ends.
func (c *ACSClient) Send(ctx context.Context, msg Message) error {
	opURL, err := c.beginSend(ctx, msg)
	if err != nil {
		return err
	}
	return c.pollUntilDone(ctx, opURL)
}

func (c *ACSClient) beginSend(ctx context.Context, msg Message) (string, error) {
	payload := acsSendRequest{SenderAddress: msg.From}
	payload.Content.Subject = msg.Subject
	payload.Content.HTML = msg.HTML
	payload.Recipients.To = []acsAddress{{Address: msg.To}}
	if msg.ReplyTo != "" {
		payload.ReplyTo = []acsAddress{{Address: msg.ReplyTo}}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("acs: marshal send request: %w", err)
	}

	sendURL := c.endpoint + "/emails:send?api-version=" + acsAPIVersion
	resp, err := c.do(ctx, http.MethodPost, sendURL, body)
	if err != nil {
		return "", fmt.Errorf("acs: send request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		return "", readACSError(resp)
	}

	if loc := resp.Header.Get("Operation-Location"); loc != "" {
		return loc, nil
	}

	var op acsOperation
	if err := json.NewDecoder(resp.Body).Decode(&op); err != nil || op.ID == "" {
		return "", errors.New("acs: send accepted without an operation location")
	}
	return c.endpoint + "/emails/operations/" + url.PathEscape(op.ID) + "?api-version=" + acsAPIVersion, nil
}

func (c *ACSClient) pollUntilDone(ctx context.Context, opURL string) error {
	for {
		resp, err := c.do(ctx, http.MethodGet, opURL, nil)
		if err != nil {
			return fmt.Errorf("acs: poll request failed: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			err := readACSError(resp)
			resp.Body.Close()
			return err
		}

		var op acsOperation
		decodeErr := json.NewDecoder(resp.Body).Decode(&op)
		wait := retryAfter(resp.Header.Get("Retry-After"), c.pollInterval)
		resp.Body.Close()
		if decodeErr != nil {
			return fmt.Errorf("acs: decode operation status: %w", decodeErr)
		}

		switch op.Status {
		case acsStatusSucceeded:
			return nil
		case acsStatusFailed, acsStatusCanceled:
			if op.Error != nil {
				return fmt.Errorf("acs: operation %s %s: %s (%s)", op.ID, strings.ToLower(op.Status), op.Error.Message, op.Error.Code)
			}
			return fmt.Errorf("acs: operation %s %s", op.ID, strings.ToLower(op.Status))
		case acsStatusNotStarted, acsStatusRunning:
		default:
			return fmt.Errorf("acs: unexpected operation status %q", op.Status)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("acs: waiting for delivery: %w", ctx.Err())
		case <-timer.C:
		}
	}
}

// do issues an HMAC-SHA256 signed request.
func (c *ACSClient) do(ctx context.Context, method, rawURL string, body []byte) (*http.Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256(body)
	contentHash := base64.StdEncoding.EncodeToString(sum[:])
	date := c.now().UTC().Format(http.TimeFormat)

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-ms-date", date)
	req.Header.Set("x-ms-content-sha256", contentHash)
	req.Header.Set("Authorization", "HMAC-SHA256 SignedHeaders=x-ms-date;host;x-ms-content-sha256&Signature="+
		c.sign(method, u.RequestURI(), date, u.Host, contentHash))

	return c.httpClient.Do(req)
}

func (c *ACSClient) sign(method, pathAndQuery, date, host, contentHash string) string {
	stringToSign := method + "\n" + pathAndQuery + "\n" + date + ";" + host + ";" + contentHash
	mac := hmac.New(sha256.New, c.accessKey)
	mac.Write([]byte(stringToSign))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func readACSError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	var parsed acsErrorResponse
	if json.Unmarshal(raw, &parsed) == nil && parsed.Error.Message != "" {
		return fmt.Errorf("acs: status=%d code=%s: %s", resp.StatusCode, parsed.Error.Code, parsed.Error.Message)
	}
	return fmt.Errorf("acs: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(raw)))
}

func retryAfter(header string, fallback time.Duration) time.Duration {
	if secs, err := strconv.Atoi(strings.TrimSpace(header)); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

package log

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	timeout = 2 * time.Second
)

// Monitor posts collected logs to the remote log service
type Monitor struct {
	client   *http.Client
	endpoint string
}

func NewMonitor(endpoint string) *Monitor {
	return &Monitor{
		client:   &http.Client{Timeout: timeout},
		endpoint: strings.TrimSuffix(endpoint, "/"),
	}
}

func (m *Monitor) Post(body []byte, path string) error {
	url := fmt.Sprintf("%s/%s", m.endpoint, path)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("log service status %d", resp.StatusCode)
	}
	return nil
}

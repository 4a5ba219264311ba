package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// ScraperClient talks to the third-party scraping provider that returns
// public metadata for a social video URL.
type ScraperClient struct {
	ScraperAPIURL string
	HTTPClient    *http.Client
}

func NewScraperClient(scraperAPIURL string) *ScraperClient {
	return &ScraperClient{
		ScraperAPIURL: scraperAPIURL,
		HTTPClient:    &http.Client{Timeout: 30 * time.Second},
	}
}

type VideoMetadata struct {
	AuthorHandle string `json:"author_handle"`
	Caption      string `json:"caption"`
	ViewCount    int64  `json:"view_count"`
	LikeCount    int64  `json:"like_count"`
}

// RequestScrape queues a batch of profile or video URLs with the provider.
// Results come back later through the scraper webhook.
func (client *ScraperClient) RequestScrape(urls []string) error {
	payload, err := json.Marshal(map[string][]string{"urls": urls})
	if err != nil {
		return err
	}

	resp, err := client.HTTPClient.Post(client.ScraperAPIURL+"/v1/scrape", "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("scraper provider returned status %d", resp.StatusCode)
	}
	return nil
}

// FetchVideoMetadata asks the provider for the public metadata of one video
// URL. Callers treat failures as best-effort; submission never blocks on the
// provider.
func (client *ScraperClient) FetchVideoMetadata(videoURL string) (VideoMetadata, error) {
	var result VideoMetadata

	payload, err := json.Marshal(map[string]string{"url": videoURL})
	if err != nil {
		return result, err
	}

	req, err := http.NewRequest("POST", client.ScraperAPIURL+"/v1/video-metadata", bytes.NewReader(payload))
	if err != nil {
		return result, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.HTTPClient.Do(req)
	if err != nil {
		return result, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return result, fmt.Errorf("scraper provider returned status %d", resp.StatusCode)
	}

	err = json.NewDecoder(resp.Body).Decode(&result)
	return result, err
}

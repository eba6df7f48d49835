package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Client talks to the interview backend: question generation, transcript
// persistence, scoring, voice registration, and monitoring status.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Upload submits the resume and job description documents and returns the
// generated question sequence. A response without questions is an error:
// upload is a critical call and the caller cannot proceed without them.
func (c *Client) Upload(
	ctx context.Context,
	resumePath, jdPath string,
) ([]string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for field, path := range map[string]string{
		"resume": resumePath,
		"jd":     jdPath,
	} {
		file, err := os.Open(path)
		if err != nil {
			return nil, err
		}

		part, err := writer.CreateFormFile(field, filepath.Base(path))
		if err != nil {
			file.Close()
			return nil, err
		}
		if _, err := io.Copy(part, file); err != nil {
			file.Close()
			return nil, err
		}
		file.Close()
	}

	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(
		ctx,
		"POST",
		c.BaseURL+"/upload",
		body,
	)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf(
				"unexpected status code: %d, failed to read response body: %w",
				resp.StatusCode,
				err,
			)
		}
		return nil, fmt.Errorf(
			"unexpected status code: %d, response body: %s",
			resp.StatusCode,
			string(body),
		)
	}

	var uploadResponse UploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&uploadResponse); err != nil {
		return nil, err
	}

	if uploadResponse.Status != "success" {
		return nil, fmt.Errorf("upload rejected: %s", uploadResponse.Message)
	}
	if len(uploadResponse.Result.Questions) == 0 {
		return nil, fmt.Errorf("no questions were generated")
	}

	return uploadResponse.Result.Questions, nil
}

// SaveTranscript persists one answered question server-side. Callers treat
// a failure here as log-only: the interview must never stall on it.
func (c *Client) SaveTranscript(
	ctx context.Context,
	question, answer string,
) error {
	payload, err := json.Marshal(saveTranscriptRequest{
		Question: question,
		Answer:   answer,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(
		ctx,
		"POST",
		c.BaseURL+"/save-transcript",
		bytes.NewReader(payload),
	)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var ack statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return err
	}
	if ack.Status != "success" {
		return fmt.Errorf("save transcript rejected: %s", ack.Message)
	}

	return nil
}

// ScoreTranscript asks the backend to score the transcript accumulated by
// the SaveTranscript calls of the current interview.
func (c *Client) ScoreTranscript(ctx context.Context) (Scores, error) {
	var response scoreResponse
	if err := c.getJSON(ctx, "/score-transcript", &response); err != nil {
		return Scores{}, err
	}

	if response.Status != "success" {
		return Scores{}, fmt.Errorf("scoring failed: %s", response.Message)
	}

	return response.Scores, nil
}

// StartRegistration begins a voice registration recording of the given
// duration in seconds. Completion is observed via RegistrationStatus.
func (c *Client) StartRegistration(
	ctx context.Context,
	duration int,
) error {
	payload, err := json.Marshal(startRegistrationRequest{Duration: duration})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(
		ctx,
		"POST",
		c.BaseURL+"/start-voice-registration",
		bytes.NewReader(payload),
	)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var ack statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return err
	}
	if ack.Status != "success" {
		return fmt.Errorf("registration rejected: %s", ack.Message)
	}

	return nil
}

func (c *Client) RegistrationStatus(
	ctx context.Context,
) (RegistrationStatus, error) {
	var response registrationStatusResponse
	if err := c.getJSON(ctx, "/check-registration-status", &response); err != nil {
		return RegistrationStatus{}, err
	}
	return response.Registration, nil
}

func (c *Client) VoiceWarnings(ctx context.Context) (Warnings, error) {
	var response warningsResponse
	if err := c.getJSON(ctx, "/get-voice-warnings", &response); err != nil {
		return Warnings{}, err
	}
	if response.Status != "success" {
		return Warnings{}, fmt.Errorf(
			"warnings unavailable: %s",
			response.Status,
		)
	}
	return Warnings{
		Warnings:         response.Warnings,
		MaxWarnings:      response.MaxWarnings,
		MalpracticeCount: response.MalpracticeCount,
		MaxMalpractice:   response.MaxMalpractice,
	}, nil
}

func (c *Client) InterviewStatus(
	ctx context.Context,
) (InterviewStatus, error) {
	var response interviewStatusResponse
	if err := c.getJSON(ctx, "/check-interview-status", &response); err != nil {
		return InterviewStatus{}, err
	}
	return response.InterviewStatus, nil
}

// StartMonitoring activates server-side audio monitoring for the session.
func (c *Client) StartMonitoring(ctx context.Context) error {
	return c.post(ctx, "/start-audio-monitoring")
}

// StopMonitoring deactivates server-side audio monitoring.
func (c *Client) StopMonitoring(ctx context.Context) error {
	return c.post(ctx, "/stop-audio-monitoring")
}

func (c *Client) getJSON(
	ctx context.Context,
	path string,
	out interface{},
) error {
	req, err := http.NewRequestWithContext(
		ctx,
		"GET",
		c.BaseURL+path,
		nil,
	)
	if err != nil {
		return err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf(
				"unexpected status code: %d, failed to read response body: %w",
				resp.StatusCode,
				err,
			)
		}
		return fmt.Errorf(
			"unexpected status code: %d, response body: %s",
			resp.StatusCode,
			string(body),
		)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) post(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(
		ctx,
		"POST",
		c.BaseURL+path,
		nil,
	)
	if err != nil {
		return err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return nil
}

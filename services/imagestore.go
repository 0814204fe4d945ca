package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"time"
)

// ImageStore persists an uploaded photo and returns its public URL. The
// upload happens before the issue insert so a database failure never strands
// an unreferenced record.
type ImageStore interface {
	Upload(ctx context.Context, fileName string, r io.Reader) (string, error)
}

type cloudinaryStore struct {
	cloudName    string
	uploadPreset string
	client       *http.Client
}

// NewImageStore builds the Cloudinary-backed image store from environment
// configuration.
func NewImageStore() ImageStore {
	return &cloudinaryStore{
		cloudName:    os.Getenv("CLOUDINARY_CLOUD_NAME"),
		uploadPreset: os.Getenv("CLOUDINARY_UPLOAD_PRESET"),
		client:       &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *cloudinaryStore) Upload(ctx context.Context, fileName string, r io.Reader) (string, error) {
	if s.cloudName == "" || s.uploadPreset == "" {
		return "", fmt.Errorf("image store is not configured")
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", err
	}
	if err := writer.WriteField("upload_preset", s.uploadPreset); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("https://api.cloudinary.com/v1_1/%s/image/upload", s.cloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("image upload failed with status %d", resp.StatusCode)
	}

	var uploaded struct {
		SecureURL string `json:"secure_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&uploaded); err != nil {
		return "", err
	}
	if uploaded.SecureURL == "" {
		return "", fmt.Errorf("image upload returned no URL")
	}
	return uploaded.SecureURL, nil
}

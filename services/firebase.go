package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

// ExternalIdentity is the subset of an external-auth profile the API needs.
type ExternalIdentity struct {
	UID   string
	Email string
	Name  string
}

// ExternalIdentityVerifier validates an external-auth ID token and returns
// the identity it asserts.
type ExternalIdentityVerifier interface {
	Verify(ctx context.Context, idToken string) (*ExternalIdentity, error)
}

type firebaseVerifier struct {
	apiKey string
	client *http.Client
}

// NewIdentityVerifier builds the Firebase-backed verifier from environment
// configuration.
func NewIdentityVerifier() ExternalIdentityVerifier {
	return &firebaseVerifier{
		apiKey: os.Getenv("FIREBASE_API_KEY"),
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (f *firebaseVerifier) Verify(ctx context.Context, idToken string) (*ExternalIdentity, error) {
	if f.apiKey == "" {
		return nil, fmt.Errorf("firebase verifier is not configured")
	}

	payload, err := json.Marshal(map[string]string{"idToken": idToken})
	if err != nil {
		return nil, err
	}

	endpoint := "https://identitytoolkit.googleapis.com/v1/accounts:lookup?key=" + f.apiKey
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token lookup failed with status %d", resp.StatusCode)
	}

	var lookup struct {
		Users []struct {
			LocalID     string `json:"localId"`
			Email       string `json:"email"`
			DisplayName string `json:"displayName"`
		} `json:"users"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&lookup); err != nil {
		return nil, err
	}
	if len(lookup.Users) == 0 {
		return nil, fmt.Errorf("token did not resolve to a user")
	}

	u := lookup.Users[0]
	return &ExternalIdentity{UID: u.LocalID, Email: u.Email, Name: u.DisplayName}, nil
}

package auth

import (
	"encoding/base64"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// APIKeyCredential is the payload packed into the opaque key handed to
// API clients: base64 over a small JSON object, so the single header
// value carries both the key id and the secret.
type APIKeyCredential struct {
	ID     uuid.UUID `json:"apiKeyId"`
	Secret string    `json:"apiKeySecret"`
}

// EncodeAPIKey packs id and secret into the transportable form.
func EncodeAPIKey(id uuid.UUID, secret string) (string, error) {
	payload, err := json.Marshal(APIKeyCredential{ID: id, Secret: secret})
	if err != nil {
		return "", errors.Wrap(err, "encoding api key")
	}
	return base64.StdEncoding.EncodeToString(payload), nil
}

// DecodeAPIKey unpacks a key received in the X-API-Key header.
func DecodeAPIKey(key string) (*APIKeyCredential, error) {
	payload, err := base64.StdEncoding.DecodeString(key)
	if err != nil {
		return nil, errors.Wrap(err, "decoding api key")
	}
	var cred APIKeyCredential
	if err := json.Unmarshal(payload, &cred); err != nil {
		return nil, errors.Wrap(err, "decoding api key")
	}
	if cred.ID == uuid.Nil || cred.Secret == "" {
		return nil, errors.New("api key is missing id or secret")
	}
	return &cred, nil
}

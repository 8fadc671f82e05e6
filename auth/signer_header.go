package auth

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
)

// APIKeySigner writes an API key to a header or query parameter, overwriting
// any existing value under the same name (spec.md §4.3 "API key signer").
type APIKeySigner struct {
	// In is "header" or "query"; any other value behaves as "header".
	In string
	// Name is the header or query parameter name, e.g. "x-api-key".
	Name string
	// Scheme, if set, is prefixed to the key value with a single space
	// (spec.md §8 scenario (a): "SCHEME my-api-key").
	Scheme string
}

// SignRequest implements Signer.
func (s *APIKeySigner) SignRequest(_ context.Context, req *http.Request, identity any, _ Properties) error {
	id, ok := identity.(APIKeyIdentity)
	if !ok {
		return fmt.Errorf("auth: api key signer requires APIKeyIdentity, got %T", identity)
	}
	value := id.Key
	if s.Scheme != "" {
		value = s.Scheme + " " + value
	}
	if s.In == "query" {
		q := req.URL.Query()
		q.Set(s.Name, value)
		req.URL.RawQuery = q.Encode()
		return nil
	}
	req.Header.Set(s.Name, value)
	return nil
}

// BearerSigner sets Authorization: Bearer <token>, replacing any existing
// Authorization value (spec.md §4.3 "Bearer / basic signers"; §8 scenario
// (e)).
type BearerSigner struct{}

// SignRequest implements Signer.
func (BearerSigner) SignRequest(_ context.Context, req *http.Request, identity any, _ Properties) error {
	id, ok := identity.(BearerTokenIdentity)
	if !ok {
		return fmt.Errorf("auth: bearer signer requires BearerTokenIdentity, got %T", identity)
	}
	req.Header.Set("Authorization", "Bearer "+id.Token)
	return nil
}

// BasicSigner sets Authorization: Basic <b64(user:pass)>, replacing any
// existing Authorization value (spec.md §4.3 "Bearer / basic signers").
type BasicSigner struct{}

// SignRequest implements Signer.
func (BasicSigner) SignRequest(_ context.Context, req *http.Request, identity any, _ Properties) error {
	id, ok := identity.(LoginIdentity)
	if !ok {
		return fmt.Errorf("auth: basic signer requires LoginIdentity, got %T", identity)
	}
	token := base64.StdEncoding.EncodeToString([]byte(id.Username + ":" + id.Password))
	req.Header.Set("Authorization", "Basic "+token)
	return nil
}

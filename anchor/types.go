package anchor

import (
	"encoding/json"
	"fmt"
)

// flexString decodes upstream fields that arrive either as a bare JSON
// string or wrapped in an object, depending on the anchor or proxy
// version. Normalizing here keeps shape checks out of the core logic.
type flexString string

// wrapperKeys are the object keys known to carry the actual value,
// checked in order.
var wrapperKeys = []string{"transaction", "xdr", "url", "token", "id", "value"}

func (s *flexString) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = flexString(str)
		return nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("expected string or object, got %s", data)
	}
	for _, key := range wrapperKeys {
		raw, ok := obj[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, &str); err == nil {
			*s = flexString(str)
			return nil
		}
	}
	return fmt.Errorf("no string value found in object %s", data)
}

// Challenge is the normalized result of the auth challenge API.
type Challenge struct {
	Envelope          string
	NetworkPassphrase string
	AuthEndpoint      string
}

type challengeRequest struct {
	AnchorDomain  string `json:"anchorDomain"`
	UserPublicKey string `json:"userPublicKey"`
}

type challengeResponse struct {
	ChallengeXDR      flexString `json:"challengeXdr"`
	NetworkPassphrase string     `json:"networkPassphrase"`
	AuthEndpoint      flexString `json:"authEndpoint"`
}

// TokenRequest carries a signed challenge back to the anchor.
type TokenRequest struct {
	SignedEnvelope string
	AuthEndpoint   string
	AnchorDomain   string
	Address        string
}

type tokenRequestBody struct {
	SignedXDR     string `json:"signedXdr"`
	AuthEndpoint  string `json:"authEndpoint"`
	AnchorDomain  string `json:"anchorDomain"`
	UserPublicKey string `json:"userPublicKey"`
}

type tokenResponse struct {
	Token flexString `json:"token"`
}

// DepositRequest initiates an interactive deposit with the anchor.
type DepositRequest struct {
	AnchorDomain string
	AuthToken    string
	AssetCode    string
	AssetIssuer  string // empty for the native asset
	Amount       string
	Account      string
}

type depositRequestBody struct {
	Type         string             `json:"type"`
	AnchorDomain string             `json:"anchorDomain"`
	AuthToken    string             `json:"authToken"`
	Request      depositRequestJSON `json:"request"`
}

type depositRequestJSON struct {
	AssetCode   string `json:"assetCode"`
	AssetIssuer string `json:"assetIssuer,omitempty"`
	Amount      string `json:"amount"`
	Account     string `json:"account"`
}

// Interaction is the anchor's handle for an accepted deposit: the flow
// id and the interactive URL the user must visit.
type Interaction struct {
	ID  string
	URL string
}

type depositResponse struct {
	ID  flexString `json:"id"`
	URL flexString `json:"url"`
}

// StatusRequest identifies a tracked flow for polling.
type StatusRequest struct {
	ID           string
	AnchorDomain string
	AuthToken    string
}

type statusRequestBody struct {
	ID           string `json:"id"`
	AnchorDomain string `json:"anchorDomain"`
	AuthToken    string `json:"authToken"`
}

type statusResponse struct {
	Status string `json:"status"`
}

type trustlinesRequest struct {
	UserPublicKey string   `json:"userPublicKey"`
	AssetKeys     []string `json:"assetKeys"`
}

type trustlinesResponse struct {
	MissingTrustlines []string `json:"missingTrustlines"`
}

package authentication

// keystring.go keeps the CLI session in the OS keyring, never on disk.
import (
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/zalando/go-keyring"
)

const (
	serviceName = "libraryctl"
	tokenKey    = "auth_tokens"
)

type StoredCredentials struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	ExpiresAt    int64  `json:"expires_at"`
}

// Expired reports whether the access token is past its lifetime at now.
func (c *StoredCredentials) Expired(now time.Time) bool {
	return c.ExpiresAt > 0 && now.Unix() >= c.ExpiresAt
}

func StoreTokens(creds *StoredCredentials) error {
	data, err := jsoniter.Marshal(creds)
	if err != nil {
		return err
	}
	return keyring.Set(serviceName, tokenKey, string(data))
}

func GetTokens() (*StoredCredentials, error) {
	value, err := keyring.Get(serviceName, tokenKey)
	if err != nil {
		return nil, err
	}

	var creds StoredCredentials
	if err := jsoniter.UnmarshalFromString(value, &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

func DeleteTokens() error {
	return keyring.Delete(serviceName, tokenKey)
}

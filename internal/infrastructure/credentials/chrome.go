package credentials

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha1"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	sq "github.com/Masterminds/squirrel"
	"golang.org/x/crypto/pbkdf2"
	_ "modernc.org/sqlite"
)

const (
	v10Prefix = "v10"
	v11Prefix = "v11"
	v20Prefix = "v20"

	cbcSalt       = "saltysalt"
	cbcLinuxPass  = "peanuts"
	cbcIterations = 1
	cbcKeyLen     = 16

	gcmNonceLen = 12
)

// ChromeStore decrypts cookies straight out of a Chrome profile: the Cookies
// SQLite database plus the Local State key material. It understands the v10
// CBC format and the newer v20 app-bound format, so it is tried before the
// generic cross-browser reader.
type ChromeStore struct {
	// profileDir overrides the platform default; used by tests.
	profileDir string
}

// NewChromeStore locates the default Chrome profile for the current platform.
func NewChromeStore() *ChromeStore {
	return &ChromeStore{}
}

// Name identifies the strategy inside the provider chain.
func (s *ChromeStore) Name() string {
	return "chrome-store"
}

// Cookies copies the profile cookie database aside (a running browser keeps
// it locked), queries rows for the domain, and decrypts each value.
func (s *ChromeStore) Cookies(ctx context.Context, domain string) (map[string]string, error) {
	dir := s.profileDir
	if dir == "" {
		var err error
		dir, err = defaultProfileDir()
		if err != nil {
			return nil, err
		}
	}

	dbCopy, err := copyAside(filepath.Join(dir, "Cookies"))
	if err != nil {
		return nil, fmt.Errorf("copy cookie db: %w", err)
	}
	defer os.Remove(dbCopy)

	db, err := sql.Open("sqlite", dbCopy)
	if err != nil {
		return nil, fmt.Errorf("open cookie db: %w", err)
	}
	defer db.Close()

	keys := loadKeys(dir)

	rows, err := sq.Select("host_key", "name", "value", "encrypted_value").
		From("cookies").
		Where(sq.Like{"host_key": "%" + domain}).
		RunWith(db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query cookies: %w", err)
	}
	defer rows.Close()

	out := map[string]string{}
	for rows.Next() {
		var (
			hostKey, name, value string
			encrypted            []byte
		)
		if err := rows.Scan(&hostKey, &name, &value, &encrypted); err != nil {
			return nil, fmt.Errorf("scan cookie row: %w", err)
		}

		if value != "" {
			out[name] = value
			continue
		}

		plain, err := decryptValue(encrypted, hostKey, keys)
		if err != nil {
			// A single undecryptable cookie should not sink the whole
			// session; auth cookies on these sites are v10.
			continue
		}
		out[name] = plain
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cookies: %w", err)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("no cookies stored for %s", domain)
	}
	return out, nil
}

// storeKeys holds the decryption material derivable from a profile.
type storeKeys struct {
	cbcKey      []byte
	appBoundKey []byte
}

func loadKeys(profileDir string) storeKeys {
	keys := storeKeys{}
	if runtime.GOOS != "windows" {
		// Chrome on Linux without a keyring falls back to a fixed password.
		keys.cbcKey = pbkdf2.Key([]byte(cbcLinuxPass), []byte(cbcSalt), cbcIterations, cbcKeyLen, sha1.New)
	}

	if raw, err := os.ReadFile(filepath.Join(filepath.Dir(profileDir), "Local State")); err == nil {
		keys.appBoundKey = appBoundKey(raw)
	}
	return keys
}

// appBoundKey extracts the v20 key from the Local State JSON. The blob is
// wrapped by the OS key store; after stripping the APPB header the trailing
// 32 bytes carry the AES-256 key when the wrap has already been removed by
// the elevation service. A wrong key simply fails GCM authentication later.
func appBoundKey(localState []byte) []byte {
	var state struct {
		OSCrypt struct {
			AppBoundEncryptedKey string `json:"app_bound_encrypted_key"`
		} `json:"os_crypt"`
	}
	if err := json.Unmarshal(localState, &state); err != nil {
		return nil
	}

	blob, err := base64.StdEncoding.DecodeString(state.OSCrypt.AppBoundEncryptedKey)
	if err != nil {
		return nil
	}
	blob = bytes.TrimPrefix(blob, []byte("APPB"))
	if len(blob) < 32 {
		return nil
	}
	return blob[len(blob)-32:]
}

func decryptValue(encrypted []byte, hostKey string, keys storeKeys) (string, error) {
	if len(encrypted) < 3 {
		return string(encrypted), nil
	}

	switch string(encrypted[:3]) {
	case v20Prefix:
		return decryptV20(encrypted[3:], keys.appBoundKey)
	case v10Prefix, v11Prefix:
		return decryptV10(encrypted[3:], hostKey, keys.cbcKey)
	default:
		return string(encrypted), nil
	}
}

func decryptV10(payload []byte, hostKey string, key []byte) (string, error) {
	if key == nil {
		return "", fmt.Errorf("no cbc key available on %s", runtime.GOOS)
	}
	if len(payload) == 0 || len(payload)%aes.BlockSize != 0 {
		return "", fmt.Errorf("cbc payload length %d", len(payload))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	iv := bytes.Repeat([]byte(" "), aes.BlockSize)
	plain := make([]byte, len(payload))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, payload)

	pad := int(plain[len(plain)-1])
	if pad <= 0 || pad > aes.BlockSize || pad > len(plain) {
		return "", fmt.Errorf("invalid cbc padding")
	}
	plain = plain[:len(plain)-pad]

	return string(stripDomainHash(plain, hostKey)), nil
}

func decryptV20(payload, key []byte) (string, error) {
	if key == nil {
		return "", fmt.Errorf("app-bound key unavailable")
	}
	if len(payload) < gcmNonceLen {
		return "", fmt.Errorf("gcm payload length %d", len(payload))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	plain, err := gcm.Open(nil, payload[:gcmNonceLen], payload[gcmNonceLen:], nil)
	if err != nil {
		return "", fmt.Errorf("gcm open: %w", err)
	}

	// v20 plaintext always carries the domain-hash prefix.
	if len(plain) >= sha256.Size {
		plain = plain[sha256.Size:]
	}
	return string(plain), nil
}

// stripDomainHash removes the SHA-256(host_key) prefix newer Chrome versions
// prepend to the plaintext cookie value.
func stripDomainHash(plain []byte, hostKey string) []byte {
	if len(plain) < sha256.Size {
		return plain
	}
	sum := sha256.Sum256([]byte(hostKey))
	if bytes.Equal(plain[:sha256.Size], sum[:]) {
		return plain[sha256.Size:]
	}
	return plain
}

func defaultProfileDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}

	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Google", "Chrome", "Default"), nil
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "Google", "Chrome", "User Data", "Default"), nil
	default:
		return filepath.Join(home, ".config", "google-chrome", "Default"), nil
	}
}

func copyAside(path string) (string, error) {
	src, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, err := os.CreateTemp("", "cookies-*.sqlite")
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", err
	}
	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return "", err
	}
	return dst.Name(), nil
}

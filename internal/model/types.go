package model

import (
	"database/sql/driver"
	"fmt"
	"sync"
)

// TokenCipher 令牌加解密
type TokenCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

var (
	cipherMu    sync.RWMutex
	tokenCipher TokenCipher
)

// SetTokenCipher 设置令牌加密器，nil 表示明文存储
func SetTokenCipher(c TokenCipher) {
	cipherMu.Lock()
	defer cipherMu.Unlock()
	tokenCipher = c
}

func currentCipher() TokenCipher {
	cipherMu.RLock()
	defer cipherMu.RUnlock()
	return tokenCipher
}

// EncryptedString 落库时加密、读取时解密的字符串
type EncryptedString string

// 实现 sql.Scanner
func (s *EncryptedString) Scan(value interface{}) error {
	var raw string
	switch v := value.(type) {
	case nil:
		*s = ""
		return nil
	case []byte:
		raw = string(v)
	case string:
		raw = v
	default:
		return fmt.Errorf("cannot scan %T into EncryptedString", value)
	}

	c := currentCipher()
	if c == nil {
		*s = EncryptedString(raw)
		return nil
	}
	plain, err := c.Decrypt(raw)
	if err != nil {
		return fmt.Errorf("解密令牌失败: %w", err)
	}
	*s = EncryptedString(plain)
	return nil
}

// 实现 driver.Valuer
func (s EncryptedString) Value() (driver.Value, error) {
	c := currentCipher()
	if c == nil || s == "" {
		return string(s), nil
	}
	return c.Encrypt(string(s))
}

func (s EncryptedString) String() string {
	return string(s)
}

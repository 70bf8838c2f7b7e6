package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// ResetCodeTTL 重置挑战的绝对有效期
const ResetCodeTTL = 15 * time.Minute

// GenerateResetCode 生成均匀随机的 6 位十进制重置码
func GenerateResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("generate reset code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

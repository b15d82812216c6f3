package util

import "math/rand/v2"

const (
	// DefaultIDLength 上传 id 和 session hash 的默认长度
	DefaultIDLength = 11

	idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// RandomID 生成 n 位小写字母数字随机串，用作上传/会话的关联 id。
// 不保证唯一，也不用于安全场景。
func RandomID(n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = idAlphabet[rand.IntN(len(idAlphabet))]
	}
	return string(b)
}

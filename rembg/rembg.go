package rembg

import "context"

// Remover 去除图片背景，返回处理结果的 URL
type Remover interface {
	Remove(ctx context.Context, imagePath string) (string, error)
}

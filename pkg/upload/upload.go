// Package upload 小票文件校验：扩展名 → 大小 → 魔数 → 扩展名与内容一致性
package upload

import (
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var (
	ErrUnsupportedExtension = errors.New("不支持的文件类型")
	ErrEmptyFile            = errors.New("文件为空")
	ErrFileTooLarge         = errors.New("文件过大")
	ErrUnsupportedContent   = errors.New("文件内容不是受支持的格式")
	ErrContentMismatch      = errors.New("文件扩展名与内容不符")
)

// extensionMIME 允许的扩展名 → 期望的 MIME 类型
var extensionMIME = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".heic": "image/heic",
	".pdf":  "application/pdf",
}

// Validator 小票上传校验器
type Validator struct {
	maxSize    int64
	extensions map[string]string
}

// NewValidator 创建校验器。allowed 为空时使用全部默认扩展名。
func NewValidator(maxSize int64, allowed []string) *Validator {
	exts := make(map[string]string)
	for _, e := range allowed {
		e = normalizeExt(e)
		if mime, ok := extensionMIME[e]; ok {
			exts[e] = mime
		}
	}
	if len(exts) == 0 {
		for e, mime := range extensionMIME {
			exts[e] = mime
		}
	}
	return &Validator{maxSize: maxSize, extensions: exts}
}

// File 校验通过的文件信息
type File struct {
	Name        string
	Ext         string
	ContentType string
	Size        int64
}

// Validate 顺序执行全部校验。r 读取后会被 Seek 回起点，供后续上传使用。
func (v *Validator) Validate(name string, size int64, r io.ReadSeeker) (*File, error) {
	ext := normalizeExt(filepath.Ext(name))
	expected, ok := v.extensions[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedExtension, ext)
	}

	if size <= 0 {
		return nil, ErrEmptyFile
	}
	if v.maxSize > 0 && size > v.maxSize {
		return nil, fmt.Errorf("%w: %d > %d 字节", ErrFileTooLarge, size, v.maxSize)
	}

	detected, err := mimetype.DetectReader(r)
	if err != nil {
		return nil, fmt.Errorf("读取文件头失败: %w", err)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("重置文件读取位置失败: %w", err)
	}

	if !v.allowedMIME(detected) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedContent, detected.String())
	}
	if !detected.Is(expected) {
		return nil, fmt.Errorf("%w: %s ≠ %s", ErrContentMismatch, ext, detected.String())
	}

	return &File{
		Name:        path.Base(strings.ReplaceAll(name, `\`, "/")),
		Ext:         ext,
		ContentType: expected,
		Size:        size,
	}, nil
}

// Extensions 返回允许的扩展名（用于错误提示）
func (v *Validator) Extensions() []string {
	out := make([]string, 0, len(v.extensions))
	for e := range v.extensions {
		out = append(out, e)
	}
	return out
}

func (v *Validator) allowedMIME(m *mimetype.MIME) bool {
	for _, mime := range v.extensions {
		if m.Is(mime) {
			return true
		}
	}
	return false
}

// ObjectKey 生成对象存储路径：receipts/<ticket>/<uuid><ext>
func ObjectKey(ticketID, ext string) string {
	return fmt.Sprintf("receipts/%s/%s%s", ticketID, uuid.New().String(), normalizeExt(ext))
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

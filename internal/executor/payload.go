package executor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// DefaultPayloadDir — каталог временных payload-файлов по умолчанию.
var DefaultPayloadDir = filepath.Join(".chrono", "temp")

// WritePayload сериализует значение в уникальный JSON-файл
// внутри dir и возвращает путь к нему.
func WritePayload(dir string, v any) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create payload dir: %w", err)
	}

	name := "temp_" + strings.ReplaceAll(uuid.New().String(), "-", "") + ".json"
	path := filepath.Join(dir, name)

	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write payload: %w", err)
	}
	return path, nil
}

// RemovePayloads удаляет payload-файлы, игнорируя отсутствующие.
func RemovePayloads(paths ...string) {
	for _, path := range paths {
		if path == "" {
			continue
		}
		_ = os.Remove(path)
	}
}

package testsupport

import (
	"os"
	"path/filepath"
)

// WriteScript 在 dir 下写入可执行的 shell 脚本，用于替代外部工具
func WriteScript(dir, name, body string) (string, error) {
	path := filepath.Join(dir, name)
	script := "#!/bin/sh\n" + body
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		return "", err
	}
	return path, nil
}

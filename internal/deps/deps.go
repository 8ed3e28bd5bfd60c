package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement 外部依赖
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status 外部依赖的可用状态
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Path        string
	Detail      string
}

// Requirements 返回运行所需的外部工具
func Requirements(ffmpegBin, demucsBin string) []Requirement {
	return []Requirement{
		{
			Name:        "FFmpeg",
			Command:     ffmpegBin,
			Description: "MP3 编码及其他格式解码",
			Optional:    true,
		},
		{
			Name:        "Demucs",
			Command:     demucsBin,
			Description: "音源分离模型",
		},
	}
}

// CheckBinaries 检查外部工具是否可用
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "未配置命令"
			results = append(results, status)
			continue
		}
		path, err := exec.LookPath(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("未找到可执行文件 %q", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		status.Path = path
		results = append(results, status)
	}
	return results
}

// MissingRequired 返回不可用的必需依赖
func MissingRequired(statuses []Status) []Status {
	var missing []Status
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			missing = append(missing, s)
		}
	}
	return missing
}

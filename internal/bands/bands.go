package bands

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"songsplitter/internal/types"

	"github.com/cockroachdb/errors"
)

// ErrInvalidBand 频段格式错误
var ErrInvalidBand = errors.New("invalid band")

// Default 返回默认频段: 低频 (0-500Hz)、中频 (500-4000Hz)、高频 (4000-20000Hz)
func Default() []types.Band {
	return []types.Band{
		{Low: 0, High: 500, Name: "low"},
		{Low: 500, High: 4000, Name: "mid"},
		{Low: 4000, High: 20000, Name: "high"},
	}
}

// Name 自定义频段的名称
func Name(low, high int) string {
	return fmt.Sprintf("%d-%dHz", low, high)
}

// Parse 解析 "low_hz-high_hz" 格式的频段
func Parse(s string) (types.Band, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 2 {
		return types.Band{}, invalid(s)
	}

	low, err := parseHz(parts[0])
	if err != nil {
		return types.Band{}, invalid(s)
	}
	high, err := parseHz(parts[1])
	if err != nil {
		return types.Band{}, invalid(s)
	}

	if low >= high {
		return types.Band{}, errors.WithDetail(invalid(s), "低频必须小于高频")
	}

	return types.Band{Low: low, High: high, Name: Name(low, high)}, nil
}

// ParseAll 解析多个频段参数，每个参数可以包含以逗号或空白分隔的多个频段。
// 参数列表为空时返回 nil，表示使用默认频段；不含任何频段的参数视为无效。
func ParseAll(args []string) ([]types.Band, error) {
	var result []types.Band
	for _, arg := range args {
		tokens := Tokenize(arg)
		if len(tokens) == 0 {
			return nil, invalid(arg)
		}
		for _, token := range tokens {
			band, err := Parse(token)
			if err != nil {
				return nil, err
			}
			result = append(result, band)
		}
	}
	return result, nil
}

// Tokenize 按逗号和空白拆分频段参数
func Tokenize(arg string) []string {
	return strings.FieldsFunc(arg, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
}

// OutputPath 生成频段输出文件路径: {prefix}_{band}.{format}
func OutputPath(prefix string, band types.Band, format types.OutputFormat) string {
	return fmt.Sprintf("%s_%s.%s", prefix, band.Name, format)
}

func parseHz(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, strconv.ErrSyntax
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, strconv.ErrSyntax
		}
	}
	return strconv.Atoi(s)
}

func invalid(s string) error {
	return errors.Mark(
		errors.Newf("无效的频段格式: %s，请使用 'low_hz-high_hz' 格式 (例如 '0-500')", s),
		ErrInvalidBand,
	)
}

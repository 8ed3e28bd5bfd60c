package separator

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"songsplitter/internal/types"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

const (
	DefaultBinary    = "demucs"
	DefaultModel     = "htdemucs"
	DefaultOutputDir = "separated_output"
	DefaultShifts    = 1
	DefaultOverlap   = 0.25
	DefaultBitrate   = 320

	lockSuffix = ".lock"
)

// ErrOutputLocked 输出目录正被另一个分离任务占用
var ErrOutputLocked = errors.New("output directory locked")

// 模型输出的音轨顺序，未列出的音轨按名称排在后面
var stemOrder = map[string]int{
	"drums":  0,
	"bass":   1,
	"other":  2,
	"vocals": 3,
}

// Separator 基于 demucs 预训练模型的音源分离器
type Separator struct {
	config *types.SeparateConfig
}

// NewSeparator 创建音源分离器
func NewSeparator(config *types.SeparateConfig) *Separator {
	return &Separator{config: config}
}

// Separate 将音频文件分离为多个音轨，输出为 {dir}/{basename}_{stem}.{format}
func (s *Separator) Separate(ctx context.Context, audioPath string) ([]types.StemResult, error) {
	absAudioPath, err := filepath.Abs(audioPath)
	if err != nil {
		return nil, errors.Wrap(err, "无法转换输入路径为绝对路径")
	}

	outputDir := s.config.OutputDir
	if outputDir == "" {
		outputDir = DefaultOutputDir
	}

	logger := log.WithFields(log.Fields{
		"file":      audioPath,
		"outputDir": outputDir,
		"model":     s.model(),
		"format":    s.format(),
	})
	logger.Infof("正在分离 '%s' 的音源...", audioPath)

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "创建输出目录失败: %s", outputDir)
	}

	lock := flock.New(LockPath(outputDir))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, errors.Wrap(err, "获取输出目录锁失败")
	}
	if !locked {
		return nil, errors.Mark(
			errors.Newf("输出目录正被另一个分离任务使用: %s", outputDir),
			ErrOutputLocked,
		)
	}
	defer lock.Unlock()

	stagingDir := filepath.Join(outputDir, ".staging-"+uuid.NewString())
	defer os.RemoveAll(stagingDir)

	// 分离耗时较长，开始前检查是否已取消
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "分离开始前任务已取消")
	}

	if err := s.runDemucs(ctx, absAudioPath, stagingDir); err != nil {
		return nil, err
	}

	stems, err := s.collectStems(filepath.Join(stagingDir, s.model()), outputDir, TrackName(audioPath))
	if err != nil {
		return nil, err
	}

	for _, stem := range stems {
		logger.WithField("stem", stem.Stem).Debugf("已保存音轨: %s", stem.OutputPath)
	}
	logger.Infof("分离完成，音轨已保存至 '%s'", outputDir)

	return stems, nil
}

// Args 构造 demucs 命令行参数
func (s *Separator) Args(sourcePath, destDir string) []string {
	shifts := s.config.Shifts
	if shifts < 1 {
		shifts = DefaultShifts
	}

	args := []string{
		"-n", s.model(),
		"-o", destDir,
		"--filename", "{track}_{stem}.{ext}",
		"--shifts", strconv.Itoa(shifts),
		"--overlap", strconv.FormatFloat(s.config.Overlap, 'f', -1, 64),
	}
	if s.config.Device != "" {
		args = append(args, "-d", s.config.Device)
	}
	if s.format() == types.FormatMP3 {
		bitrate := s.config.MP3Bitrate
		if bitrate <= 0 {
			bitrate = DefaultBitrate
		}
		args = append(args, "--mp3", "--mp3-bitrate", strconv.Itoa(bitrate))
	}

	return append(args, sourcePath)
}

func (s *Separator) runDemucs(ctx context.Context, sourcePath, destDir string) error {
	bin := s.config.DemucsBin
	if bin == "" {
		bin = DefaultBinary
	}
	args := s.Args(sourcePath, destDir)

	logger := log.WithFields(log.Fields{
		"bin":  bin,
		"args": args,
	})
	logger.Info("执行 demucs 命令")

	cmd := exec.CommandContext(ctx, bin, args...)
	output, err := cmd.CombinedOutput()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return errors.Wrap(ctxErr, "demucs 已被终止")
	}
	if err != nil {
		return errors.WithDetail(
			errors.Wrapf(err, "demucs 执行失败: %s", strings.TrimSpace(string(output))),
			strings.Join(args, " "),
		)
	}

	logger.Debug(string(output))
	logger.Info("demucs 命令执行完成")
	return nil
}

// collectStems 将 demucs 的输出移动到输出目录并按音轨顺序返回
func (s *Separator) collectStems(modelDir, outputDir, track string) ([]types.StemResult, error) {
	entries, err := os.ReadDir(modelDir)
	if err != nil {
		return nil, errors.Wrapf(err, "读取 demucs 输出目录失败: %s", modelDir)
	}

	prefix := track + "_"
	var stems []types.StemResult
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		ext := filepath.Ext(name)
		base := strings.TrimSuffix(name, ext)
		if !strings.HasPrefix(base, prefix) || len(base) == len(prefix) {
			continue
		}
		stem := strings.TrimPrefix(base, prefix)

		dest := filepath.Join(outputDir, name)
		if err := os.Rename(filepath.Join(modelDir, name), dest); err != nil {
			return nil, errors.Wrapf(err, "移动音轨文件失败: %s", name)
		}
		stems = append(stems, types.StemResult{Stem: stem, OutputPath: dest})
	}

	if len(stems) == 0 {
		return nil, errors.Newf("demucs 未生成任何音轨: %s", modelDir)
	}

	sort.Slice(stems, func(i, j int) bool {
		ri, iKnown := stemOrder[stems[i].Stem]
		rj, jKnown := stemOrder[stems[j].Stem]
		switch {
		case iKnown && jKnown:
			return ri < rj
		case iKnown != jKnown:
			return iKnown
		default:
			return stems[i].Stem < stems[j].Stem
		}
	})

	return stems, nil
}

// LockPath 返回输出目录的锁文件路径，锁文件与输出目录同级，不混入音轨
func LockPath(outputDir string) string {
	if abs, err := filepath.Abs(outputDir); err == nil {
		return abs + lockSuffix
	}
	return filepath.Clean(outputDir) + lockSuffix
}

// TrackName 返回去掉最后一个扩展名的文件名
func TrackName(audioPath string) string {
	name := filepath.Base(audioPath)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

func (s *Separator) model() string {
	if s.config.Model == "" {
		return DefaultModel
	}
	return s.config.Model
}

func (s *Separator) format() types.OutputFormat {
	if s.config.Format == "" {
		return types.FormatWAV
	}
	return s.config.Format
}

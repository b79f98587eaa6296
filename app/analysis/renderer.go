package analysis

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"bili-notes/app/cfg"
	"bili-notes/app/video"
)

// ErrNoDocument signals that no rendered note exists for a video identifier.
var ErrNoDocument = errors.New("no markdown document found")

// Document describes one rendered note file.
type Document struct {
	Filename  string    `json:"filename"`
	Bvid      string    `json:"bvid"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// LatestNote is the newest rendered note for one video identifier.
type LatestNote struct {
	Bvid        string    `json:"bvid"`
	Filename    string    `json:"filename"`
	Content     string    `json:"content"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Renderer formats analysis text into a Markdown note and keeps the note
// files under one output directory. Filenames embed the video identifier and
// a second-granularity timestamp, so notes for the same video coexist and
// the newest one wins on lookup.
type Renderer struct {
	outputDir string
}

func NewRenderer() *Renderer {
	return &Renderer{
		outputDir: cfg.Get().OutputDir,
	}
}

// Run renders the note for one video and writes it to disk, returning the
// file name and full path.
func (r *Renderer) Run(v video.Video, analysisText string) (string, string, error) {
	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		return "", "", fmt.Errorf("failed to create output directory: %w", err)
	}

	now := time.Now().In(time.Local)
	content := r.render(v, analysisText, now)

	filename := fmt.Sprintf("%s_%s.md", v.Bvid, now.Format("20060102_150405"))
	path := filepath.Join(r.outputDir, filename)

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", "", fmt.Errorf("failed to write markdown file: %w", err)
	}

	return filename, path, nil
}

func (r *Renderer) render(v video.Video, analysisText string, now time.Time) string {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s - 学习笔记\n\n", v.Title))
	buf.WriteString("**视频信息**\n")
	buf.WriteString(fmt.Sprintf("- UP主：%s\n", v.Author))
	buf.WriteString(fmt.Sprintf("- BV号：%s\n", v.Bvid))
	buf.WriteString(fmt.Sprintf("- 时长：%s秒\n", v.Duration))
	buf.WriteString(fmt.Sprintf("- 更新时间：%s\n", formatPubdate(v.Pubdate)))
	buf.WriteString(fmt.Sprintf("- [观看视频](%s)\n\n", v.URL))
	buf.WriteString("---\n\n")
	buf.WriteString("## 内容分析\n\n")
	buf.WriteString(analysisText)
	buf.WriteString("\n\n---\n\n")
	buf.WriteString("## 知识点总结\n\n")
	buf.WriteString(fmt.Sprintf("*自动生成于 %s*\n\n", now.Format("2006-01-02 15:04:05")))
	buf.WriteString("<!-- 收藏按钮数据 -->\n")
	buf.WriteString(fmt.Sprintf("<div class=\"knowledge-actions\" data-bvid=\"%s\" data-title=\"%s\" data-author=\"%s\">\n",
		v.Bvid, v.Title, v.Author))
	buf.WriteString(fmt.Sprintf("    <button onclick=\"collectKnowledge('%s')\">收藏知识点</button>\n", v.Bvid))
	buf.WriteString("</div>\n")

	return buf.String()
}

// ListDocuments returns every rendered note in the output directory.
func (r *Renderer) ListDocuments() ([]Document, error) {
	files, err := filepath.Glob(filepath.Join(r.outputDir, "*.md"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan output directory: %w", err)
	}

	documents := make([]Document, 0, len(files))
	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil {
			continue
		}

		name := filepath.Base(file)
		documents = append(documents, Document{
			Filename:  name,
			Bvid:      strings.SplitN(name, "_", 2)[0],
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
		})
	}

	return documents, nil
}

// Latest returns the newest rendered note for a video identifier, resolving
// ties between multiple notes by file modification time.
func (r *Renderer) Latest(bvid string) (*LatestNote, error) {
	files, err := filepath.Glob(filepath.Join(r.outputDir, bvid+"_*.md"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan output directory: %w", err)
	}

	if len(files) == 0 {
		return nil, ErrNoDocument
	}

	var newest string
	var newestTime time.Time
	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestTime) {
			newest = file
			newestTime = info.ModTime()
		}
	}

	if newest == "" {
		return nil, ErrNoDocument
	}

	content, err := os.ReadFile(newest)
	if err != nil {
		return nil, fmt.Errorf("failed to read markdown file: %w", err)
	}

	return &LatestNote{
		Bvid:        bvid,
		Filename:    filepath.Base(newest),
		Content:     string(content),
		GeneratedAt: newestTime,
	}, nil
}

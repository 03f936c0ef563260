package transcript

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

var ErrUnknownFormat = errors.New("unknown archive format")

// Archive 保存按时间排序的历史消息，按页向上提供更早的内容。
type Archive struct {
	Path string
	msgs []Message
}

func NewArchive(msgs []Message) *Archive {
	a := &Archive{msgs: append([]Message{}, msgs...)}
	a.normalize()
	return a
}

// OpenArchive 读取 .json / .jsonl / .yaml / .yml 格式的归档；文件不存在时返回空归档。
func OpenArchive(path string) (*Archive, error) {
	a := &Archive{Path: path}
	if strings.TrimSpace(path) == "" {
		return a, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return a, nil
		}
		return nil, err
	}
	msgs, err := decode(path, data)
	if err != nil {
		return nil, fmt.Errorf("read archive %s: %w", path, err)
	}
	a.msgs = msgs
	a.normalize()
	return a, nil
}

func decode(path string, data []byte) ([]Message, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		var msgs []Message
		if err := json.Unmarshal(data, &msgs); err != nil {
			return nil, err
		}
		return msgs, nil
	case ".jsonl":
		return decodeLines(data)
	case ".yaml", ".yml":
		var msgs []Message
		if err := yaml.Unmarshal(data, &msgs); err != nil {
			return nil, err
		}
		return msgs, nil
	default:
		return nil, ErrUnknownFormat
	}
}

func decodeLines(data []byte) ([]Message, error) {
	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	var out []Message
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var m Message
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			continue
		}
		out = append(out, m)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *Archive) normalize() {
	for i := range a.msgs {
		if a.msgs[i].ID == "" {
			a.msgs[i].ID = uuid.NewString()
		}
		if a.msgs[i].Role == "" {
			a.msgs[i].Role = RoleUser
		}
	}
	sort.SliceStable(a.msgs, func(i, j int) bool {
		return a.msgs[i].Time.Before(a.msgs[j].Time)
	})
}

func (a *Archive) Len() int {
	if a == nil {
		return 0
	}
	return len(a.msgs)
}

// Tail 返回最新的 n 条消息，用作初始可见内容。
func (a *Archive) Tail(n int) []Message {
	if a == nil || n <= 0 {
		return nil
	}
	start := len(a.msgs) - n
	if start < 0 {
		start = 0
	}
	return append([]Message{}, a.msgs[start:]...)
}

// Older 返回 beforeID 之前最多 n 条消息（按时间正序）。
// beforeID 为空时从末尾取；beforeID 不在归档中时没有更早的内容。
func (a *Archive) Older(beforeID string, n int) []Message {
	if a == nil || n <= 0 {
		return nil
	}
	end := len(a.msgs)
	if beforeID != "" {
		end = -1
		for i, m := range a.msgs {
			if m.ID == beforeID {
				end = i
				break
			}
		}
		if end < 0 {
			return nil
		}
	}
	start := end - n
	if start < 0 {
		start = 0
	}
	return append([]Message{}, a.msgs[start:end]...)
}

// Save 按扩展名写回归档。
func (a *Archive) Save(path string) error {
	if path == "" {
		path = a.Path
	}
	if strings.TrimSpace(path) == "" {
		return errors.New("archive path is empty")
	}
	data, err := encode(path, a.msgs)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func encode(path string, msgs []Message) ([]byte, error) {
	if msgs == nil {
		msgs = []Message{}
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return json.MarshalIndent(msgs, "", "  ")
	case ".jsonl":
		var b strings.Builder
		for _, m := range msgs {
			data, err := json.Marshal(m)
			if err != nil {
				return nil, err
			}
			b.Write(data)
			b.WriteByte('\n')
		}
		return []byte(b.String()), nil
	case ".yaml", ".yml":
		return yaml.Marshal(msgs)
	default:
		return nil, ErrUnknownFormat
	}
}

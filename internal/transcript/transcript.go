package transcript

// Transcript 维护有序消息列表。每次修改都会递增 Version，
// 供滚动状态机判断“内容是否变化”。
type Transcript struct {
	msgs      []Message
	version   uint64
	tail      uint64
	streamIdx int
}

func New(msgs ...Message) *Transcript {
	return &Transcript{msgs: append([]Message{}, msgs...), streamIdx: -1}
}

// Version 返回内容版本号，任何追加、流式片段或向上插入都会使其递增。
func (t *Transcript) Version() uint64 {
	if t == nil {
		return 0
	}
	return t.version
}

// TailVersion 只在底部内容变化时递增（追加、流式片段、结束流式、清空），
// 向上插入更早的消息不影响它。
func (t *Transcript) TailVersion() uint64 {
	if t == nil {
		return 0
	}
	return t.tail
}

// Messages 返回当前消息的副本。
func (t *Transcript) Messages() []Message {
	if t == nil {
		return nil
	}
	return append([]Message{}, t.msgs...)
}

func (t *Transcript) Len() int {
	if t == nil {
		return 0
	}
	return len(t.msgs)
}

// First 返回最早的一条消息。
func (t *Transcript) First() (Message, bool) {
	if t == nil || len(t.msgs) == 0 {
		return Message{}, false
	}
	return t.msgs[0], true
}

// LastOf 返回指定角色的最后一条消息。
func (t *Transcript) LastOf(role Role) (Message, bool) {
	if t == nil {
		return Message{}, false
	}
	for i := len(t.msgs) - 1; i >= 0; i-- {
		if t.msgs[i].Role == role {
			return t.msgs[i], true
		}
	}
	return Message{}, false
}

// Index 返回消息 ID 的位置，不存在时为 -1。
func (t *Transcript) Index(id string) int {
	if t == nil {
		return -1
	}
	for i, m := range t.msgs {
		if m.ID == id {
			return i
		}
	}
	return -1
}

// Streaming 报告是否有助手消息正在流式追加。
func (t *Transcript) Streaming() bool {
	return t != nil && t.streamIdx >= 0
}

// Append 在尾部追加一条消息。
func (t *Transcript) Append(msg Message) {
	if t == nil {
		return
	}
	t.msgs = append(t.msgs, msg)
	t.version++
	t.tail++
}

// BeginAssistant 追加一条空的助手消息并进入流式状态。
func (t *Transcript) BeginAssistant() Message {
	msg := NewMessage(RoleAssistant, "")
	if t == nil {
		return msg
	}
	t.Append(msg)
	t.streamIdx = len(t.msgs) - 1
	return msg
}

// AppendChunk 将片段追加到正在流式的消息；未处于流式状态时忽略。
func (t *Transcript) AppendChunk(chunk string) bool {
	if !t.Streaming() || t.streamIdx >= len(t.msgs) || chunk == "" {
		return false
	}
	t.msgs[t.streamIdx].Content += chunk
	t.version++
	t.tail++
	return true
}

// FinishStream 结束流式状态。
func (t *Transcript) FinishStream() {
	if t == nil || t.streamIdx < 0 {
		return
	}
	t.streamIdx = -1
	t.version++
	t.tail++
}

// Prepend 在顶部插入更早的消息，已存在的 ID 会被跳过。
func (t *Transcript) Prepend(older []Message) int {
	if t == nil || len(older) == 0 {
		return 0
	}
	seen := make(map[string]bool, len(t.msgs))
	for _, m := range t.msgs {
		seen[m.ID] = true
	}
	fresh := make([]Message, 0, len(older))
	for _, m := range older {
		if m.ID != "" && seen[m.ID] {
			continue
		}
		fresh = append(fresh, m)
	}
	if len(fresh) == 0 {
		return 0
	}
	t.msgs = append(fresh, t.msgs...)
	if t.streamIdx >= 0 {
		t.streamIdx += len(fresh)
	}
	t.version++
	return len(fresh)
}

// Reset 清空全部消息并结束流式状态。
func (t *Transcript) Reset() {
	if t == nil {
		return
	}
	t.msgs = nil
	t.streamIdx = -1
	t.version++
	t.tail++
}

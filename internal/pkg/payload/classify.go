package payload

import (
	"strings"
)

// Kind 负载分类
type Kind int

const (
	KindUnknown Kind = iota
	KindMessage
	KindStatus
	KindContact
)

func (k Kind) String() string {
	switch k {
	case KindMessage:
		return "message"
	case KindStatus:
		return "status"
	case KindContact:
		return "contact"
	default:
		return "unknown"
	}
}

// Entry 批次中的单条记录，Parent 为其所在的外层负载；元素本身无法识别时 Err 非空
type Entry struct {
	Object Object
	Parent Object
	Err    error
}

// Batch 一次分类的结果；无法分类时 Err 为 ErrUnrecognizedPayload
type Batch struct {
	Kind    Kind
	Entries []Entry
	Err     error
}

var (
	fallbackIDPaths      = []string{"id", "msg_id", "message_id", "meta_id", "wamid", "key.id"}
	fallbackContentPaths = []string{"text", "content", "body", "caption", "conversation", "image", "audio", "video", "document", "location", "sticker", "message"}
)

// Classify 按顺序匹配规则，首个命中的规则生效；数组逐元素递归分类
func Classify(raw any) []Batch {
	if arr, ok := raw.([]any); ok {
		var res []Batch
		for _, item := range arr {
			res = append(res, Classify(item)...)
		}
		return res
	}

	obj, ok := AsObject(raw)
	if !ok {
		return []Batch{{Kind: KindUnknown, Err: ErrUnrecognizedPayload}}
	}

	if batches, ok := classifyEnvelope(obj); ok {
		return batches
	}
	return []Batch{classifyObject(obj)}
}

func classifyObject(obj Object) Batch {
	typ := strings.ToLower(obj.Str("type"))

	// 消息
	if msgs := obj.Arr("messages"); msgs != nil {
		return collect(KindMessage, msgs, obj)
	}
	if inner := obj.Obj("message"); inner != nil && (typ != "message" || ownsMessage(inner)) {
		return single(KindMessage, inner, obj)
	}
	if typ == "message" {
		return single(KindMessage, obj, nil)
	}

	// 状态回执
	if statuses := obj.Arr("statuses"); statuses != nil {
		return collect(KindStatus, statuses, obj)
	}
	if typ == "status" || obj.Has("status_update") {
		if upd := obj.Obj("status_update"); upd != nil {
			return single(KindStatus, upd, obj)
		}
		return single(KindStatus, obj, nil)
	}

	// 联系人
	if contacts := obj.Arr("contacts"); contacts != nil {
		return collect(KindContact, contacts, obj)
	}

	// 隐式消息
	if obj.Str(fallbackIDPaths...) != "" || hasAny(obj, fallbackContentPaths) {
		return single(KindUnknown, obj, nil)
	}
	return Batch{Kind: KindUnknown, Err: ErrUnrecognizedPayload}
}

// classifyEnvelope 拆解常见网关的外层信封
func classifyEnvelope(obj Object) ([]Batch, bool) {
	// entry[].changes[].value
	if entries := obj.Arr("entry"); entries != nil {
		var res []Batch
		for _, e := range entries {
			eo, ok := AsObject(e)
			if !ok {
				continue
			}
			for _, ch := range eo.Arr("changes") {
				co, ok := AsObject(ch)
				if !ok {
					continue
				}
				if value := co.Obj("value"); value != nil {
					res = append(res, classifyObject(value))
				}
			}
		}
		if len(res) == 0 {
			return []Batch{{Kind: KindUnknown, Err: ErrUnrecognizedPayload}}, true
		}
		return res, true
	}

	// {event, data}
	event := strings.ToLower(obj.Str("event"))
	data := obj.Get("data")
	if event == "" || data == nil {
		return nil, false
	}

	items, isArr := data.([]any)
	if !isArr {
		items = []any{data}
	}
	switch {
	case strings.Contains(event, "update") || strings.Contains(event, "ack") || strings.Contains(event, "status"):
		if strings.HasPrefix(event, "contacts") {
			return []Batch{collect(KindContact, items, obj)}, true
		}
		return []Batch{collect(KindStatus, items, obj)}, true
	case strings.HasPrefix(event, "contacts"):
		return []Batch{collect(KindContact, items, obj)}, true
	case strings.HasPrefix(event, "messages"):
		return []Batch{collect(KindMessage, items, obj)}, true
	}
	if isArr {
		return []Batch{collect(KindMessage, items, obj)}, true
	}
	if inner, ok := AsObject(data); ok {
		return Classify(inner), true
	}
	return nil, false
}

func hasAny(obj Object, paths []string) bool {
	for _, p := range paths {
		if obj.Has(p) {
			return true
		}
	}
	return false
}

// ownsMessage message 字段自带发送方或标识时才是消息本体，否则只是正文容器
func ownsMessage(inner Object) bool {
	return conversationKeyOf(inner) != "" || !ExtractIdentifiers(inner).IsEmpty()
}

func single(kind Kind, obj, parent Object) Batch {
	return Batch{Kind: kind, Entries: []Entry{{Object: obj, Parent: parent}}}
}

func collect(kind Kind, items []any, parent Object) Batch {
	b := Batch{Kind: kind, Entries: make([]Entry, 0, len(items))}
	for _, it := range items {
		o, ok := AsObject(it)
		if !ok {
			// 非对象元素保留位置，入库时计为失败
			b.Entries = append(b.Entries, Entry{Err: ErrUnrecognizedPayload})
			continue
		}
		b.Entries = append(b.Entries, Entry{Object: o, Parent: parent})
	}
	return b
}

package service

import (
	"Courier/internal/model"
	"sort"
)

// summarize 从消息集合推导会话摘要，按最后消息时间倒序
// 已删除的消息不参与统计；同一时间戳的消息以后出现者为准
func summarize(messages []*model.Message) []*model.ConversationSummary {
	groups := make(map[string]*model.ConversationSummary)
	latest := make(map[string]*model.Message)

	for _, m := range messages {
		if m.IsDeleted {
			continue
		}
		sum, ok := groups[m.ConversationKey]
		if !ok {
			sum = &model.ConversationSummary{ConversationKey: m.ConversationKey}
			groups[m.ConversationKey] = sum
		}
		sum.TotalMessages++
		if m.IsUnread() {
			sum.UnreadCount++
		}
		if m.ContactNumber != "" && sum.ContactNumber == "" {
			sum.ContactNumber = m.ContactNumber
		}
		if cur := latest[m.ConversationKey]; cur == nil || !m.Timestamp.Before(cur.Timestamp) {
			latest[m.ConversationKey] = m
		}
		if hasRealName(m) && (sum.DisplayName == "" || !m.Timestamp.Before(sum.LastTimestamp)) {
			sum.DisplayName = m.DisplayName
		}
		if m.Timestamp.After(sum.LastTimestamp) {
			sum.LastTimestamp = m.Timestamp
		}
	}

	res := make([]*model.ConversationSummary, 0, len(groups))
	for key, sum := range groups {
		last := latest[key]
		sum.LastTimestamp = last.Timestamp
		sum.LastMessageContent = last.Content
		sum.LastMessageContentType = last.ContentType
		sum.LastStatus = last.Status
		sum.LastDirection = last.Direction
		if sum.DisplayName == "" {
			sum.DisplayName = model.DefaultDisplayName(key)
		}
		res = append(res, sum)
	}

	sort.SliceStable(res, func(i, j int) bool {
		if res[i].LastTimestamp.Equal(res[j].LastTimestamp) {
			return res[i].ConversationKey < res[j].ConversationKey
		}
		return res[i].LastTimestamp.After(res[j].LastTimestamp)
	})
	return res
}

func hasRealName(m *model.Message) bool {
	return m.DisplayName != "" && m.DisplayName != model.DefaultDisplayName(m.ConversationKey)
}
